/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package catalogmodels

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/itemstore/registry"
)

const (
	// CollectionName is the logical collection holding catalog items.
	CollectionName = "item"

	// AllCategory is the reserved category label meaning "no category filter".
	AllCategory = "All"

	// RelatedItemsLimit is how many items GetRelatedItems returns at most.
	RelatedItemsLimit = 4
)

// ItemFields lists the fields an item exposes, in document order.
var ItemFields = []string{
	"_id", "title", "description", "slogan", "stars", "category", "img_url", "price", "reviews",
}

func init() {
	registry.RegisterCollection[Item](registry.Collection{
		Name:        CollectionName,
		TextFields:  []string{"title", "slogan", "description"},
		KeyTemplate: "ITEM#{_id}",
	})
}

// Item is one product in the catalog.
type Item struct {
	ID          int64    `json:"_id" bson:"_id"`
	Title       string   `json:"title" bson:"title"`
	Description string   `json:"description" bson:"description"`
	Slogan      string   `json:"slogan" bson:"slogan"`
	Stars       float64  `json:"stars" bson:"stars"`
	Category    string   `json:"category" bson:"category"`
	ImgURL      string   `json:"img_url" bson:"img_url"`
	Price       float64  `json:"price" bson:"price"`
	Reviews     []Review `json:"reviews" bson:"reviews"`
}

// Review is a customer review embedded in an Item. Reviews are only ever appended.
type Review struct {
	Name    string  `json:"name" bson:"name"`
	Comment string  `json:"comment" bson:"comment"`
	Stars   float64 `json:"stars" bson:"stars"`

	// Date is the submission time in Unix milliseconds.
	Date int64 `json:"date" bson:"date"`
}

// Time returns the submission time as a strfmt.DateTime.
func (r Review) Time() strfmt.DateTime {
	return strfmt.DateTime(time.UnixMilli(r.Date).UTC())
}

// Category is a derived grouping of items by label; it is never stored.
type Category struct {
	ID  string `json:"_id" bson:"_id"`
	Num int64  `json:"num" bson:"num"`
}

// DummyItem returns the fixed fixture item used for seeding and tests.
func DummyItem() Item {
	return Item{
		ID:          1,
		Title:       "Gray Hooded Sweatshirt",
		Description: "The top hooded sweatshirt we offer",
		Slogan:      "Made of 100% cotton",
		Stars:       0,
		Category:    "Apparel",
		ImgURL:      "/img/products/hoodie.jpg",
		Price:       29.99,
		Reviews:     []Review{},
	}
}
