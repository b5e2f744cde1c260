/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/suparena/itemstore/catalogmodels"
	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/logger"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ItemDAO reads and updates catalog items through a document store it does not own.
// Every method is a single independent request against the store; the DAO keeps no
// state between calls besides the store handle.
type ItemDAO struct {
	store datastore.DataStore[catalogmodels.Item]
	log   *logger.Logger
	now   func() time.Time
}

// Option configures an ItemDAO.
type Option func(*ItemDAO)

// WithLogger sets the logger used for operation tracing.
func WithLogger(l *logger.Logger) Option {
	return func(d *ItemDAO) {
		d.log = l
	}
}

// WithClock overrides the time source used to stamp reviews.
func WithClock(now func() time.Time) Option {
	return func(d *ItemDAO) {
		d.now = now
	}
}

// NewItemDAO creates an ItemDAO over store.
func NewItemDAO(store datastore.DataStore[catalogmodels.Item], opts ...Option) *ItemDAO {
	d := &ItemDAO{
		store: store,
		log:   logger.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(zap.String("collection", catalogmodels.CollectionName))
	return d
}

// itemProjection keeps only the item fields, whatever else the stored document carries.
var itemProjection = func() bson.D {
	d := make(bson.D, 0, len(catalogmodels.ItemFields))
	for _, f := range catalogmodels.ItemFields {
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}()

// GetCategories returns every category present among the items plus the synthetic
// "All" entry whose count is the sum of the others. The result is sorted by label
// with plain string comparison, so "All" is placed wherever it falls alphabetically.
func (d *ItemDAO) GetCategories(ctx context.Context) ([]catalogmodels.Category, error) {
	rows, err := d.aggregate(ctx, "getCategories", storagemodels.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "num", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}

	categories := make([]catalogmodels.Category, 0, len(rows)+1)
	var sum int64
	for _, row := range rows {
		num, ok := toInt64(row["num"])
		if !ok {
			return nil, d.malformed("getCategories", fmt.Sprintf("group count has type %T", row["num"]))
		}
		categories = append(categories, catalogmodels.Category{ID: label(row["_id"]), Num: num})
		sum += num
	}

	categories = append(categories, catalogmodels.Category{ID: catalogmodels.AllCategory, Num: sum})
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

// GetItems returns one zero-indexed page of the items in category, ordered by id.
// The "All" category pages over every item.
func (d *ItemDAO) GetItems(ctx context.Context, category string, page, itemsPerPage int) ([]catalogmodels.Item, error) {
	return d.page(ctx, "getItems", categoryMatch(category), page, itemsPerPage)
}

// GetNumItems counts the items in category, or all items for "All".
func (d *ItemDAO) GetNumItems(ctx context.Context, category string) (int64, error) {
	return d.count(ctx, "getNumItems", categoryMatch(category))
}

// SearchItems returns one page of the items matching query in the text index, ordered by id.
func (d *ItemDAO) SearchItems(ctx context.Context, query string, page, itemsPerPage int) ([]catalogmodels.Item, error) {
	return d.page(ctx, "searchItems", textMatch(query), page, itemsPerPage)
}

// GetNumSearchItems counts the items matching query in the text index.
func (d *ItemDAO) GetNumSearchItems(ctx context.Context, query string) (int64, error) {
	return d.count(ctx, "getNumSearchItems", textMatch(query))
}

// GetItem returns the item with the given id, or a not found error.
func (d *ItemDAO) GetItem(ctx context.Context, itemID int64) (*catalogmodels.Item, error) {
	rows, err := d.aggregate(ctx, "getItem", storagemodels.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: itemID}}}},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("Item", strconv.FormatInt(itemID, 10))
	}

	item, err := d.decode("getItem", rows[0])
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetRelatedItems returns up to four items with no particular filter or order.
func (d *ItemDAO) GetRelatedItems(ctx context.Context) ([]catalogmodels.Item, error) {
	d.log.Debug("getRelatedItems")

	items, err := d.store.Find(ctx, &storagemodels.FindParams{Limit: catalogmodels.RelatedItemsLimit})
	if err != nil {
		d.log.Error("getRelatedItems failed", zap.Error(err))
		return nil, err
	}
	return items, nil
}

// AddReview appends a review stamped with the current time to the item's reviews and
// returns the item as it is after the append. The append and the read are one atomic
// store operation, so the returned item always contains the new review.
func (d *ItemDAO) AddReview(ctx context.Context, itemID int64, comment, name string, stars float64) (*catalogmodels.Item, error) {
	review := catalogmodels.Review{
		Name:    name,
		Comment: comment,
		Stars:   stars,
		Date:    d.now().UnixMilli(),
	}
	d.log.Debug("addReview", zap.Int64("itemId", itemID), zap.String("name", name), zap.Float64("stars", stars))

	item, err := d.store.FindOneAndUpdate(ctx,
		bson.M{"_id": itemID},
		bson.M{"$push": bson.M{"reviews": review}},
	)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("Item", strconv.FormatInt(itemID, 10))
		}
		d.log.Error("addReview failed", zap.Int64("itemId", itemID), zap.Error(err))
		return nil, err
	}
	return item, nil
}

// CreateDummyItem returns the fixed fixture item. It does not touch the store.
func (d *ItemDAO) CreateDummyItem() catalogmodels.Item {
	return catalogmodels.DummyItem()
}

func (d *ItemDAO) page(ctx context.Context, op string, match bson.D, page, itemsPerPage int) ([]catalogmodels.Item, error) {
	var pipeline storagemodels.Pipeline
	if match != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		bson.D{{Key: "$skip", Value: int64(page) * int64(itemsPerPage)}},
		bson.D{{Key: "$limit", Value: int64(itemsPerPage)}},
		bson.D{{Key: "$project", Value: itemProjection}},
	)

	rows, err := d.aggregate(ctx, op, pipeline, zap.Int("page", page), zap.Int("itemsPerPage", itemsPerPage))
	if err != nil {
		return nil, err
	}

	items := make([]catalogmodels.Item, 0, len(rows))
	for _, row := range rows {
		item, err := d.decode(op, row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// count runs match followed by $count. The store emits no row at all when nothing
// matches; that absence is reported as a malformed result, never as zero.
func (d *ItemDAO) count(ctx context.Context, op string, match bson.D) (int64, error) {
	var pipeline storagemodels.Pipeline
	if match != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$count", Value: "count"}})

	rows, err := d.aggregate(ctx, op, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, d.malformed(op, "count stage produced no rows")
	}
	n, ok := toInt64(rows[0]["count"])
	if !ok {
		return 0, d.malformed(op, fmt.Sprintf("count has type %T", rows[0]["count"]))
	}
	return n, nil
}

func (d *ItemDAO) aggregate(ctx context.Context, op string, pipeline storagemodels.Pipeline, fields ...zap.Field) ([]bson.M, error) {
	d.log.Debug(op, append(fields, zap.Int("stages", len(pipeline)))...)

	rows, err := d.store.Aggregate(ctx, pipeline)
	if err != nil {
		d.log.Error(op+" failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	return rows, nil
}

func (d *ItemDAO) decode(op string, row bson.M) (catalogmodels.Item, error) {
	raw, err := bson.Marshal(row)
	if err != nil {
		return catalogmodels.Item{}, d.malformed(op, err.Error())
	}
	var item catalogmodels.Item
	if err := bson.Unmarshal(raw, &item); err != nil {
		return catalogmodels.Item{}, d.malformed(op, err.Error())
	}
	return item, nil
}

func (d *ItemDAO) malformed(op, reason string) error {
	err := errors.NewMalformedResultError(op, reason)
	d.log.Error(op+" failed", zap.Error(err))
	return err
}

func categoryMatch(category string) bson.D {
	if category == catalogmodels.AllCategory {
		return nil
	}
	return bson.D{{Key: "category", Value: category}}
}

func textMatch(query string) bson.D {
	return bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}}
}

// label renders a group key as a category label.
func label(v interface{}) string {
	switch tv := v.(type) {
	case string:
		return tv
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func toInt64(v interface{}) (int64, bool) {
	switch tv := v.(type) {
	case int32:
		return int64(tv), true
	case int64:
		return tv, true
	case int:
		return int64(tv), true
	case float64:
		if tv == float64(int64(tv)) {
			return int64(tv), true
		}
	}
	return 0, false
}
