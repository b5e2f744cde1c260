/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

func stage(name string, spec interface{}) bson.D {
	return bson.D{{Key: name, Value: spec}}
}

func sampleDocs() []bson.M {
	return []bson.M{
		{"_id": int64(3), "title": "Coffee Mug", "category": "Kitchen", "price": 9.5},
		{"_id": int64(1), "title": "Gray Hooded Sweatshirt", "category": "Apparel", "slogan": "Made of 100% cotton"},
		{"_id": int64(2), "title": "Track Jacket", "category": "Apparel", "description": "Warm and light"},
		{"_id": int64(4), "title": "Stickers", "category": "Swag"},
	}
}

var textOpts = Options{TextFields: []string{"title", "slogan", "description"}}

func TestRunGroupAndCount(t *testing.T) {
	out, err := Run(sampleDocs(), storagemodels.Pipeline{
		stage("$group", bson.M{"_id": "$category", "num": bson.M{"$sum": 1}}),
		stage("$sort", bson.D{{Key: "_id", Value: 1}}),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Apparel", out[0]["_id"])
	assert.Equal(t, int32(2), out[0]["num"])
	assert.Equal(t, "Kitchen", out[1]["_id"])
	assert.Equal(t, "Swag", out[2]["_id"])

	count, err := Run(sampleDocs(), storagemodels.Pipeline{
		stage("$match", bson.M{"category": "Apparel"}),
		stage("$count", "count"),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, count, 1)
	assert.Equal(t, int32(2), count[0]["count"])

	empty, err := Run(sampleDocs(), storagemodels.Pipeline{
		stage("$match", bson.M{"category": "Nothing"}),
		stage("$count", "count"),
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunSortSkipLimitProject(t *testing.T) {
	out, err := Run(sampleDocs(), storagemodels.Pipeline{
		stage("$sort", bson.D{{Key: "_id", Value: 1}}),
		stage("$skip", 1),
		stage("$limit", 2),
		stage("$project", bson.M{"_id": 1, "title": 1}),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, bson.M{"_id": int64(2), "title": "Track Jacket"}, out[0])
	assert.Equal(t, bson.M{"_id": int64(3), "title": "Coffee Mug"}, out[1])

	past, err := Run(sampleDocs(), storagemodels.Pipeline{stage("$skip", int64(10))}, Options{})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestRunSortDescending(t *testing.T) {
	out, err := Run(sampleDocs(), storagemodels.Pipeline{
		stage("$sort", bson.D{{Key: "_id", Value: -1}}),
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), out[0]["_id"])
	assert.Equal(t, int64(1), out[3]["_id"])
}

func TestRunTextSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ids   []int64
	}{
		{name: "title word", query: "jacket", ids: []int64{2}},
		{name: "slogan word", query: "COTTON", ids: []int64{1}},
		{name: "any term", query: "mug warm", ids: []int64{2, 3}},
		{name: "no hit", query: "bicycle", ids: nil},
		{name: "partial word does not match", query: "jack", ids: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Run(sampleDocs(), storagemodels.Pipeline{
				stage("$match", bson.M{"$text": bson.M{"$search": tt.query}}),
				stage("$sort", bson.D{{Key: "_id", Value: 1}}),
			}, textOpts)
			require.NoError(t, err)

			var ids []int64
			for _, doc := range out {
				ids = append(ids, doc["_id"].(int64))
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestRunRejectsInvalidStages(t *testing.T) {
	tests := []struct {
		name  string
		stage bson.D
		opts  Options
	}{
		{name: "unknown stage", stage: stage("$bucket", bson.M{})},
		{name: "negative skip", stage: stage("$skip", -5)},
		{name: "zero limit", stage: stage("$limit", 0)},
		{name: "text without index", stage: stage("$match", bson.M{"$text": bson.M{"$search": "x"}})},
		{name: "group without id", stage: stage("$group", bson.M{"num": bson.M{"$sum": 1}})},
		{name: "bad sort direction", stage: stage("$sort", bson.D{{Key: "_id", Value: 2}})},
		{name: "multi-field stage", stage: bson.D{{Key: "$skip", Value: 1}, {Key: "$limit", Value: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(sampleDocs(), storagemodels.Pipeline{tt.stage}, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err), "expected validation error, got %v", err)
		})
	}
}

func TestMatchOperators(t *testing.T) {
	doc := bson.M{"_id": int64(5), "price": 12.5, "category": "Apparel"}

	tests := []struct {
		name   string
		filter bson.M
		want   bool
	}{
		{name: "equality across int widths", filter: bson.M{"_id": int32(5)}, want: true},
		{name: "gt", filter: bson.M{"price": bson.M{"$gt": 10}}, want: true},
		{name: "lte miss", filter: bson.M{"price": bson.M{"$lte": 12}}, want: false},
		{name: "in", filter: bson.M{"category": bson.M{"$in": bson.A{"Swag", "Apparel"}}}, want: true},
		{name: "ne", filter: bson.M{"category": bson.M{"$ne": "Apparel"}}, want: false},
		{name: "missing field", filter: bson.M{"color": "red"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(doc, tt.filter, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyUpdate(t *testing.T) {
	type review struct {
		Name  string  `bson:"name"`
		Stars float64 `bson:"stars"`
	}

	doc := bson.M{"_id": int64(1)}
	require.NoError(t, ApplyUpdate(doc, bson.M{"$push": bson.M{"reviews": review{Name: "ann", Stars: 4}}}))
	require.NoError(t, ApplyUpdate(doc, bson.M{"$push": bson.M{"reviews": review{Name: "bob", Stars: 5}}}))
	require.NoError(t, ApplyUpdate(doc, bson.M{"$set": bson.M{"stars": 4.5}}))

	reviews, ok := doc["reviews"].(bson.A)
	require.True(t, ok)
	require.Len(t, reviews, 2)
	assert.Equal(t, "ann", reviews[0].(bson.M)["name"])
	assert.Equal(t, "bob", reviews[1].(bson.M)["name"])
	assert.Equal(t, 4.5, doc["stars"])

	err := ApplyUpdate(bson.M{"reviews": "oops"}, bson.M{"$push": bson.M{"reviews": 1}})
	assert.True(t, errors.IsValidationError(err))

	err = ApplyUpdate(doc, bson.M{"$inc": bson.M{"stars": 1}})
	assert.True(t, errors.IsValidationError(err))
}

func TestDecode(t *testing.T) {
	type item struct {
		ID    int64   `bson:"_id"`
		Title string  `bson:"title"`
		Price float64 `bson:"price"`
	}

	got, err := Decode[item](bson.M{"_id": float64(3), "title": "Coffee Mug", "price": int32(9)})
	require.NoError(t, err)
	assert.Equal(t, item{ID: 3, Title: "Coffee Mug", Price: 9}, got)
}
