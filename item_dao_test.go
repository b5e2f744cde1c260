/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/itemstore/catalogmodels"
	"github.com/suparena/itemstore/datastore/mock"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// scriptedStore records pipelines and can replace Aggregate results.
type scriptedStore struct {
	*mock.DataStore[catalogmodels.Item]

	mu        sync.Mutex
	pipelines []storagemodels.Pipeline
	rows      []bson.M
}

func (s *scriptedStore) Aggregate(ctx context.Context, p storagemodels.Pipeline) ([]bson.M, error) {
	s.mu.Lock()
	s.pipelines = append(s.pipelines, p)
	rows := s.rows
	s.mu.Unlock()

	if rows != nil {
		return rows, nil
	}
	return s.DataStore.Aggregate(ctx, p)
}

func (s *scriptedStore) lastPipeline() storagemodels.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipelines[len(s.pipelines)-1]
}

func newTestDAO(t *testing.T, items ...catalogmodels.Item) (*ItemDAO, *scriptedStore) {
	t.Helper()
	store := &scriptedStore{DataStore: mock.New[catalogmodels.Item]()}
	require.NoError(t, store.SetDocuments(items...))
	return NewItemDAO(store), store
}

func item(id int64, category, title string) catalogmodels.Item {
	return catalogmodels.Item{ID: id, Category: category, Title: title, Price: float64(id)}
}

func ids(items []catalogmodels.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestGetCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("TwoCategories", func(t *testing.T) {
		dao, _ := newTestDAO(t, item(1, "Apparel", "Hoodie"), item(2, "Electronics", "Phone"))

		categories, err := dao.GetCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []catalogmodels.Category{
			{ID: "All", Num: 2},
			{ID: "Apparel", Num: 1},
			{ID: "Electronics", Num: 1},
		}, categories)
	})

	t.Run("AllSortsAlphabetically", func(t *testing.T) {
		dao, _ := newTestDAO(t,
			item(1, "Swag", "Stickers"),
			item(2, "Accessories", "Belt"),
			item(3, "books", "Go"),
			item(4, "Swag", "Pins"),
		)

		categories, err := dao.GetCategories(ctx)
		require.NoError(t, err)

		var labels []string
		for _, c := range categories {
			labels = append(labels, c.ID)
		}
		assert.Equal(t, []string{"Accessories", "All", "Swag", "books"}, labels)
	})

	t.Run("AllIsSumOfOthers", func(t *testing.T) {
		var items []catalogmodels.Item
		for i := int64(1); i <= 23; i++ {
			items = append(items, item(i, fmt.Sprintf("cat-%d", i%5), "x"))
		}
		dao, _ := newTestDAO(t, items...)

		categories, err := dao.GetCategories(ctx)
		require.NoError(t, err)

		var sum, all int64
		for _, c := range categories {
			if c.ID == catalogmodels.AllCategory {
				all = c.Num
				continue
			}
			sum += c.Num
		}
		assert.Equal(t, int64(23), all)
		assert.Equal(t, all, sum)
	})

	t.Run("EmptyStore", func(t *testing.T) {
		dao, _ := newTestDAO(t)

		categories, err := dao.GetCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []catalogmodels.Category{{ID: "All", Num: 0}}, categories)
	})

	t.Run("MalformedCount", func(t *testing.T) {
		dao, store := newTestDAO(t)
		store.rows = []bson.M{{"_id": "Apparel", "num": "many"}}

		_, err := dao.GetCategories(ctx)
		assert.True(t, errors.IsMalformedResult(err), "got %v", err)
	})
}

func TestGetItems(t *testing.T) {
	ctx := context.Background()

	var items []catalogmodels.Item
	// Insert out of order so the id sort is observable.
	for _, id := range []int64{5, 2, 9, 1, 7, 3, 8, 4, 6} {
		category := "Apparel"
		if id%3 == 0 {
			category = "Kitchen"
		}
		items = append(items, item(id, category, fmt.Sprintf("item %d", id)))
	}
	dao, store := newTestDAO(t, items...)

	t.Run("PagesPartitionCategory", func(t *testing.T) {
		var seen []int64
		for page := 0; page < 4; page++ {
			got, err := dao.GetItems(ctx, "Apparel", page, 4)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), 4)
			for _, it := range got {
				assert.Equal(t, "Apparel", it.Category)
			}
			seen = append(seen, ids(got)...)
		}
		assert.Equal(t, []int64{1, 2, 4, 5, 7, 8}, seen)
	})

	t.Run("AllSpansEverything", func(t *testing.T) {
		got, err := dao.GetItems(ctx, catalogmodels.AllCategory, 1, 4)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 6, 7, 8}, ids(got))

		for _, stage := range store.lastPipeline() {
			assert.NotEqual(t, "$match", stage[0].Key, "All must not filter by category")
		}
	})

	t.Run("PageBeyondEnd", func(t *testing.T) {
		got, err := dao.GetItems(ctx, "Kitchen", 5, 2)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		got, err := dao.GetItems(ctx, "Toys", 0, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ProjectsWhitelist", func(t *testing.T) {
		_, err := dao.GetItems(ctx, "Apparel", 0, 2)
		require.NoError(t, err)

		p := store.lastPipeline()
		last := p[len(p)-1]
		require.Equal(t, "$project", last[0].Key)

		var fields []string
		for _, e := range last[0].Value.(bson.D) {
			fields = append(fields, e.Key)
		}
		assert.Equal(t, catalogmodels.ItemFields, fields)
	})

	t.Run("PipelineShape", func(t *testing.T) {
		_, err := dao.GetItems(ctx, "Apparel", 2, 3)
		require.NoError(t, err)

		p := store.lastPipeline()
		require.Len(t, p, 5)
		assert.Equal(t, bson.D{{Key: "$match", Value: bson.D{{Key: "category", Value: "Apparel"}}}}, p[0])
		assert.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}}, p[1])
		assert.Equal(t, bson.D{{Key: "$skip", Value: int64(6)}}, p[2])
		assert.Equal(t, bson.D{{Key: "$limit", Value: int64(3)}}, p[3])
	})

	t.Run("NegativePageIsRejectedByStore", func(t *testing.T) {
		_, err := dao.GetItems(ctx, "Apparel", -1, 3)
		assert.True(t, errors.IsStoreFailure(err), "got %v", err)
	})
}

func TestGetNumItems(t *testing.T) {
	ctx := context.Background()
	dao, _ := newTestDAO(t,
		item(1, "Apparel", "a"),
		item(2, "Apparel", "b"),
		item(3, "Swag", "c"),
	)

	n, err := dao.GetNumItems(ctx, catalogmodels.AllCategory)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = dao.GetNumItems(ctx, "Apparel")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = dao.GetNumItems(ctx, "Toys")
	assert.True(t, errors.IsMalformedResult(err), "no matching items yields no count row, got %v", err)
}

func TestSearchItems(t *testing.T) {
	ctx := context.Background()
	hoodie := catalogmodels.DummyItem()
	dao, store := newTestDAO(t,
		hoodie,
		catalogmodels.Item{ID: 2, Title: "Coffee Mug", Category: "Kitchen", Description: "Holds hot coffee"},
		catalogmodels.Item{ID: 3, Title: "Travel Mug", Category: "Kitchen", Slogan: "Keeps coffee hot"},
		catalogmodels.Item{ID: 4, Title: "Stickers", Category: "Swag"},
	)

	got, err := dao.SearchItems(ctx, "coffee", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(got))

	got, err = dao.SearchItems(ctx, "coffee", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(got))

	p := store.lastPipeline()
	assert.Equal(t, bson.D{{Key: "$match", Value: bson.D{
		{Key: "$text", Value: bson.D{{Key: "$search", Value: "coffee"}}},
	}}}, p[0])

	n, err := dao.GetNumSearchItems(ctx, "cotton mug")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = dao.GetNumSearchItems(ctx, "bicycle")
	assert.True(t, errors.IsMalformedResult(err))
}

func TestGetItem(t *testing.T) {
	ctx := context.Background()
	dao, _ := newTestDAO(t, catalogmodels.DummyItem(), item(2, "Swag", "Stickers"))

	got, err := dao.GetItem(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, "Stickers", got.Title)

	got, err = dao.GetItem(ctx, 1)
	require.NoError(t, err)
	want := catalogmodels.DummyItem()
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Slogan, got.Slogan)
	assert.Equal(t, want.Price, got.Price)
	assert.Empty(t, got.Reviews)

	_, err = dao.GetItem(ctx, 99)
	assert.True(t, errors.IsNotFound(err), "got %v", err)
}

func TestGetRelatedItems(t *testing.T) {
	ctx := context.Background()

	var items []catalogmodels.Item
	for i := int64(1); i <= 6; i++ {
		items = append(items, item(i, "Apparel", "x"))
	}
	dao, _ := newTestDAO(t, items...)

	got, err := dao.GetRelatedItems(ctx)
	require.NoError(t, err)
	assert.Len(t, got, catalogmodels.RelatedItemsLimit)

	small, _ := newTestDAO(t, item(1, "Apparel", "x"))
	got, err = small.GetRelatedItems(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAddReview(t *testing.T) {
	ctx := context.Background()
	submitted := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	store := &scriptedStore{DataStore: mock.New[catalogmodels.Item]()}
	require.NoError(t, store.SetDocuments(catalogmodels.DummyItem(), item(2, "Swag", "Stickers")))
	dao := NewItemDAO(store, WithClock(func() time.Time { return submitted }))

	t.Run("ReturnsUpdatedItem", func(t *testing.T) {
		got, err := dao.AddReview(ctx, 1, "Very soft", "ann", 5)
		require.NoError(t, err)
		require.Len(t, got.Reviews, 1)
		assert.Equal(t, catalogmodels.Review{
			Name:    "ann",
			Comment: "Very soft",
			Stars:   5,
			Date:    submitted.UnixMilli(),
		}, got.Reviews[0])
	})

	t.Run("VisibleToGetItemInOrder", func(t *testing.T) {
		_, err := dao.AddReview(ctx, 1, "Runs small", "bob", 3)
		require.NoError(t, err)

		got, err := dao.GetItem(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got.Reviews, 2)
		assert.Equal(t, "ann", got.Reviews[0].Name)
		assert.Equal(t, "bob", got.Reviews[1].Name)
		assert.Equal(t, "Runs small", got.Reviews[1].Comment)
	})

	t.Run("ItemWithoutReviewList", func(t *testing.T) {
		got, err := dao.AddReview(ctx, 2, "Sticky", "cy", 4)
		require.NoError(t, err)
		assert.Len(t, got.Reviews, 1)
	})

	t.Run("UnknownItem", func(t *testing.T) {
		_, err := dao.AddReview(ctx, 404, "?", "dee", 1)
		assert.True(t, errors.IsNotFound(err), "got %v", err)
	})

	t.Run("ConcurrentAppendsAllLand", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := dao.AddReview(ctx, 2, fmt.Sprintf("c%d", i), "eve", 2)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := dao.GetItem(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, got.Reviews, 21)
	})
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	cause := stderrors.New("server selection timeout")
	store := mock.New[catalogmodels.Item]().
		WithAggregateError(cause).
		WithFindError(cause).
		WithUpdateError(cause)
	dao := NewItemDAO(store)

	checks := map[string]func() error{
		"GetCategories": func() error { _, err := dao.GetCategories(ctx); return err },
		"GetItems":      func() error { _, err := dao.GetItems(ctx, "All", 0, 5); return err },
		"GetNumItems":   func() error { _, err := dao.GetNumItems(ctx, "All"); return err },
		"SearchItems":   func() error { _, err := dao.SearchItems(ctx, "x", 0, 5); return err },
		"GetNumSearch":  func() error { _, err := dao.GetNumSearchItems(ctx, "x"); return err },
		"GetItem":       func() error { _, err := dao.GetItem(ctx, 1); return err },
		"GetRelated":    func() error { _, err := dao.GetRelatedItems(ctx); return err },
		"AddReview":     func() error { _, err := dao.AddReview(ctx, 1, "c", "n", 1); return err },
	}

	for name, call := range checks {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, errors.IsStoreFailure(err))
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestCreateDummyItem(t *testing.T) {
	dao, store := newTestDAO(t)

	got := dao.CreateDummyItem()
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Gray Hooded Sweatshirt", got.Title)
	assert.Empty(t, got.Reviews)
	assert.Equal(t, got, dao.CreateDummyItem())
	assert.Zero(t, store.Count(), "CreateDummyItem must not write to the store")
}

func TestDAOWithFuture(t *testing.T) {
	dao, _ := newTestDAO(t, item(1, "Apparel", "a"), item(2, "Swag", "b"))

	f := Go(context.Background(), dao.GetCategories)
	categories, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	done := make(chan int64, 1)
	Go(context.Background(), func(ctx context.Context) (int64, error) {
		return dao.GetNumItems(ctx, "Swag")
	}).Then(func(n int64, err error) {
		assert.NoError(t, err)
		done <- n
	})
	assert.Equal(t, int64(1), <-done)
}
