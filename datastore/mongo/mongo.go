/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/itemstore/datastore/pipeline"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/registry"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	sdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDataStore implements datastore.DataStore[T] on one MongoDB collection.
type MongoDataStore[T any] struct {
	// client is nil when the database handle is owned by the caller.
	client     *sdk.Client
	collection *sdk.Collection
	textFields []string
}

// NewMongoClient connects to MongoDB and verifies the primary is reachable.
func NewMongoClient(ctx context.Context, uri string) (*sdk.Client, error) {
	client, err := sdk.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// NewMongoDataStore connects to uri and returns a store for T's registered collection
// in database. The store owns the client; call Close when done.
func NewMongoDataStore[T any](ctx context.Context, uri, database string) (*MongoDataStore[T], error) {
	client, err := NewMongoClient(ctx, uri)
	if err != nil {
		return nil, err
	}

	store, err := NewFromDatabase[T](client.Database(database))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	store.client = client
	return store, nil
}

// NewFromDatabase returns a store over an already connected database handle.
// Close is a no-op for stores built this way.
func NewFromDatabase[T any](db *sdk.Database) (*MongoDataStore[T], error) {
	c, ok := registry.GetCollection[T]()
	if !ok {
		var zero T
		return nil, fmt.Errorf("no collection registered for %T", zero)
	}
	return &MongoDataStore[T]{
		collection: db.Collection(c.Name),
		textFields: c.TextFields,
	}, nil
}

// EnsureIndexes creates the text index over the registered text fields.
// $text stages fail until it exists.
func (m *MongoDataStore[T]) EnsureIndexes(ctx context.Context) error {
	if len(m.textFields) == 0 {
		return nil
	}
	keys := make(bson.D, 0, len(m.textFields))
	for _, f := range m.textFields {
		keys = append(keys, bson.E{Key: f, Value: "text"})
	}
	_, err := m.collection.Indexes().CreateOne(ctx, sdk.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(m.collection.Name() + "_text"),
	})
	return errors.NewStoreError("createIndex", err)
}

// Close disconnects the client if this store created it.
func (m *MongoDataStore[T]) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// Aggregate runs the pipeline on the server and returns every resulting document.
func (m *MongoDataStore[T]) Aggregate(ctx context.Context, p storagemodels.Pipeline) ([]bson.M, error) {
	stages := []bson.D(p)
	if stages == nil {
		stages = []bson.D{}
	}

	cur, err := m.collection.Aggregate(ctx, stages)
	if err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}

	var out []bson.M
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}
	return out, nil
}

func findOptions(params *storagemodels.FindParams) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	opts := options.Find()
	if params == nil {
		return filter, opts
	}
	if params.Filter != nil {
		filter = params.Filter
	}
	if len(params.Sort) > 0 {
		opts.SetSort(params.Sort)
	}
	if params.Limit > 0 {
		opts.SetLimit(params.Limit)
	}
	return filter, opts
}

// Find returns the documents matching params, decoded into T.
func (m *MongoDataStore[T]) Find(ctx context.Context, params *storagemodels.FindParams) ([]T, error) {
	filter, opts := findOptions(params)

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.NewStoreError("find", err)
	}

	results := []T{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, errors.NewStoreError("find", err)
	}
	return results, nil
}

// Update applies update to the first document matching filter. No match is not an error.
func (m *MongoDataStore[T]) Update(ctx context.Context, filter bson.M, update bson.M) error {
	_, err := m.collection.UpdateOne(ctx, filter, update)
	return errors.NewStoreError("update", err)
}

// FindOneAndUpdate applies update atomically and returns the document after the update.
func (m *MongoDataStore[T]) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (*T, error) {
	res := m.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	result := new(T)
	if err := res.Decode(result); err != nil {
		if err == sdk.ErrNoDocuments {
			var zero T
			return nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), fmt.Sprint(filter))
		}
		return nil, errors.NewStoreError("findOneAndUpdate", err)
	}
	return result, nil
}

// Put upserts entity by its _id.
func (m *MongoDataStore[T]) Put(ctx context.Context, entity T) error {
	doc, err := pipeline.Encode(entity)
	if err != nil {
		return errors.NewValidationError("entity", err.Error())
	}
	id, ok := doc["_id"]
	if !ok {
		return errors.NewValidationError("_id", "unable to extract key from entity")
	}

	_, err = m.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return errors.NewStoreError("put", err)
}

// Stream iterates a find cursor, delivering one decoded document per result.
func (m *MongoDataStore[T]) Stream(ctx context.Context, params *storagemodels.FindParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	streamOpts := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult[T], streamOpts.BufferSize)

	go m.streamWorker(ctx, params, streamOpts, resultCh)

	return resultCh
}

func (m *MongoDataStore[T]) streamWorker(
	ctx context.Context,
	params *storagemodels.FindParams,
	streamOpts storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	start := time.Now()
	var index int64
	var errs []error

	send := func(result storagemodels.StreamResult[T]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- result:
			return true
		}
	}
	pageOf := func(i int64) int {
		if streamOpts.BatchSize <= 0 {
			return 1
		}
		return int(i/int64(streamOpts.BatchSize)) + 1
	}

	filter, findOpts := findOptions(params)
	if streamOpts.BatchSize > 0 {
		findOpts.SetBatchSize(streamOpts.BatchSize)
	}

	cur, err := m.collection.Find(ctx, filter, findOpts)
	if err != nil {
		send(storagemodels.StreamResult[T]{
			Error: errors.NewStoreError("stream", err),
			Meta:  storagemodels.StreamMeta{Timestamp: time.Now()},
		})
		return
	}
	defer cur.Close(context.Background())

	for cur.Next(ctx) {
		var raw bson.M
		result := storagemodels.StreamResult[T]{
			Meta: storagemodels.StreamMeta{
				Index:      index,
				PageNumber: pageOf(index),
				Timestamp:  time.Now(),
			},
		}
		if err := cur.Decode(&raw); err != nil {
			result.Error = fmt.Errorf("failed to decode document: %w", err)
		} else {
			result.Raw = raw
			result.Error = cur.Decode(&result.Item)
		}
		index++

		if !send(result) {
			return
		}
		if result.Error != nil {
			errs = append(errs, result.Error)
			if streamOpts.ErrorHandler != nil && !streamOpts.ErrorHandler(result.Error) {
				return
			}
		}
		if streamOpts.ProgressHandler != nil && streamOpts.BatchSize > 0 && index%int64(streamOpts.BatchSize) == 0 {
			streamOpts.ProgressHandler(storagemodels.NewProgress(index, pageOf(index-1), errs, start))
		}
	}

	if err := cur.Err(); err != nil {
		send(storagemodels.StreamResult[T]{
			Error: errors.NewStoreError("stream", err),
			Meta:  storagemodels.StreamMeta{Index: index, PageNumber: pageOf(index), Timestamp: time.Now()},
		})
		return
	}

	if streamOpts.ProgressHandler != nil {
		pages := 0
		if index > 0 {
			pages = pageOf(index - 1)
		}
		streamOpts.ProgressHandler(storagemodels.NewProgress(index, pages, errs, start))
	}
}
