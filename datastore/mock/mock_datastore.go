/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the DataStore interface for testing
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suparena/itemstore/datastore/pipeline"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/registry"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// DataStore is an in-memory implementation of datastore.DataStore[T] for testing.
// Documents are kept in insertion order and evaluated with the pipeline package.
type DataStore[T any] struct {
	mu             sync.RWMutex
	docs           []bson.M
	textFields     []string
	aggregateError error
	findError      error
	updateError    error
	putError       error
}

// New creates a new mock DataStore. Text fields come from the registry entry for T, if any.
func New[T any]() *DataStore[T] {
	m := &DataStore[T]{}
	if c, ok := registry.GetCollection[T](); ok {
		m.textFields = c.TextFields
	}
	return m
}

// WithTextFields overrides the fields searched by $text
func (m *DataStore[T]) WithTextFields(fields ...string) *DataStore[T] {
	m.textFields = fields
	return m
}

// WithAggregateError makes Aggregate operations return an error
func (m *DataStore[T]) WithAggregateError(err error) *DataStore[T] {
	m.aggregateError = err
	return m
}

// WithFindError makes Find and Stream operations return an error
func (m *DataStore[T]) WithFindError(err error) *DataStore[T] {
	m.findError = err
	return m
}

// WithUpdateError makes Update and FindOneAndUpdate operations return an error
func (m *DataStore[T]) WithUpdateError(err error) *DataStore[T] {
	m.updateError = err
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.putError = err
	return m
}

func (m *DataStore[T]) options() pipeline.Options {
	return pipeline.Options{TextFields: m.textFields}
}

// snapshot deep-copies the stored documents so callers never alias internal state.
func (m *DataStore[T]) snapshot() ([]bson.M, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]bson.M, 0, len(m.docs))
	for _, doc := range m.docs {
		c, err := pipeline.Clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Aggregate runs the pipeline over all stored documents
func (m *DataStore[T]) Aggregate(ctx context.Context, p storagemodels.Pipeline) ([]bson.M, error) {
	if m.aggregateError != nil {
		return nil, errors.NewStoreError("aggregate", m.aggregateError)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}

	docs, err := m.snapshot()
	if err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}
	out, err := pipeline.Run(docs, p, m.options())
	if err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}
	return out, nil
}

// Find returns the documents matching params, decoded into T
func (m *DataStore[T]) Find(ctx context.Context, params *storagemodels.FindParams) ([]T, error) {
	if m.findError != nil {
		return nil, errors.NewStoreError("find", m.findError)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreError("find", err)
	}

	docs, err := m.find(params)
	if err != nil {
		return nil, errors.NewStoreError("find", err)
	}

	results := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := pipeline.Decode[T](doc)
		if err != nil {
			return nil, errors.NewStoreError("find", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func (m *DataStore[T]) find(params *storagemodels.FindParams) ([]bson.M, error) {
	docs, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	return pipeline.Run(docs, pipeline.FindStages(params), m.options())
}

// Update applies update to the first document matching filter. No match is not an error.
func (m *DataStore[T]) Update(ctx context.Context, filter bson.M, update bson.M) error {
	if m.updateError != nil {
		return errors.NewStoreError("update", m.updateError)
	}
	if err := ctx.Err(); err != nil {
		return errors.NewStoreError("update", err)
	}

	_, err := m.updateOne(filter, update)
	return errors.NewStoreError("update", err)
}

// FindOneAndUpdate applies update to the first matching document and returns it post-update
func (m *DataStore[T]) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (*T, error) {
	if m.updateError != nil {
		return nil, errors.NewStoreError("findOneAndUpdate", m.updateError)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreError("findOneAndUpdate", err)
	}

	doc, err := m.updateOne(filter, update)
	if err != nil {
		return nil, errors.NewStoreError("findOneAndUpdate", err)
	}
	if doc == nil {
		var zero T
		return nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), fmt.Sprint(filter))
	}

	v, err := pipeline.Decode[T](doc)
	if err != nil {
		return nil, errors.NewStoreError("findOneAndUpdate", err)
	}
	return &v, nil
}

// updateOne returns a copy of the updated document, or nil when nothing matched.
func (m *DataStore[T]) updateOne(filter bson.M, update bson.M) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, doc := range m.docs {
		ok, err := pipeline.Match(doc, filter, m.options())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		// Apply to a copy so a rejected update leaves the stored document untouched.
		updated, err := pipeline.Clone(doc)
		if err != nil {
			return nil, err
		}
		if err := pipeline.ApplyUpdate(updated, update); err != nil {
			return nil, err
		}
		m.docs[i] = updated
		return pipeline.Clone(updated)
	}
	return nil, nil
}

// Put inserts entity, replacing any stored document with the same _id
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	if m.putError != nil {
		return errors.NewStoreError("put", m.putError)
	}

	doc, err := pipeline.Encode(entity)
	if err != nil {
		return errors.NewValidationError("entity", err.Error())
	}
	id, ok := doc["_id"]
	if !ok {
		return errors.NewValidationError("_id", "unable to extract key from entity")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.docs {
		if pipeline.Equal(existing["_id"], id) {
			m.docs[i] = doc
			return nil
		}
	}
	m.docs = append(m.docs, doc)
	return nil
}

// Stream returns a channel of decoded documents matching params
func (m *DataStore[T]) Stream(ctx context.Context, params *storagemodels.FindParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultChan := make(chan storagemodels.StreamResult[T], options.BufferSize)

	go func() {
		defer close(resultChan)
		start := time.Now()

		var docs []bson.M
		var err error
		if m.findError != nil {
			err = m.findError
		} else {
			docs, err = m.find(params)
		}
		if err != nil {
			select {
			case <-ctx.Done():
			case resultChan <- storagemodels.StreamResult[T]{
				Error: errors.NewStoreError("stream", err),
				Meta:  storagemodels.StreamMeta{PageNumber: 1, Timestamp: time.Now()},
			}:
			}
			return
		}

		var errs []error
		for index, doc := range docs {
			result := storagemodels.StreamResult[T]{
				Raw: doc,
				Meta: storagemodels.StreamMeta{
					Index:      int64(index),
					PageNumber: 1,
					Timestamp:  time.Now(),
				},
			}
			result.Item, result.Error = pipeline.Decode[T](doc)
			if result.Error != nil {
				errs = append(errs, result.Error)
			}

			select {
			case <-ctx.Done():
				return
			case resultChan <- result:
			}

			if result.Error != nil && options.ErrorHandler != nil && !options.ErrorHandler(result.Error) {
				return
			}
		}

		if options.ProgressHandler != nil {
			options.ProgressHandler(storagemodels.NewProgress(int64(len(docs)), 1, errs, start))
		}
	}()

	return resultChan
}

// Helper methods for testing

// SetDocuments replaces the stored documents with encoded copies of entities
func (m *DataStore[T]) SetDocuments(entities ...T) error {
	docs := make([]bson.M, 0, len(entities))
	for _, e := range entities {
		doc, err := pipeline.Encode(e)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = docs
	return nil
}

// SetRawDocuments replaces the stored documents with raw BSON documents,
// for shapes T cannot express
func (m *DataStore[T]) SetRawDocuments(docs ...bson.M) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = docs
}

// Documents returns a copy of the stored documents
func (m *DataStore[T]) Documents() []bson.M {
	docs, _ := m.snapshot()
	return docs
}

// Count returns the number of stored documents
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Clear removes all documents
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
}
