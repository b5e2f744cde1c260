/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/itemstore/datastore/pipeline"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// Stream walks the table's scan pages and delivers each matching document.
// A sort in params needs every document first, so sorted streams scan before emitting.
func (d *DynamodbDataStore[T]) Stream(ctx context.Context, params *storagemodels.FindParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)

	go d.streamWorker(ctx, params, options, resultCh)

	return resultCh
}

// streamWorker handles the actual streaming logic
func (d *DynamodbDataStore[T]) streamWorker(
	ctx context.Context,
	params *storagemodels.FindParams,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	startTime := time.Now()
	var errs []error

	reportProgress := func() {
		if options.ProgressHandler != nil {
			options.ProgressHandler(storagemodels.NewProgress(itemIndex, pageNumber, errs, startTime))
		}
	}

	// emit returns false when the stream must stop.
	emit := func(doc bson.M) bool {
		result := d.processItem(doc, itemIndex, pageNumber)
		itemIndex++

		select {
		case <-ctx.Done():
			return false
		case resultCh <- result:
		}

		if result.Error != nil {
			errs = append(errs, result.Error)
			if options.ErrorHandler != nil && !options.ErrorHandler(result.Error) {
				return false
			}
		}
		return true
	}

	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[T]{
			Error: errors.NewStoreError("stream", err),
			Meta: storagemodels.StreamMeta{
				Index:      itemIndex,
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			},
		}:
		}
	}

	var filter bson.M
	var limit int64
	sorted := false
	if params != nil {
		filter = params.Filter
		limit = params.Limit
		sorted = len(params.Sort) > 0
	}

	if sorted {
		docs, err := d.scan(ctx)
		if err != nil {
			fail(err)
			return
		}
		docs, err = pipeline.Run(docs, pipeline.FindStages(params), d.options())
		if err != nil {
			fail(err)
			return
		}
		for _, doc := range docs {
			if options.BatchSize <= 0 || itemIndex%int64(options.BatchSize) == 0 {
				pageNumber++
			}
			if !emit(doc) {
				return
			}
		}
		reportProgress()
		return
	}

	paginator := sdk.NewScanPaginator(d.client, d.scanInput(options.BatchSize))
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			fail(fmt.Errorf("scan failed on page %d: %w", pageNumber+1, err))
			return
		}
		pageNumber++

		for _, item := range out.Items {
			doc, err := itemToDocument(item)
			if err == nil && len(filter) > 0 {
				var ok bool
				ok, err = pipeline.Match(doc, filter, d.options())
				if err == nil && !ok {
					continue
				}
			}
			if err != nil {
				if !d.emitError(ctx, resultCh, err, item, itemIndex, pageNumber) {
					return
				}
				itemIndex++
				errs = append(errs, err)
				if options.ErrorHandler != nil && !options.ErrorHandler(err) {
					return
				}
				continue
			}

			if !emit(doc) {
				return
			}
			if limit > 0 && itemIndex >= limit {
				reportProgress()
				return
			}
		}

		reportProgress()
	}
}

func (d *DynamodbDataStore[T]) emitError(
	ctx context.Context,
	resultCh chan<- storagemodels.StreamResult[T],
	err error,
	item map[string]types.AttributeValue,
	index int64,
	pageNumber int,
) bool {
	raw, _ := mapToDocument(item, "")
	select {
	case <-ctx.Done():
		return false
	case resultCh <- storagemodels.StreamResult[T]{
		Raw:   raw,
		Error: err,
		Meta:  storagemodels.StreamMeta{Index: index, PageNumber: pageNumber, Timestamp: time.Now()},
	}:
		return true
	}
}

// processItem converts a document to a typed result
func (d *DynamodbDataStore[T]) processItem(doc bson.M, index int64, pageNumber int) storagemodels.StreamResult[T] {
	result := storagemodels.StreamResult[T]{
		Raw: doc,
		Meta: storagemodels.StreamMeta{
			Index:      index,
			PageNumber: pageNumber,
			Timestamp:  time.Now(),
		},
	}
	result.Item, result.Error = pipeline.Decode[T](doc)
	return result
}
