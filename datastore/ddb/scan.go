/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/itemstore/datastore/pipeline"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// scanInput restricts the scan to this collection's key prefix.
func (d *DynamodbDataStore[T]) scanInput(pageSize int32) *sdk.ScanInput {
	input := &sdk.ScanInput{
		TableName: &d.tableName,
	}
	if d.keyPrefix != "" {
		input.FilterExpression = aws.String("begins_with(#pk, :prefix)")
		input.ExpressionAttributeNames = map[string]string{"#pk": KeyAttribute}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: d.keyPrefix},
		}
	}
	if pageSize > 0 {
		input.Limit = aws.Int32(pageSize)
	}
	return input
}

// scan reads every document of the collection.
func (d *DynamodbDataStore[T]) scan(ctx context.Context) ([]bson.M, error) {
	paginator := sdk.NewScanPaginator(d.client, d.scanInput(0))

	docs := make([]bson.M, 0)
	pages := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan failed on page %d: %w", pages+1, err)
		}
		pages++

		for _, item := range out.Items {
			doc, err := itemToDocument(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}

	d.log.Debug("scanned collection", zap.Int("pages", pages), zap.Int("documents", len(docs)))
	return docs, nil
}

// Aggregate scans the collection and evaluates the pipeline in memory.
func (d *DynamodbDataStore[T]) Aggregate(ctx context.Context, p storagemodels.Pipeline) ([]bson.M, error) {
	docs, err := d.scan(ctx)
	if err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}
	out, err := pipeline.Run(docs, p, d.options())
	if err != nil {
		return nil, errors.NewStoreError("aggregate", err)
	}
	return out, nil
}

// Find scans the collection and returns the documents matching params, decoded into T.
func (d *DynamodbDataStore[T]) Find(ctx context.Context, params *storagemodels.FindParams) ([]T, error) {
	docs, err := d.scan(ctx)
	if err != nil {
		return nil, errors.NewStoreError("find", err)
	}
	docs, err = pipeline.Run(docs, pipeline.FindStages(params), d.options())
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

// itemToDocument converts a DynamoDB item into a document without the key attribute.
func itemToDocument(item map[string]types.AttributeValue) (bson.M, error) {
	return mapToDocument(item, KeyAttribute)
}

func mapToDocument(item map[string]types.AttributeValue, skip string) (bson.M, error) {
	doc := make(bson.M, len(item))
	for k, av := range item {
		if k == skip {
			continue
		}
		v, err := attributeToValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		doc[k] = v
	}
	return doc, nil
}

// attributeToValue maps attribute values onto the types bson decoding produces.
// Integral numbers become int64 so numeric keys compare the same as in MongoDB.
func attributeToValue(av types.AttributeValue) (interface{}, error) {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value, nil
	case *types.AttributeValueMemberN:
		return parseNumber(tv.Value)
	case *types.AttributeValueMemberBOOL:
		return tv.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return tv.Value, nil
	case *types.AttributeValueMemberL:
		arr := make(bson.A, 0, len(tv.Value))
		for _, elem := range tv.Value {
			v, err := attributeToValue(elem)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case *types.AttributeValueMemberM:
		return mapToDocument(tv.Value, "")
	case *types.AttributeValueMemberSS:
		arr := make(bson.A, 0, len(tv.Value))
		for _, s := range tv.Value {
			arr = append(arr, s)
		}
		return arr, nil
	case *types.AttributeValueMemberNS:
		arr := make(bson.A, 0, len(tv.Value))
		for _, s := range tv.Value {
			n, err := parseNumber(s)
			if err != nil {
				return nil, err
			}
			arr = append(arr, n)
		}
		return arr, nil
	case *types.AttributeValueMemberBS:
		arr := make(bson.A, 0, len(tv.Value))
		for _, b := range tv.Value {
			arr = append(arr, b)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value type %T", av)
	}
}

func parseNumber(s string) (interface{}, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}
