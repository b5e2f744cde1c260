/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory table understanding the expressions DynamodbDataStore emits.
type fakeClient struct {
	mu      sync.Mutex
	items   map[string]map[string]types.AttributeValue
	scans   int
	updates []*sdk.UpdateItemInput
	scanErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func pkOf(item map[string]types.AttributeValue) string {
	if s, ok := item[KeyAttribute].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeClient) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.scanErr != nil {
		return nil, f.scanErr
	}

	prefix := ""
	if v, ok := in.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS); ok {
		prefix = v.Value
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := ""
	if in.ExclusiveStartKey != nil {
		start = pkOf(in.ExclusiveStartKey)
	}

	out := &sdk.ScanOutput{}
	evaluated := int32(0)
	last := ""
	for _, k := range keys {
		if start != "" && k <= start {
			continue
		}
		if in.Limit != nil && evaluated == aws.ToInt32(in.Limit) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				KeyAttribute: &types.AttributeValueMemberS{Value: last},
			}
			break
		}
		evaluated++
		last = k
		if strings.HasPrefix(k, prefix) {
			out.Items = append(out.Items, f.items[k])
		}
	}
	return out, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[pkOf(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

var clausePattern = regexp.MustCompile(`(#f\d+) = (?:list_append\(if_not_exists\(#f\d+, :empty\), (:v\d+)\)|(:v\d+))`)

func (f *fakeClient) UpdateItem(_ context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)

	pk := pkOf(in.Key)
	item, ok := f.items[pk]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	updated := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		updated[k] = v
	}
	for _, m := range clausePattern.FindAllStringSubmatch(aws.ToString(in.UpdateExpression), -1) {
		field := in.ExpressionAttributeNames[m[1]]
		if m[2] != "" {
			existing, _ := updated[field].(*types.AttributeValueMemberL)
			list := []types.AttributeValue{}
			if existing != nil {
				list = append(list, existing.Value...)
			}
			list = append(list, in.ExpressionAttributeValues[m[2]].(*types.AttributeValueMemberL).Value...)
			updated[field] = &types.AttributeValueMemberL{Value: list}
		} else {
			updated[field] = in.ExpressionAttributeValues[m[3]]
		}
	}
	f.items[pk] = updated

	out := &sdk.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = updated
	}
	return out, nil
}
