/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/itemstore/datastore/pipeline"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/logger"
	"github.com/suparena/itemstore/registry"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// KeyAttribute is the table's partition key attribute.
const KeyAttribute = "PK"

// Client is the subset of the DynamoDB API used by DynamodbDataStore.
type Client interface {
	sdk.ScanAPIClient
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
}

// DynamodbDataStore implements datastore.DataStore[T] on a single DynamoDB table.
// Documents are keyed by KeyAttribute, expanded from the registered key template.
type DynamodbDataStore[T any] struct {
	client      Client
	tableName   string
	keyTemplate string
	keyPrefix   string
	textFields  []string
	log         *logger.Logger
}

// Option configures a DynamodbDataStore.
type Option func(*settings)

type settings struct {
	log *logger.Logger
}

// WithLogger sets the logger used for client and store diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

func applyOptions(opts []Option) settings {
	s := settings{log: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros replaces each {field} in template with the document's field value.
func expandMacros(template string, doc bson.M) (string, error) {
	var missing []string

	expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
		key := strings.Trim(macro, "{}")

		val, err := attributevalue.Marshal(doc[key])
		if err != nil {
			missing = append(missing, key)
			return ""
		}

		switch tv := val.(type) {
		case *types.AttributeValueMemberS:
			return tv.Value
		case *types.AttributeValueMemberN:
			return tv.Value
		case *types.AttributeValueMemberBOOL:
			return strconv.FormatBool(tv.Value)
		default:
			missing = append(missing, key)
			return ""
		}
	})

	if len(missing) > 0 {
		return "", errors.NewValidationError(strings.Join(missing, ","), "key template field is missing or not a scalar")
	}
	return expanded, nil
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are used when
// accessKey is set, otherwise the default credential chain applies.
func NewDynamoDBClient(ctx context.Context, accessKey, secretKey, region string, log *logger.Logger) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg)

	log.Info("DynamoDB client initialized", zap.String("region", region))
	return client, nil
}

// NewDynamodbDataStore creates a client and returns a store for T on tableName.
func NewDynamodbDataStore[T any](ctx context.Context, accessKey, secretKey, region, tableName string, opts ...Option) (*DynamodbDataStore[T], error) {
	s := applyOptions(opts)

	client, err := NewDynamoDBClient(ctx, accessKey, secretKey, region, s.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return NewFromClient[T](client, tableName, opts...)
}

// NewFromClient returns a store for T over an existing client.
func NewFromClient[T any](client Client, tableName string, opts ...Option) (*DynamodbDataStore[T], error) {
	c, ok := registry.GetCollection[T]()
	if !ok || c.KeyTemplate == "" {
		var zero T
		return nil, fmt.Errorf("no key template registered for %T", zero)
	}

	s := applyOptions(opts)
	prefix := c.KeyTemplate
	if i := strings.Index(prefix, "{"); i >= 0 {
		prefix = prefix[:i]
	}

	return &DynamodbDataStore[T]{
		client:      client,
		tableName:   tableName,
		keyTemplate: c.KeyTemplate,
		keyPrefix:   prefix,
		textFields:  c.TextFields,
		log:         s.log.With(zap.String("table", tableName)),
	}, nil
}

func (d *DynamodbDataStore[T]) options() pipeline.Options {
	return pipeline.Options{TextFields: d.textFields}
}

func (d *DynamodbDataStore[T]) keyFor(doc bson.M) (map[string]types.AttributeValue, error) {
	pk, err := expandMacros(d.keyTemplate, doc)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: pk},
	}, nil
}

// Put stores entity under the key expanded from its fields, replacing any existing item.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	doc, err := pipeline.Encode(entity)
	if err != nil {
		return errors.NewValidationError("entity", err.Error())
	}
	// Absent and null are the same to callers; storing NULL would break list_append.
	for k, v := range doc {
		if v == nil {
			delete(doc, k)
		}
	}

	key, err := d.keyFor(doc)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return errors.NewValidationError("entity", fmt.Sprintf("failed to marshal entity: %v", err))
	}
	for k, v := range key {
		av[k] = v
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	})
	return errors.NewStoreError("put", err)
}

// Update applies update to the first document matching filter. No match is not an error.
func (d *DynamodbDataStore[T]) Update(ctx context.Context, filter bson.M, update bson.M) error {
	_, err := d.updateOne(ctx, "update", filter, update, types.ReturnValueNone)
	return err
}

// FindOneAndUpdate applies update to the first matching document and returns it post-update.
func (d *DynamodbDataStore[T]) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (*T, error) {
	out, err := d.updateOne(ctx, "findOneAndUpdate", filter, update, types.ReturnValueAllNew)
	if err != nil {
		return nil, err
	}
	if out == nil {
		var zero T
		return nil, errors.NewNotFoundError(fmt.Sprintf("%T", zero), fmt.Sprint(filter))
	}

	doc, err := itemToDocument(out.Attributes)
	if err != nil {
		return nil, errors.NewStoreError("findOneAndUpdate", err)
	}
	v, err := pipeline.Decode[T](doc)
	if err != nil {
		return nil, errors.NewStoreError("findOneAndUpdate", err)
	}
	return &v, nil
}

// updateOne returns nil output when no document matches filter.
func (d *DynamodbDataStore[T]) updateOne(
	ctx context.Context,
	op string,
	filter bson.M,
	update bson.M,
	returnValues types.ReturnValue,
) (*sdk.UpdateItemOutput, error) {
	target, err := d.resolveTarget(ctx, filter)
	if err != nil {
		return nil, errors.NewStoreError(op, err)
	}
	if target == nil {
		return nil, nil
	}

	key, err := d.keyFor(target)
	if err != nil {
		return nil, errors.NewStoreError(op, err)
	}

	updateExpr, exprAttrNames, exprAttrValues, err := buildUpdateExpression(update)
	if err != nil {
		return nil, errors.NewStoreError(op, err)
	}
	exprAttrNames["#pk"] = KeyAttribute
	condition := "attribute_exists(#pk)"

	out, err := d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 &d.tableName,
		Key:                       key,
		UpdateExpression:          &updateExpr,
		ConditionExpression:       &condition,
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
		ReturnValues:              returnValues,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			d.log.Debug("update matched no item", zap.String("op", op))
			return nil, nil
		}
		return nil, errors.NewStoreError(op, err)
	}
	return out, nil
}

// resolveTarget returns a document carrying the key fields of the first match.
// Filters on _id alone address the item directly; anything else scans.
func (d *DynamodbDataStore[T]) resolveTarget(ctx context.Context, filter bson.M) (bson.M, error) {
	if id, ok := filter["_id"]; ok && len(filter) == 1 {
		switch id.(type) {
		case bson.M, bson.D, map[string]interface{}:
		default:
			return bson.M{"_id": id}, nil
		}
	}

	docs, err := d.scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		ok, err := pipeline.Match(doc, filter, d.options())
		if err != nil {
			return nil, err
		}
		if ok {
			return doc, nil
		}
	}
	return nil, nil
}

// buildUpdateExpression transforms $set and $push operators into a SET update expression
// with its attribute name and value placeholders. Fields are emitted in sorted order.
func buildUpdateExpression(update bson.M) (string,
	map[string]string,
	map[string]types.AttributeValue,
	error) {

	if len(update) == 0 {
		return "", nil, nil, errors.NewValidationError("", "update document must not be empty")
	}

	ops := make([]string, 0, len(update))
	for op := range update {
		if op != "$set" && op != "$push" {
			return "", nil, nil, errors.NewValidationError(op, "unsupported update operator")
		}
		ops = append(ops, op)
	}
	sort.Strings(ops)

	setClauses := make([]string, 0)
	exprAttrNames := make(map[string]string)
	exprAttrValues := make(map[string]types.AttributeValue)

	i := 0
	for _, op := range ops {
		var fields bson.M
		switch tv := update[op].(type) {
		case bson.M:
			fields = tv
		case map[string]interface{}:
			fields = tv
		default:
			return "", nil, nil, errors.NewValidationError(op, fmt.Sprintf("operator argument must be a document, got %T", tv))
		}

		names := make([]string, 0, len(fields))
		for field := range fields {
			names = append(names, field)
		}
		sort.Strings(names)

		for _, field := range names {
			value, err := pipeline.Normalize(fields[field])
			if err != nil {
				return "", nil, nil, err
			}
			if op == "$push" {
				value = bson.A{value}
			}
			av, err := attributevalue.Marshal(value)
			if err != nil {
				return "", nil, nil, errors.NewValidationError(field, fmt.Sprintf("unable to marshal value: %v", err))
			}

			placeholderName := fmt.Sprintf("#f%d", i)
			placeholderValue := fmt.Sprintf(":v%d", i)
			exprAttrNames[placeholderName] = field
			exprAttrValues[placeholderValue] = av

			if op == "$push" {
				exprAttrValues[":empty"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
				setClauses = append(setClauses, fmt.Sprintf("%s = list_append(if_not_exists(%s, :empty), %s)",
					placeholderName, placeholderName, placeholderValue))
			} else {
				setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))
			}
			i++
		}
	}

	if len(setClauses) == 0 {
		return "", nil, nil, errors.NewValidationError("", "update document names no fields")
	}
	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}
