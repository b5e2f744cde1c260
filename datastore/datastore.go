/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

type DataStore[T any] interface {
	Aggregate(ctx context.Context, pipeline storagemodels.Pipeline) ([]bson.M, error)

	Find(ctx context.Context, params *storagemodels.FindParams) ([]T, error)

	Update(ctx context.Context, filter bson.M, update bson.M) error

	FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (*T, error)

	Put(ctx context.Context, entity T) error

	Stream(ctx context.Context, params *storagemodels.FindParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
}
