/*
Package datastore defines the document store capability the catalog DAO depends on.

The main interface is DataStore[T], a thin generic view over one collection:

	type DataStore[T any] interface {
	    Aggregate(ctx context.Context, pipeline storagemodels.Pipeline) ([]bson.M, error)
	    Find(ctx context.Context, params *storagemodels.FindParams) ([]T, error)
	    Update(ctx context.Context, filter bson.M, update bson.M) error
	    FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (*T, error)
	    Put(ctx context.Context, entity T) error
	    Stream(ctx context.Context, params *storagemodels.FindParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
	}

Update is fire-and-forget with respect to the matched count: a filter that
matches nothing is not an error. FindOneAndUpdate applies the update atomically
and returns the document as it is after the update, or a not found error.

Implementations:
  - mongo: MongoDB implementation on the official Go driver
  - ddb: DynamoDB implementation evaluating pipelines over table scans
  - mock: In-memory implementation for testing
  - pipeline: the in-memory stage evaluator shared by ddb and mock
*/
package datastore
