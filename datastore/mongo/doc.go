/*
Package mongo implements datastore.DataStore on MongoDB with the official Go driver.

The collection name and text index fields come from the registry entry for T.
Use NewMongoDataStore when the store should own its client, or NewFromDatabase
to share a database handle owned elsewhere:

	store, err := mongo.NewMongoDataStore[catalogmodels.Item](ctx, uri, "mongomart")
	if err != nil {
	    return err
	}
	defer store.Close(ctx)

	if err := store.EnsureIndexes(ctx); err != nil {
	    return err
	}

Aggregation pipelines run server-side unchanged. Driver errors are wrapped in
errors.StoreError; FindOneAndUpdate maps mongo.ErrNoDocuments to a not found error.
*/
package mongo
