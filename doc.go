/*
Package itemstore is the data-access layer for a product catalog kept in a document store.

ItemDAO turns catalog intents into store requests and reshapes the results:

  - GetCategories: distinct categories with item counts, plus the synthetic "All"
  - GetItems / GetNumItems: id-ordered pages and counts per category ("All" means every item)
  - SearchItems / GetNumSearchItems: the same over a full-text query
  - GetItem / GetRelatedItems: single item lookup and up to four other items
  - AddReview: atomically append a review and return the updated item
  - CreateDummyItem: the fixed fixture item used for seeding

The store is any datastore.DataStore[catalogmodels.Item]; MongoDB, DynamoDB and
in-memory backends live under datastore/.

Basic Usage:

	store, _ := mongo.NewMongoDataStore[catalogmodels.Item](ctx, "mongodb://localhost:27017", "mongomart")
	dao := itemstore.NewItemDAO(store, itemstore.WithLogger(log))

	page, err := dao.GetItems(ctx, "Apparel", 0, 5)

	// Callback style
	itemstore.Go(ctx, dao.GetCategories).Then(func(cs []catalogmodels.Category, err error) {
	    ...
	})

Failures are explicit: see the errors package for telling a store failure, a
missing item and a malformed store result apart.
*/
package itemstore
