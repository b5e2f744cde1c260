/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

All documents of a collection share one table. Each item carries a PK attribute
expanded from the collection's registered key template, with macros replaced by
document field values:

	registry.RegisterCollection[catalogmodels.Item](registry.Collection{
	    Name:        "item",
	    KeyTemplate: "ITEM#{_id}", // _id 7 becomes "ITEM#7"
	})

DynamoDB has no aggregation framework, so Aggregate and Find scan the items whose
PK starts with the template's static prefix and evaluate stages with the pipeline
package. Updates translate $set and $push into a single UpdateItem expression:

	SET #f0 = list_append(if_not_exists(#f0, :empty), :v0)

guarded by attribute_exists(PK), so an update never creates an item.

Streaming walks scan pages of the configured batch size:

	results := store.Stream(ctx, params,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithBatchSize(25),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        log.Printf("Processed %d items", p.ItemsProcessed)
	    }),
	)
*/
package ddb
