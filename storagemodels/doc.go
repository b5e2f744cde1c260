/*
Package storagemodels defines the data structures shared by itemstore backends.

Key Types:

Pipeline:
An ordered list of aggregation stages built with bson.D:

	p := storagemodels.Pipeline{
	    {{Key: "$match", Value: bson.M{"category": "Apparel"}}},
	    {{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	    {{Key: "$skip", Value: 10}},
	    {{Key: "$limit", Value: 5}},
	}

FindParams:
Parameters for plain finds and streams:

	params := &FindParams{
	    Filter: bson.M{"category": "Apparel"},
	    Sort:   bson.D{{Key: "_id", Value: 1}},
	    Limit:  4,
	}

StreamResult:
Results from streaming operations with metadata:

	type StreamResult[T any] struct {
	    Item  T          // The decoded document
	    Raw   bson.M     // Raw document
	    Error error      // Item-specific error, if any
	    Meta  StreamMeta // Metadata about this item
	}

StreamOptions:
Configuration for streaming behavior:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithBatchSize(25),
	    WithProgressHandler(progressFunc),
	}

These types provide a consistent interface across the MongoDB, DynamoDB and
in-memory backends.
*/
package storagemodels
