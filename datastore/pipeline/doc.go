/*
Package pipeline evaluates aggregation stages and update operators in memory.

Backends without a native aggregation engine (the DynamoDB scan backend and the
in-memory mock) load documents as bson.M and hand them to Run:

	out, err := pipeline.Run(docs, storagemodels.Pipeline{
	    {{Key: "$group", Value: bson.M{"_id": "$category", "num": bson.M{"$sum": 1}}}},
	}, pipeline.Options{TextFields: []string{"title"}})

Supported stages: $match (field equality, comparison operators and $text),
$group ($sum accumulators), $sort, $skip, $limit, $count and $project.
Supported update operators: $push and $set.

Anything else is rejected with an errors.ValidationError, the way a real store
rejects an unknown stage.
*/
package pipeline
