/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Pipeline is an ordered list of aggregation stages, each a single-key document
// such as {$match: {...}} or {$limit: 10}.
type Pipeline []bson.D

// FindParams defines parameters for a Find operation.
// Used for both regular finds and streaming finds.
type FindParams struct {
	// Filter selects documents; nil or empty matches everything.
	Filter bson.M
	// Sort is an optional ordered sort specification, e.g. {_id: 1}.
	Sort bson.D
	// Limit caps the number of documents returned; zero means no limit.
	Limit int64
}
