/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pipeline

import (
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// FindStages translates find parameters into the equivalent aggregation stages.
func FindStages(params *storagemodels.FindParams) storagemodels.Pipeline {
	var p storagemodels.Pipeline
	if params == nil {
		return p
	}
	if len(params.Filter) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: params.Filter}})
	}
	if len(params.Sort) > 0 {
		p = append(p, bson.D{{Key: "$sort", Value: params.Sort}})
	}
	if params.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: params.Limit}})
	}
	return p
}
