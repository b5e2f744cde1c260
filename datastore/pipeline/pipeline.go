/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pipeline

import (
	"fmt"
	"sort"

	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

// Options carries the collection metadata stage evaluation needs.
type Options struct {
	// TextFields are the fields searched by $text. Empty means no text index.
	TextFields []string
}

// Run evaluates stages over docs in order and returns the resulting documents.
// docs is not modified.
func Run(docs []bson.M, stages storagemodels.Pipeline, opts Options) ([]bson.M, error) {
	current := make([]bson.M, len(docs))
	copy(current, docs)

	for _, stage := range stages {
		if len(stage) != 1 {
			return nil, errors.NewValidationError("", fmt.Sprintf("stage must have exactly one field, got %d", len(stage)))
		}
		name, spec := stage[0].Key, stage[0].Value

		var err error
		switch name {
		case "$match":
			current, err = matchStage(current, spec, opts)
		case "$group":
			current, err = groupStage(current, spec)
		case "$sort":
			current, err = sortStage(current, spec)
		case "$skip":
			current, err = skipStage(current, spec)
		case "$limit":
			current, err = limitStage(current, spec)
		case "$count":
			current, err = countStage(current, spec)
		case "$project":
			current, err = projectStage(current, spec)
		default:
			err = errors.NewValidationError(name, "unsupported stage")
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

func matchStage(docs []bson.M, spec interface{}, opts Options) ([]bson.M, error) {
	filter, err := toM(spec)
	if err != nil {
		return nil, errors.NewValidationError("$match", err.Error())
	}
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		ok, err := Match(doc, filter, opts)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func groupStage(docs []bson.M, spec interface{}) ([]bson.M, error) {
	groupSpec, err := toM(spec)
	if err != nil {
		return nil, errors.NewValidationError("$group", err.Error())
	}
	idExpr, ok := groupSpec["_id"]
	if !ok {
		return nil, errors.NewValidationError("$group", "a group specification must include an _id")
	}

	type accumulator struct {
		field string
		sum   number
	}
	type group struct {
		id   interface{}
		accs []*accumulator
	}

	// Accumulator fields in a stable order so output documents are deterministic.
	fields := make([]string, 0, len(groupSpec))
	for field := range groupSpec {
		if field != "_id" {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	operands := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		accSpec, err := toM(groupSpec[field])
		if err != nil || len(accSpec) != 1 {
			return nil, errors.NewValidationError(field, "accumulator must be a single-operator document")
		}
		operand, ok := accSpec["$sum"]
		if !ok {
			return nil, errors.NewValidationError(field, "unsupported accumulator")
		}
		operands[field] = operand
	}

	var groups []*group
	for _, doc := range docs {
		id := evalExpr(idExpr, doc)

		var g *group
		for _, candidate := range groups {
			if Equal(candidate.id, id) {
				g = candidate
				break
			}
		}
		if g == nil {
			g = &group{id: id}
			for _, field := range fields {
				g.accs = append(g.accs, &accumulator{field: field})
			}
			groups = append(groups, g)
		}

		for _, acc := range g.accs {
			if n, ok := toNumber(evalExpr(operands[acc.field], doc)); ok {
				acc.sum = acc.sum.add(n)
			}
		}
	}

	out := make([]bson.M, 0, len(groups))
	for _, g := range groups {
		doc := bson.M{"_id": g.id}
		for _, acc := range g.accs {
			doc[acc.field] = acc.sum.value()
		}
		out = append(out, doc)
	}
	return out, nil
}

func sortStage(docs []bson.M, spec interface{}) ([]bson.M, error) {
	keys, err := toD(spec)
	if err != nil || len(keys) == 0 {
		return nil, errors.NewValidationError("$sort", "sort specification must be a non-empty document")
	}
	dirs := make([]int, len(keys))
	for i, key := range keys {
		n, ok := toInt64(key.Value)
		if !ok || (n != 1 && n != -1) {
			return nil, errors.NewValidationError(key.Key, "sort direction must be 1 or -1")
		}
		dirs[i] = int(n)
	}

	out := make([]bson.M, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		for k, key := range keys {
			c := Compare(lookup(out[i], key.Key), lookup(out[j], key.Key))
			if c != 0 {
				return c*dirs[k] < 0
			}
		}
		return false
	})
	return out, nil
}

func skipStage(docs []bson.M, spec interface{}) ([]bson.M, error) {
	n, ok := toInt64(spec)
	if !ok || n < 0 {
		return nil, errors.NewValidationError("$skip", "skip must be a non-negative integer")
	}
	if n >= int64(len(docs)) {
		return []bson.M{}, nil
	}
	return docs[n:], nil
}

func limitStage(docs []bson.M, spec interface{}) ([]bson.M, error) {
	n, ok := toInt64(spec)
	if !ok || n <= 0 {
		return nil, errors.NewValidationError("$limit", "limit must be positive")
	}
	if n < int64(len(docs)) {
		return docs[:n], nil
	}
	return docs, nil
}

func countStage(docs []bson.M, spec interface{}) ([]bson.M, error) {
	field, ok := spec.(string)
	if !ok || field == "" || field[0] == '$' {
		return nil, errors.NewValidationError("$count", "count field must be a non-empty string not starting with $")
	}
	// An empty input yields no row at all, matching MongoDB.
	if len(docs) == 0 {
		return []bson.M{}, nil
	}
	return []bson.M{{field: int32(len(docs))}}, nil
}

func projectStage(docs []bson.M, spec interface{}) ([]bson.M, error) {
	projection, err := toM(spec)
	if err != nil || len(projection) == 0 {
		return nil, errors.NewValidationError("$project", "projection must be a non-empty document")
	}

	include := true
	keepID := true
	decided := false
	for field, v := range projection {
		on := truthy(v)
		if field == "_id" {
			keepID = on
			continue
		}
		if decided && on != include {
			return nil, errors.NewValidationError(field, "cannot mix inclusion and exclusion")
		}
		include, decided = on, true
	}
	if !decided {
		// Only _id was given.
		include = keepID
	}

	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		shaped := bson.M{}
		if include {
			for field := range projection {
				if field == "_id" {
					continue
				}
				if v, ok := doc[field]; ok {
					shaped[field] = v
				}
			}
		} else {
			for field, v := range doc {
				if p, ok := projection[field]; ok && !truthy(p) {
					continue
				}
				shaped[field] = v
			}
		}
		if keepID {
			if v, ok := doc["_id"]; ok {
				shaped["_id"] = v
			}
		} else {
			delete(shaped, "_id")
		}
		out = append(out, shaped)
	}
	return out, nil
}

// evalExpr resolves "$field" references against doc and returns anything else as a constant.
func evalExpr(expr interface{}, doc bson.M) interface{} {
	if s, ok := expr.(string); ok && len(s) > 1 && s[0] == '$' {
		return lookup(doc, s[1:])
	}
	return expr
}

func truthy(v interface{}) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case nil:
		return false
	}
	if n, ok := toNumber(v); ok {
		return !n.isZero()
	}
	return true
}
