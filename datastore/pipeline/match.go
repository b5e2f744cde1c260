/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pipeline

import (
	"strings"
	"unicode"

	"github.com/suparena/itemstore/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Match reports whether doc satisfies filter. All top-level conditions must hold.
func Match(doc bson.M, filter bson.M, opts Options) (bool, error) {
	for field, expected := range filter {
		if field == "$text" {
			ok, err := matchText(doc, expected, opts)
			if err != nil || !ok {
				return false, err
			}
			continue
		}
		if strings.HasPrefix(field, "$") {
			return false, errors.NewValidationError(field, "unsupported query operator")
		}

		actual := lookup(doc, field)
		if ops, ok := operatorDoc(expected); ok {
			matched, err := matchOperators(actual, ops)
			if err != nil || !matched {
				return false, err
			}
			continue
		}
		if !Equal(actual, expected) {
			return false, nil
		}
	}
	return true, nil
}

// operatorDoc returns expected as a document when every key is a query operator.
func operatorDoc(expected interface{}) (bson.M, bool) {
	m, err := toM(expected)
	if err != nil || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchOperators(actual interface{}, ops bson.M) (bool, error) {
	for op, operand := range ops {
		var ok bool
		switch op {
		case "$eq":
			ok = Equal(actual, operand)
		case "$ne":
			ok = !Equal(actual, operand)
		case "$gt":
			ok = typeRank(actual) == typeRank(operand) && Compare(actual, operand) > 0
		case "$gte":
			ok = typeRank(actual) == typeRank(operand) && Compare(actual, operand) >= 0
		case "$lt":
			ok = typeRank(actual) == typeRank(operand) && Compare(actual, operand) < 0
		case "$lte":
			ok = typeRank(actual) == typeRank(operand) && Compare(actual, operand) <= 0
		case "$in":
			values, isList := operand.(bson.A)
			if !isList {
				if raw, isRaw := operand.([]interface{}); isRaw {
					values, isList = bson.A(raw), true
				}
			}
			if !isList {
				return false, errors.NewValidationError("$in", "needs an array")
			}
			for _, v := range values {
				if Equal(actual, v) {
					ok = true
					break
				}
			}
		default:
			return false, errors.NewValidationError(op, "unsupported query operator")
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// matchText approximates a MongoDB text index: the query is split into terms and a
// document matches when any term equals a word of any indexed field, ignoring case.
func matchText(doc bson.M, spec interface{}, opts Options) (bool, error) {
	if len(opts.TextFields) == 0 {
		return false, errors.NewValidationError("$text", "text index required for $text query")
	}
	textSpec, err := toM(spec)
	if err != nil {
		return false, errors.NewValidationError("$text", err.Error())
	}
	search, ok := textSpec["$search"].(string)
	if !ok {
		return false, errors.NewValidationError("$search", "must be a string")
	}

	terms := tokenize(search)
	if len(terms) == 0 {
		return false, nil
	}

	for _, field := range opts.TextFields {
		text, ok := lookup(doc, field).(string)
		if !ok {
			continue
		}
		words := make(map[string]struct{})
		for _, w := range tokenize(text) {
			words[w] = struct{}{}
		}
		for _, term := range terms {
			if _, hit := words[term]; hit {
				return true, nil
			}
		}
	}
	return false, nil
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}
