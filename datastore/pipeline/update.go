/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pipeline

import (
	"fmt"

	"github.com/suparena/itemstore/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// ApplyUpdate applies $push and $set operators to doc in place.
func ApplyUpdate(doc bson.M, update bson.M) error {
	if len(update) == 0 {
		return errors.NewValidationError("", "update document must not be empty")
	}
	for op, spec := range update {
		fields, err := toM(spec)
		if err != nil {
			return errors.NewValidationError(op, err.Error())
		}
		for field, raw := range fields {
			value, err := Normalize(raw)
			if err != nil {
				return err
			}
			switch op {
			case "$set":
				doc[field] = value
			case "$push":
				switch existing := doc[field].(type) {
				case nil:
					doc[field] = bson.A{value}
				case bson.A:
					doc[field] = append(existing, value)
				case []interface{}:
					doc[field] = append(bson.A(existing), value)
				default:
					return errors.NewValidationError(field, fmt.Sprintf("the field must be an array but is of type %T", existing))
				}
			default:
				return errors.NewValidationError(op, "unsupported update operator")
			}
		}
	}
	return nil
}

// Normalize converts Go values such as structs into their BSON document form.
func Normalize(v interface{}) (interface{}, error) {
	wrapped, err := Encode(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return wrapped["v"], nil
}

// Encode converts v into a bson.M using its bson struct tags.
func Encode(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// Decode converts a document into T using T's bson struct tags.
func Decode[T any](doc bson.M) (T, error) {
	var out T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode document into %T: %w", out, err)
	}
	return out, nil
}

// Clone returns a deep copy of doc.
func Clone(doc bson.M) (bson.M, error) {
	return Encode(doc)
}
