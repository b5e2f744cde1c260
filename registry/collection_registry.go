/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
)

// Collection describes where documents of a Go type live and how backends address them.
type Collection struct {
	// Name is the logical collection (MongoDB collection, DynamoDB table prefix).
	Name string
	// TextFields are the string fields covered by the collection's text index.
	TextFields []string
	// KeyTemplate builds a backend key from document fields, e.g. "ITEM#{_id}".
	KeyTemplate string
}

var (
	collectionRegistry = make(map[reflect.Type]Collection)
	mu                 sync.RWMutex
)

// RegisterCollection associates a Go type T with its collection description.
func RegisterCollection[T any](c Collection) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	collectionRegistry[t] = c
}

// GetCollection retrieves the collection description for type T, if any.
func GetCollection[T any]() (Collection, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	c, ok := collectionRegistry[t]
	return c, ok
}
