/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"testing"

	"github.com/suparena/itemstore/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFindOptions(t *testing.T) {
	testCases := []struct {
		name       string
		params     *storagemodels.FindParams
		wantFilter bson.M
		wantLimit  *int64
		wantSort   bool
	}{
		{
			name:       "NilParams",
			params:     nil,
			wantFilter: bson.M{},
		},
		{
			name:       "NilFilter",
			params:     &storagemodels.FindParams{},
			wantFilter: bson.M{},
		},
		{
			name: "FilterSortLimit",
			params: &storagemodels.FindParams{
				Filter: bson.M{"category": "Apparel"},
				Sort:   bson.D{{Key: "_id", Value: 1}},
				Limit:  4,
			},
			wantFilter: bson.M{"category": "Apparel"},
			wantLimit:  int64Ptr(4),
			wantSort:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filter, opts := findOptions(tc.params)

			if len(filter) != len(tc.wantFilter) {
				t.Errorf("expected filter %v, got %v", tc.wantFilter, filter)
			}
			for k, v := range tc.wantFilter {
				if filter[k] != v {
					t.Errorf("expected filter[%s] = %v, got %v", k, v, filter[k])
				}
			}

			switch {
			case tc.wantLimit == nil && opts.Limit != nil:
				t.Errorf("expected no limit, got %d", *opts.Limit)
			case tc.wantLimit != nil && (opts.Limit == nil || *opts.Limit != *tc.wantLimit):
				t.Errorf("expected limit %d, got %v", *tc.wantLimit, opts.Limit)
			}

			if tc.wantSort != (opts.Sort != nil) {
				t.Errorf("expected sort set = %v, got %v", tc.wantSort, opts.Sort)
			}
		})
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
