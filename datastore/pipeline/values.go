/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pipeline

import (
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) add(o number) number {
	if n.isFloat || o.isFloat {
		return number{f: n.float() + o.float(), isFloat: true}
	}
	return number{i: n.i + o.i}
}

func (n number) isZero() bool {
	return n.float() == 0
}

// value narrows integral sums to int32 when they fit, as MongoDB does.
func (n number) value() interface{} {
	if n.isFloat {
		return n.f
	}
	if n.i >= math.MinInt32 && n.i <= math.MaxInt32 {
		return int32(n.i)
	}
	return n.i
}

func toNumber(v interface{}) (number, bool) {
	switch tv := v.(type) {
	case int:
		return number{i: int64(tv)}, true
	case int8:
		return number{i: int64(tv)}, true
	case int16:
		return number{i: int64(tv)}, true
	case int32:
		return number{i: int64(tv)}, true
	case int64:
		return number{i: tv}, true
	case uint8:
		return number{i: int64(tv)}, true
	case uint16:
		return number{i: int64(tv)}, true
	case uint32:
		return number{i: int64(tv)}, true
	case float32:
		return number{f: float64(tv), isFloat: true}, true
	case float64:
		return number{f: tv, isFloat: true}, true
	}
	return number{}, false
}

func toInt64(v interface{}) (int64, bool) {
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	if n.isFloat {
		if n.f != math.Trunc(n.f) {
			return 0, false
		}
		return int64(n.f), true
	}
	return n.i, true
}

func toM(v interface{}) (bson.M, error) {
	switch tv := v.(type) {
	case bson.M:
		return tv, nil
	case map[string]interface{}:
		return bson.M(tv), nil
	case bson.D:
		return tv.Map(), nil
	case nil:
		return bson.M{}, nil
	}
	return nil, fmt.Errorf("expected a document, got %T", v)
}

func toD(v interface{}) (bson.D, error) {
	switch tv := v.(type) {
	case bson.D:
		return tv, nil
	case bson.M:
		d := make(bson.D, 0, len(tv))
		for k, val := range tv {
			d = append(d, bson.E{Key: k, Value: val})
		}
		return d, nil
	case map[string]interface{}:
		return toD(bson.M(tv))
	}
	return nil, fmt.Errorf("expected a document, got %T", v)
}

// lookup resolves a dotted path such as "reviews.name" against doc's nested documents.
func lookup(doc bson.M, path string) interface{} {
	var current interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, err := toM(current)
		if err != nil {
			return nil
		}
		v, ok := m[part]
		if !ok {
			return nil
		}
		current = v
	}
	return current
}

// typeRank follows the MongoDB cross-type comparison order closely enough for sorting catalog documents.
func typeRank(v interface{}) int {
	if _, ok := toNumber(v); ok {
		return 2
	}
	switch v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return 1
	case string:
		return 3
	case bson.M, bson.D, map[string]interface{}:
		return 4
	case bson.A, []interface{}:
		return 5
	case primitive.ObjectID:
		return 6
	case bool:
		return 7
	case primitive.DateTime:
		return 8
	}
	return 9
}

// Compare orders two document values: negative when a < b, zero when equal, positive otherwise.
func Compare(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case 1:
		return 0
	case 2:
		na, _ := toNumber(a)
		nb, _ := toNumber(b)
		if !na.isFloat && !nb.isFloat {
			return cmpInt64(na.i, nb.i)
		}
		fa, fb := na.float(), nb.float()
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 6:
		return strings.Compare(a.(primitive.ObjectID).Hex(), b.(primitive.ObjectID).Hex())
	case 7:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case 8:
		return cmpInt64(int64(a.(primitive.DateTime)), int64(b.(primitive.DateTime)))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Equal reports whether two document values compare equal.
func Equal(a, b interface{}) bool {
	return Compare(a, b) == 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
