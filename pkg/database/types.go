package database

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldType is the semantic type of a row field.
type FieldType int

const (
	TypeBigint FieldType = iota + 1
	TypeInteger
	TypeSmallint
	TypeDouble
	TypeVarchar
	TypeBoolean
	TypeVarbinary
)

func (t FieldType) String() string {
	switch t {
	case TypeBigint:
		return "BIGINT"
	case TypeInteger:
		return "INTEGER"
	case TypeSmallint:
		return "SMALLINT"
	case TypeDouble:
		return "DOUBLE"
	case TypeVarchar:
		return "VARCHAR"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeVarbinary:
		return "VARBINARY"
	default:
		return fmt.Sprintf("TYPE(%d)", int(t))
	}
}

// Valid reports whether t is one of the declared field types.
func (t FieldType) Valid() bool {
	return t >= TypeBigint && t <= TypeVarbinary
}

// IsInteger reports whether values of t are carried as int64.
func (t FieldType) IsInteger() bool {
	return t == TypeBigint || t == TypeInteger || t == TypeSmallint
}

func (t FieldType) intRange() (int64, int64) {
	switch t {
	case TypeInteger:
		return math.MinInt32, math.MaxInt32
	case TypeSmallint:
		return math.MinInt16, math.MaxInt16
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// Coerce converts v into the canonical Go representation of t:
// int64 for integer types, float64, string, bool or []byte. nil stays nil.
func (t FieldType) Coerce(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case t.IsInteger():
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("cannot use %v (%T) as %s: %w", v, v, t, err)
		}
		lo, hi := t.intRange()
		if n < lo || n > hi {
			return nil, fmt.Errorf("value %d out of range for %s", n, t)
		}
		return n, nil
	case t == TypeDouble:
		f, err := toFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("cannot use %v (%T) as %s: %w", v, v, t, err)
		}
		return f, nil
	case t == TypeVarchar:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case json.Number:
			return s.String(), nil
		}
	case t == TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err == nil {
				return parsed, nil
			}
		}
	case t == TypeVarbinary:
		switch b := v.(type) {
		case []byte:
			return append([]byte{}, b...), nil
		case string:
			return []byte(b), nil
		}
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, t)
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("not an integral value")
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type")
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported type")
	}
}

// CompareValues orders two canonical values of type t. NULL (nil) sorts
// before every non-null value.
func CompareValues(t FieldType, a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch {
	case t.IsInteger():
		return cmp.Compare(a.(int64), b.(int64))
	case t == TypeDouble:
		return cmp.Compare(a.(float64), b.(float64))
	case t == TypeVarchar:
		return strings.Compare(a.(string), b.(string))
	case t == TypeBoolean:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case t == TypeVarbinary:
		return bytes.Compare(a.([]byte), b.([]byte))
	}
	panic(fmt.Sprintf("compare on unknown field type %s", t))
}

// RowIterator allows iterating over produced rows.
type RowIterator interface {
	// Next advances the iterator. Returns false if no more rows or error.
	Next() bool
	// Row returns the current row.
	Row() Row
	// Error returns any error that occurred during iteration.
	Error() error
	// Close releases resources.
	Close() error
}
