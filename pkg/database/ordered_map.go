package database

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// KeyVal is one named field of an OrderedMap.
type KeyVal struct {
	Key string
	Val interface{}
}

// OrderedMap renders a row as a JSON object whose keys keep column order.
type OrderedMap []KeyVal

// MarshalJSON implements the json.Marshaler interface.
func (om OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range om {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		val := kv.Val
		if f, ok := val.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			// JSON has no literal for these; emit "NaN", "+Inf" or "-Inf".
			val = strconv.FormatFloat(f, 'g', -1, 64)
		}
		valBytes, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value for a key (linear lookup)
func (om OrderedMap) Get(key string) (interface{}, bool) {
	for _, kv := range om {
		if kv.Key == key {
			return kv.Val, true
		}
	}
	return nil, false
}

// String implements fmt.Stringer
func (om OrderedMap) String() string {
	b, _ := om.MarshalJSON()
	return string(b)
}

// ToOrderedMap names every field of r after its row type.
func (r Row) ToOrderedMap() OrderedMap {
	om := make(OrderedMap, len(r.values))
	for i, v := range r.values {
		om[i] = KeyVal{Key: r.rowType.fields[i].Name, Val: v}
	}
	return om
}
