package database

import (
	"bytes"
	"fmt"
	"strings"
)

// Field describes one column of a RowType.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// RowType is the immutable schema shared by every row decoded from one index.
type RowType struct {
	fields []Field
}

func NewRowType(fields ...Field) *RowType {
	return &RowType{fields: append([]Field(nil), fields...)}
}

func (rt *RowType) Arity() int {
	return len(rt.fields)
}

func (rt *RowType) Field(i int) Field {
	return rt.fields[i]
}

func (rt *RowType) Fields() []Field {
	return append([]Field(nil), rt.fields...)
}

// FieldIndex returns the position of the named field or -1.
func (rt *RowType) FieldIndex(name string) int {
	for i, f := range rt.fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Project returns a row type holding the given positions, in order.
func (rt *RowType) Project(positions []int) *RowType {
	fields := make([]Field, len(positions))
	for i, p := range positions {
		fields[i] = rt.fields[p]
	}
	return &RowType{fields: fields}
}

func (rt *RowType) String() string {
	parts := make([]string, len(rt.fields))
	for i, f := range rt.fields {
		parts[i] = f.Name + " " + f.Type.String()
		if !f.Nullable {
			parts[i] += " NOT NULL"
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Row is an immutable tuple matching a RowType. A nil value is NULL.
type Row struct {
	rowType *RowType
	values  []interface{}
}

// MakeRow coerces values to the field types of rt and checks nullability.
func MakeRow(rt *RowType, values ...interface{}) (Row, error) {
	if len(values) != rt.Arity() {
		return Row{}, fmt.Errorf("row has %d values, row type %s has %d fields", len(values), rt, rt.Arity())
	}
	out := make([]interface{}, len(values))
	for i, v := range values {
		f := rt.fields[i]
		if v == nil {
			if !f.Nullable {
				return Row{}, fmt.Errorf("field %s is not nullable", f.Name)
			}
			continue
		}
		c, err := f.Type.Coerce(v)
		if err != nil {
			return Row{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[i] = c
	}
	return Row{rowType: rt, values: out}, nil
}

// NewRow is MakeRow for literals known to be valid; it panics otherwise.
func NewRow(rt *RowType, values ...interface{}) Row {
	r, err := MakeRow(rt, values...)
	if err != nil {
		panic(err)
	}
	return r
}

// rowOf wraps already-canonical values without copying.
func rowOf(rt *RowType, values []interface{}) Row {
	return Row{rowType: rt, values: values}
}

func (r Row) Type() *RowType {
	return r.rowType
}

func (r Row) Len() int {
	return len(r.values)
}

func (r Row) Value(i int) interface{} {
	return r.values[i]
}

func (r Row) IsNull(i int) bool {
	return r.values[i] == nil
}

// Values returns a copy of the field values.
func (r Row) Values() []interface{} {
	return append([]interface{}(nil), r.values...)
}

// Project returns a row with the given positions of r.
func (r Row) Project(rt *RowType, positions []int) Row {
	values := make([]interface{}, len(positions))
	for i, p := range positions {
		values[i] = r.values[p]
	}
	return rowOf(rt, values)
}

// Equal compares every field, NULL equal to NULL.
func (r Row) Equal(other Row) bool {
	if len(r.values) != len(other.values) {
		return false
	}
	for i := range r.values {
		a, b := r.values[i], other.values[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a == nil {
			continue
		}
		if ab, ok := a.([]byte); ok {
			bb, ok := b.([]byte)
			if !ok || !bytes.Equal(ab, bb) {
				return false
			}
			continue
		}
		if a != b {
			return false
		}
	}
	return true
}

// Compare orders r and other on field i.
func (r Row) Compare(other Row, i int) int {
	return CompareValues(r.rowType.fields[i].Type, r.values[i], other.values[i])
}

func (r Row) String() string {
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = FormatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatValue renders a field value the way rows print.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", x)
	case []byte:
		return fmt.Sprintf("x'%x'", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Canonical builds a Row from values that already passed Coerce, taking
// ownership of the slice. Used by decoders that allocate fresh values.
func Canonical(rt *RowType, values []interface{}) Row {
	return rowOf(rt, values)
}
