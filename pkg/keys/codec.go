// Package keys implements the order-preserving key encoding used by index
// entries. Every field is self-delimiting, so the byte order of two keys
// equals the column-by-column order of their values, and any field prefix of
// a key is a byte prefix of it.
//
// Field layout:
//
//	NULL              0x00
//	BIGINT/INT/SMALL  0x01 + 8 bytes big endian, sign bit flipped
//	DOUBLE            0x01 + 8 bytes, IEEE bits made sortable (NaN first)
//	BOOLEAN           0x01 + 0x00|0x01
//	VARCHAR/VARBINARY 0x01 + bytes with 0x00 escaped as 0x00 0xFF, then 0x00 0x01
//
// Descending columns store the bitwise complement of the ascending encoding,
// which reverses the order of values while keeping NULL the smallest value in
// ascending traversal of that column.
package keys

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bisegni/ixscan/pkg/database"
)

const (
	markerNull  byte = 0x00
	markerValue byte = 0x01

	escapeByte  byte = 0x00
	escapedZero byte = 0xFF
	terminator  byte = 0x01

	// indexTag opens the keyspace of every index; the index id follows.
	indexTag byte = 'i'

	signBit = uint64(1) << 63
)

// Codec encodes and decodes index keys. It holds no state and is shared by
// every component that builds or reads keys.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// IndexPrefix is the key prefix shared by every entry of ix.
func (c *Codec) IndexPrefix(ix *database.Index) []byte {
	b := make([]byte, 5)
	b[0] = indexTag
	binary.BigEndian.PutUint32(b[1:], ix.ID)
	return b
}

// IndexSpan returns the half-open byte range [lower, upper) holding all of ix.
func (c *Codec) IndexSpan(ix *database.Index) (lower, upper []byte) {
	p := c.IndexPrefix(ix)
	return p, PrefixEnd(p)
}

// EncodeKey builds the full physical key of row, which must match ix.RowType().
func (c *Codec) EncodeKey(ix *database.Index, row database.Row) ([]byte, error) {
	if row.Len() != len(ix.Columns) {
		return nil, fmt.Errorf("row has %d fields, index %s has %d columns", row.Len(), ix.Name, len(ix.Columns))
	}
	return c.EncodePrefix(ix, row.Values())
}

// EncodePrefix encodes values against the leading columns of ix. Values must
// already be in canonical form for their column types.
func (c *Codec) EncodePrefix(ix *database.Index, values []interface{}) ([]byte, error) {
	if len(values) > len(ix.Columns) {
		return nil, fmt.Errorf("%d values exceed the %d columns of index %s", len(values), len(ix.Columns), ix.Name)
	}
	key := c.IndexPrefix(ix)
	for i, v := range values {
		col := ix.Columns[i]
		var err error
		key, err = AppendField(key, col.Type, col.Direction, v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return key, nil
}

// DecodeRow decodes a full physical key of ix into a fresh Row. The row never
// aliases key.
func (c *Codec) DecodeRow(ix *database.Index, key []byte) (database.Row, error) {
	rest, err := c.stripPrefix(ix, key)
	if err != nil {
		return database.Row{}, err
	}
	values := make([]interface{}, len(ix.Columns))
	for i, col := range ix.Columns {
		var v interface{}
		v, rest, err = DecodeField(rest, col.Type, col.Direction)
		if err != nil {
			return database.Row{}, fmt.Errorf("column %s: %w", col.Name, err)
		}
		if v == nil && !col.Nullable {
			return database.Row{}, fmt.Errorf("column %s: NULL in non-nullable column", col.Name)
		}
		values[i] = v
	}
	if len(rest) != 0 {
		return database.Row{}, fmt.Errorf("%d trailing bytes after last column", len(rest))
	}
	return database.Canonical(ix.RowType(), values), nil
}

// PrefixLen returns the byte length of the index prefix plus the first n
// encoded fields of key.
func (c *Codec) PrefixLen(ix *database.Index, key []byte, n int) (int, error) {
	rest, err := c.stripPrefix(ix, key)
	if err != nil {
		return 0, err
	}
	if n > len(ix.Columns) {
		return 0, fmt.Errorf("prefix of %d columns exceeds index %s", n, ix.Name)
	}
	for i := 0; i < n; i++ {
		col := ix.Columns[i]
		rest, err = skipField(rest, col.Type, col.Direction)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return len(key) - len(rest), nil
}

func (c *Codec) stripPrefix(ix *database.Index, key []byte) ([]byte, error) {
	if len(key) < 5 || key[0] != indexTag || binary.BigEndian.Uint32(key[1:5]) != ix.ID {
		return nil, fmt.Errorf("key %x does not belong to index %s", key, ix.Name)
	}
	return key[5:], nil
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func mask(dir database.Direction) byte {
	if dir == database.Descending {
		return 0xFF
	}
	return 0x00
}

// AppendField appends the encoding of one canonical value.
func AppendField(dst []byte, t database.FieldType, dir database.Direction, v interface{}) ([]byte, error) {
	start := len(dst)
	if v == nil {
		dst = append(dst, markerNull)
	} else {
		dst = append(dst, markerValue)
		switch {
		case t.IsInteger():
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("expected int64 for %s, got %T", t, v)
			}
			dst = binary.BigEndian.AppendUint64(dst, uint64(n)^signBit)
		case t == database.TypeDouble:
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("expected float64 for %s, got %T", t, v)
			}
			dst = binary.BigEndian.AppendUint64(dst, sortableFloat(f))
		case t == database.TypeBoolean:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("expected bool for %s, got %T", t, v)
			}
			if b {
				dst = append(dst, 1)
			} else {
				dst = append(dst, 0)
			}
		case t == database.TypeVarchar:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expected string for %s, got %T", t, v)
			}
			dst = appendEscaped(dst, []byte(s))
		case t == database.TypeVarbinary:
			b, ok := v.([]byte)
			if !ok {
				return nil, fmt.Errorf("expected []byte for %s, got %T", t, v)
			}
			dst = appendEscaped(dst, b)
		default:
			return nil, fmt.Errorf("cannot encode type %s", t)
		}
	}
	if m := mask(dir); m != 0 {
		for i := start; i < len(dst); i++ {
			dst[i] ^= m
		}
	}
	return dst, nil
}

func appendEscaped(dst, b []byte) []byte {
	for _, c := range b {
		if c == escapeByte {
			dst = append(dst, escapeByte, escapedZero)
			continue
		}
		dst = append(dst, c)
	}
	return append(dst, escapeByte, terminator)
}

func sortableFloat(f float64) uint64 {
	if math.IsNaN(f) {
		return 0
	}
	if f == 0 {
		f = 0 // folds -0 into +0
	}
	bits := math.Float64bits(f)
	if bits&signBit == 0 {
		return bits ^ signBit
	}
	return ^bits
}

func unsortableFloat(u uint64) float64 {
	if u == 0 {
		return math.NaN()
	}
	if u&signBit != 0 {
		return math.Float64frombits(u ^ signBit)
	}
	return math.Float64frombits(^u)
}

// DecodeField decodes one field from the front of src and returns the rest.
// Byte values are copied out of src.
func DecodeField(src []byte, t database.FieldType, dir database.Direction) (interface{}, []byte, error) {
	m := mask(dir)
	if len(src) == 0 {
		return nil, nil, fmt.Errorf("truncated key: missing field")
	}
	switch src[0] ^ m {
	case markerNull:
		return nil, src[1:], nil
	case markerValue:
	default:
		return nil, nil, fmt.Errorf("bad field marker 0x%02x", src[0]^m)
	}
	src = src[1:]
	switch {
	case t.IsInteger(), t == database.TypeDouble:
		if len(src) < 8 {
			return nil, nil, fmt.Errorf("truncated key: %s needs 8 bytes, have %d", t, len(src))
		}
		var buf [8]byte
		for i := range buf {
			buf[i] = src[i] ^ m
		}
		u := binary.BigEndian.Uint64(buf[:])
		if t == database.TypeDouble {
			return unsortableFloat(u), src[8:], nil
		}
		return int64(u ^ signBit), src[8:], nil
	case t == database.TypeBoolean:
		if len(src) < 1 {
			return nil, nil, fmt.Errorf("truncated key: missing boolean")
		}
		switch src[0] ^ m {
		case 0:
			return false, src[1:], nil
		case 1:
			return true, src[1:], nil
		default:
			return nil, nil, fmt.Errorf("bad boolean byte 0x%02x", src[0]^m)
		}
	case t == database.TypeVarchar, t == database.TypeVarbinary:
		b, rest, err := decodeEscaped(src, m)
		if err != nil {
			return nil, nil, err
		}
		if t == database.TypeVarchar {
			return string(b), rest, nil
		}
		return b, rest, nil
	}
	return nil, nil, fmt.Errorf("cannot decode type %s", t)
}

func decodeEscaped(src []byte, m byte) ([]byte, []byte, error) {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		c := src[i] ^ m
		if c != escapeByte {
			out = append(out, c)
			continue
		}
		if i+1 >= len(src) {
			return nil, nil, fmt.Errorf("truncated key: unterminated string")
		}
		switch src[i+1] ^ m {
		case terminator:
			return out, src[i+2:], nil
		case escapedZero:
			out = append(out, 0)
			i++
		default:
			return nil, nil, fmt.Errorf("bad escape 0x%02x", src[i+1]^m)
		}
	}
	return nil, nil, fmt.Errorf("truncated key: unterminated string")
}

func skipField(src []byte, t database.FieldType, dir database.Direction) ([]byte, error) {
	_, rest, err := DecodeField(src, t, dir)
	return rest, err
}
