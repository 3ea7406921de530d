package keys

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/ixscan/pkg/database"
)

func singleColumn(t *testing.T, typ database.FieldType, dir database.Direction) *database.Index {
	t.Helper()
	ix, err := database.NewIndex(3, "single", "t", []database.IndexColumn{
		{Name: "v", Type: typ, Nullable: true, Direction: dir},
	})
	require.NoError(t, err)
	return ix
}

func TestFieldOrdering(t *testing.T) {
	tests := []struct {
		name   string
		typ    database.FieldType
		values []interface{} // ascending, NULL first
	}{
		{"bigint", database.TypeBigint, []interface{}{nil, int64(math.MinInt64), int64(-1), int64(0), int64(1), int64(math.MaxInt64)}},
		{"double", database.TypeDouble, []interface{}{nil, math.Inf(-1), -2.5, -1e-300, 0.0, 1e-300, 3.0, math.Inf(1)}},
		{"boolean", database.TypeBoolean, []interface{}{nil, false, true}},
		{"varchar", database.TypeVarchar, []interface{}{nil, "", "a", "a\x00", "a\x00b", "ab", "b", "\xff"}},
		{"varbinary", database.TypeVarbinary, []interface{}{nil, []byte{}, []byte{0}, []byte{0, 0}, []byte{0, 1}, []byte{1}, []byte{0xff, 0xff}}},
	}

	for _, tt := range tests {
		for _, dir := range []database.Direction{database.Ascending, database.Descending} {
			t.Run(tt.name+" "+dir.String(), func(t *testing.T) {
				ix := singleColumn(t, tt.typ, dir)
				codec := NewCodec()
				encoded := make([][]byte, len(tt.values))
				for i, v := range tt.values {
					k, err := codec.EncodeKey(ix, database.NewRow(ix.RowType(), v))
					require.NoError(t, err)
					encoded[i] = k

					row, err := codec.DecodeRow(ix, k)
					require.NoError(t, err)
					assert.True(t, row.Equal(database.NewRow(ix.RowType(), v)), "round trip of %v gave %s", v, row)
				}
				for i := 1; i < len(encoded); i++ {
					c := bytes.Compare(encoded[i-1], encoded[i])
					if dir == database.Ascending {
						assert.Equal(t, -1, c, "%v should sort before %v", tt.values[i-1], tt.values[i])
					} else {
						assert.Equal(t, 1, c, "%v should sort after %v", tt.values[i-1], tt.values[i])
					}
				}
			})
		}
	}
}

func TestDoubleSpecialValues(t *testing.T) {
	ix := singleColumn(t, database.TypeDouble, database.Ascending)
	codec := NewCodec()
	rt := ix.RowType()

	negZero, err := codec.EncodeKey(ix, database.NewRow(rt, math.Copysign(0, -1)))
	require.NoError(t, err)
	posZero, err := codec.EncodeKey(ix, database.NewRow(rt, 0.0))
	require.NoError(t, err)
	assert.Equal(t, posZero, negZero)

	nan, err := codec.EncodeKey(ix, database.NewRow(rt, math.NaN()))
	require.NoError(t, err)
	negInf, err := codec.EncodeKey(ix, database.NewRow(rt, math.Inf(-1)))
	require.NoError(t, err)
	assert.Equal(t, -1, bytes.Compare(nan, negInf))

	row, err := codec.DecodeRow(ix, nan)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(row.Value(0).(float64)))
}

func TestCompositeKeysSortLikeRows(t *testing.T) {
	ix, err := database.NewIndex(4, "comp", "t", []database.IndexColumn{
		{Name: "name", Type: database.TypeVarchar, Nullable: true},
		{Name: "score", Type: database.TypeDouble, Nullable: true, Direction: database.Descending},
		{Name: "id", Type: database.TypeBigint},
	})
	require.NoError(t, err)
	rt := ix.RowType()
	rows := []database.Row{
		database.NewRow(rt, "b", 1.0, 1),
		database.NewRow(rt, nil, 2.0, 2),
		database.NewRow(rt, "a", nil, 3),
		database.NewRow(rt, "a", 5.0, 4),
		database.NewRow(rt, "a", 5.0, 0),
		database.NewRow(rt, "ab", -1.0, 5),
		database.NewRow(rt, "a\x00", 0.0, 6),
	}

	codec := NewCodec()
	type entry struct {
		key []byte
		row database.Row
	}
	entries := make([]entry, len(rows))
	for i, r := range rows {
		k, err := codec.EncodeKey(ix, r)
		require.NoError(t, err)
		entries[i] = entry{k, r}
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].key, entries[j].key) < 0 })

	var ids []interface{}
	for _, e := range entries {
		ids = append(ids, e.row.Value(2))
	}
	// name asc NULL first, score desc NULL last, id asc
	assert.Equal(t, []interface{}{int64(2), int64(0), int64(4), int64(3), int64(6), int64(5), int64(1)}, ids)
}

func TestEncodePrefixIsKeyPrefix(t *testing.T) {
	ix, err := database.NewIndex(5, "p", "t", []database.IndexColumn{
		{Name: "s", Type: database.TypeVarchar, Nullable: true, Direction: database.Descending},
		{Name: "n", Type: database.TypeInteger, Nullable: true},
		{Name: "id", Type: database.TypeBigint},
	})
	require.NoError(t, err)
	codec := NewCodec()
	row := database.NewRow(ix.RowType(), "x\x00y", nil, 42)
	key, err := codec.EncodeKey(ix, row)
	require.NoError(t, err)

	for n := 0; n <= 3; n++ {
		p, err := codec.EncodePrefix(ix, row.Values()[:n])
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(key, p))

		l, err := codec.PrefixLen(ix, key, n)
		require.NoError(t, err)
		assert.Equal(t, len(p), l)
	}

	_, err = codec.PrefixLen(ix, key, 4)
	assert.Error(t, err)
}

func TestDecodeRowRejectsMalformedKeys(t *testing.T) {
	ix, err := database.NewIndex(6, "m", "t", []database.IndexColumn{
		{Name: "n", Type: database.TypeInteger},
		{Name: "s", Type: database.TypeVarchar, Nullable: true},
	})
	require.NoError(t, err)
	other, err := database.NewIndex(7, "o", "t", ix.Columns)
	require.NoError(t, err)
	codec := NewCodec()
	good, err := codec.EncodeKey(ix, database.NewRow(ix.RowType(), 1, "abc"))
	require.NoError(t, err)
	prefix := codec.IndexPrefix(ix)

	tests := []struct {
		name string
		key  []byte
	}{
		{"other index", append(codec.IndexPrefix(other), good[5:]...)},
		{"short prefix", good[:3]},
		{"missing fields", prefix},
		{"truncated integer", good[:9]},
		{"unterminated string", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0x00)},
		{"bad marker", append(append([]byte(nil), prefix...), 0x05)},
		{"NULL in non-nullable column", append(append([]byte(nil), prefix...), 0x00, 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.DecodeRow(ix, tt.key)
			assert.Error(t, err)
		})
	}
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x03}, PrefixEnd([]byte{0x01, 0x02}))
	assert.Equal(t, []byte{0x02}, PrefixEnd([]byte{0x01, 0xff, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, PrefixEnd(nil))
}
