package storage

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRangeSpan(t *testing.T) {
	tests := []struct {
		name         string
		r            KeyRange
		lower, upper []byte
	}{
		{"unbounded", KeyRange{}, nil, nil},
		{"inclusive", KeyRange{Low: []byte("a"), High: []byte("c"), LowInclusive: true, HighInclusive: true}, []byte("a"), []byte("c\x00")},
		{"exclusive", KeyRange{Low: []byte("a"), High: []byte("c")}, []byte("a\x00"), []byte("c")},
		{"half open", HalfOpen([]byte("b"), nil), []byte("b"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper := tt.r.Span()
			assert.Equal(t, tt.lower, lower)
			assert.Equal(t, tt.upper, upper)
		})
	}
}

func TestKeyRangeEmptyAndContains(t *testing.T) {
	r := KeyRange{Low: []byte("b"), High: []byte("d"), LowInclusive: true}
	assert.False(t, r.Empty())
	assert.True(t, r.Contains([]byte("b")))
	assert.True(t, r.Contains([]byte("c\xff")))
	assert.False(t, r.Contains([]byte("d")))
	assert.False(t, r.Contains([]byte("a")))

	assert.True(t, KeyRange{Low: []byte("b"), High: []byte("b")}.Empty())
	assert.False(t, KeyRange{Low: []byte("b"), High: []byte("b"), LowInclusive: true, HighInclusive: true}.Empty())
	assert.True(t, HalfOpen([]byte("d"), []byte("c")).Empty())
	assert.False(t, KeyRange{}.Empty())
}

func TestKeyRangeIntersect(t *testing.T) {
	a := HalfOpen([]byte("b"), []byte("f"))
	b := KeyRange{Low: []byte("a"), High: []byte("d"), HighInclusive: true}

	got := a.Intersect(b)
	lower, upper := got.Span()
	assert.Equal(t, []byte("b"), lower)
	assert.Equal(t, []byte("d\x00"), upper)

	got = a.Intersect(HalfOpen(nil, nil))
	lower, upper = got.Span()
	assert.Equal(t, []byte("b"), lower)
	assert.Equal(t, []byte("f"), upper)

	assert.True(t, a.Intersect(HalfOpen([]byte("g"), nil)).Empty())
}

func openMem(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func collect(t *testing.T, s Store, r KeyRange, reverse bool) []string {
	t.Helper()
	it, err := s.OpenRange(context.Background(), r, reverse)
	require.NoError(t, err)
	defer it.Close()
	var out []string
	for it.Next() {
		out = append(out, string(it.Key()))
	}
	require.NoError(t, it.Error())
	return out
}

func TestPebbleStoreRanges(t *testing.T) {
	s := openMem(t)
	ctx := context.Background()
	var muts []Mutation
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		muts = append(muts, Mutation{Key: []byte(k), Value: []byte{}})
	}
	require.NoError(t, s.Apply(ctx, muts))

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, collect(t, s, KeyRange{}, false))
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, collect(t, s, KeyRange{}, true))

	r := KeyRange{Low: []byte("b"), High: []byte("d"), HighInclusive: true}
	assert.Equal(t, []string{"c", "d"}, collect(t, s, r, false))
	assert.Equal(t, []string{"d", "c"}, collect(t, s, r, true))
	assert.Empty(t, collect(t, s, HalfOpen([]byte("x"), nil), true))

	require.NoError(t, s.Apply(ctx, []Mutation{{Key: []byte("c"), Delete: true}}))
	assert.Equal(t, []string{"a", "b", "d", "e"}, collect(t, s, KeyRange{}, false))
}

func TestPebbleStoreCanceledContext(t *testing.T) {
	s := openMem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.OpenRange(ctx, KeyRange{}, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Apply(ctx, nil), context.Canceled)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)

	s, err := Open(Options{Dir: t.TempDir(), Sync: true})
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), []Mutation{{Key: []byte("k"), Value: []byte("v")}}))
	require.NoError(t, s.Close())
}

func TestPebbleLoggerFatalf(t *testing.T) {
	var buf bytes.Buffer
	l := pebbleLogger{slog.New(slog.NewTextHandler(&buf, nil))}

	assert.PanicsWithValue(t, "manifest corrupt: 7", func() {
		l.Fatalf("manifest corrupt: %d", 7)
	})
	assert.Contains(t, buf.String(), "manifest corrupt: 7")
}
