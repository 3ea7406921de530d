package plan

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/expr"
	"github.com/bisegni/ixscan/pkg/keys"
	"github.com/bisegni/ixscan/pkg/loader"
	"github.com/bisegni/ixscan/pkg/metrics"
	"github.com/bisegni/ixscan/pkg/storage"
)

// abcIndex is (a, b, c, id) with nullable a, b, c, all ascending.
func abcIndex(t *testing.T, dirs ...database.Direction) *database.Index {
	t.Helper()
	for len(dirs) < 4 {
		dirs = append(dirs, database.Ascending)
	}
	ix, err := database.NewIndex(7, "t_abc", "t", []database.IndexColumn{
		{Name: "a", Type: database.TypeInteger, Nullable: true, Direction: dirs[0]},
		{Name: "b", Type: database.TypeInteger, Nullable: true, Direction: dirs[1]},
		{Name: "c", Type: database.TypeInteger, Nullable: true, Direction: dirs[2]},
		{Name: "id", Type: database.TypeBigint, Direction: dirs[3]},
	})
	require.NoError(t, err)
	return ix
}

// abcRows is the 16-row data set, listed in ascending (a, b, c, id) order.
func abcRows(ix *database.Index) []database.Row {
	rt := ix.RowType()
	r := func(a, b, c, id interface{}) database.Row { return database.NewRow(rt, a, b, c, id) }
	return []database.Row{
		r(nil, nil, nil, 2007),
		r(nil, nil, 5, 2006),
		r(nil, 4, nil, 2005),
		r(nil, 4, 5, 2004),
		r(1, 11, 111, 1000),
		r(1, 11, 112, 1001),
		r(1, 12, 121, 1002),
		r(1, 12, 122, 1003),
		r(2, 21, 211, 1004),
		r(2, 21, 212, 1005),
		r(2, 22, 221, 1006),
		r(2, 22, 222, 1007),
		r(3, nil, nil, 2003),
		r(3, nil, 5, 2002),
		r(3, 4, nil, 2001),
		r(3, 4, 5, 2000),
	}
}

func openPebble(t *testing.T) *storage.PebbleStore {
	t.Helper()
	store, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func load(t *testing.T, store storage.Store, ix *database.Index, rows []database.Row) {
	t.Helper()
	require.NoError(t, loader.New(store).Insert(context.Background(), ix, rows...))
}

func newTestContext(store storage.Store) (*QueryContext, *metrics.Metrics) {
	m := metrics.New()
	return NewQueryContext(context.Background(), store, WithMetrics(m)), m
}

// drain reads c to the end and renders each row.
func drain(t *testing.T, c Cursor) []string {
	t.Helper()
	var out []string
	for {
		row, ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, row.String())
	}
}

func scan(t *testing.T, qc *QueryContext, op *Operator, b expr.Bindings) []string {
	t.Helper()
	c := op.Cursor(qc)
	require.NoError(t, c.Open(b))
	defer c.Close()
	return drain(t, c)
}

func render(rows []database.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String()
	}
	return out
}

func reversed(rows []database.Row) []database.Row {
	out := make([]database.Row, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

// expectedOrder sorts rows the way a scan with ordering must return them:
// by the ordering, then by the remaining index columns in the direction the
// last segment of the plan traverses them.
func expectedOrder(ix *database.Index, ordering Ordering, rows []database.Row) []database.Row {
	p, err := Resolve(ix.Directions(), ordering)
	if err != nil {
		panic(err)
	}
	lastReverse := p.Segments[len(p.Segments)-1].Reverse
	full := append(Ordering(nil), ordering...)
	for i := len(ordering); i < len(ix.Columns); i++ {
		asc := (ix.Columns[i].Direction == database.Ascending) != lastReverse
		full = append(full, OrderingColumn{Position: i, Ascending: asc})
	}
	out := append([]database.Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return full.Compare(out[i], out[j]) < 0 })
	return out
}

// memStore is an in-memory Store with fault injection.
type memStore struct {
	keys [][]byte

	openErr   error
	failAfter int // iterator fails after this many keys when > 0
	iterErr   error
	closeErr  error
	// ignoreRange makes OpenRange return every key, like a broken store.
	ignoreRange bool

	opened int
	live   int
}

func (s *memStore) OpenRange(ctx context.Context, r storage.KeyRange, reverse bool) (storage.Iterator, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	var sel [][]byte
	for _, k := range s.keys {
		if s.ignoreRange || r.Contains(k) {
			sel = append(sel, k)
		}
	}
	if reverse {
		for i, j := 0, len(sel)-1; i < j; i, j = i+1, j-1 {
			sel[i], sel[j] = sel[j], sel[i]
		}
	}
	s.opened++
	s.live++
	return &memIterator{store: s, keys: sel, pos: -1}, nil
}

func (s *memStore) Apply(ctx context.Context, muts []storage.Mutation) error {
	for _, m := range muts {
		i := sort.Search(len(s.keys), func(i int) bool { return bytes.Compare(s.keys[i], m.Key) >= 0 })
		exists := i < len(s.keys) && bytes.Equal(s.keys[i], m.Key)
		switch {
		case m.Delete && exists:
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
		case !m.Delete && !exists:
			s.keys = append(s.keys, nil)
			copy(s.keys[i+1:], s.keys[i:])
			s.keys[i] = append([]byte(nil), m.Key...)
		}
	}
	return nil
}

func (s *memStore) Close() error { return nil }

type memIterator struct {
	store  *memStore
	keys   [][]byte
	pos    int
	err    error
	closed bool
}

func (it *memIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.store.failAfter > 0 && it.pos+1 >= it.store.failAfter {
		it.err = it.store.iterErr
		if it.err == nil {
			it.err = errors.New("injected iterator failure")
		}
		return false
	}
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memIterator) Key() []byte   { return it.keys[it.pos] }
func (it *memIterator) Value() []byte { return nil }
func (it *memIterator) Error() error  { return it.err }

func (it *memIterator) Close() error {
	if !it.closed {
		it.closed = true
		it.store.live--
	}
	return it.store.closeErr
}

// corruptKey is a key inside ix's span that does not decode.
func corruptKey(ix *database.Index) []byte {
	return append(keys.NewCodec().IndexPrefix(ix), 0x07)
}
