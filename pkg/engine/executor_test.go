package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
	"github.com/bisegni/ixscan/pkg/expr"
	"github.com/bisegni/ixscan/pkg/loader"
	"github.com/bisegni/ixscan/pkg/storage"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	store, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ix, err := database.NewIndex(1, "t", "t", []database.IndexColumn{
		{Name: "a", Type: database.TypeInteger, Nullable: true},
		{Name: "id", Type: database.TypeInteger},
	})
	require.NoError(t, err)
	catalog := database.NewCatalog()
	require.NoError(t, catalog.RegisterIndex(ix))

	rt := ix.RowType()
	require.NoError(t, loader.New(store).Insert(context.Background(), ix,
		database.NewRow(rt, nil, 3),
		database.NewRow(rt, 1, 1),
		database.NewRow(rt, 2, 2),
	))
	return NewExecutor(catalog, store)
}

func TestExecuteJSONL(t *testing.T) {
	e := newTestExecutor(t)

	tests := []struct {
		name      string
		statement string
		params    []string
		expected  string
	}{
		{
			name:      "natural order",
			statement: "SCAN t",
			expected:  "{\"a\":null,\"id\":3}\n{\"a\":1,\"id\":1}\n{\"a\":2,\"id\":2}\n",
		},
		{
			name:      "descending with projection",
			statement: "SCAN t ORDER BY a DESC SELECT id",
			expected:  "{\"id\":2}\n{\"id\":1}\n{\"id\":3}\n",
		},
		{
			name:      "bound parameter",
			statement: "SCAN t WHERE KEY AFTER ($0) SELECT a",
			params:    []string{"1"},
			expected:  "{\"a\":2}\n",
		},
		{
			name:      "limit",
			statement: "SCAN t LIMIT 1 OFFSET 1",
			expected:  "{\"a\":1,\"id\":1}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseParams(tt.params)
			require.NoError(t, err)
			var buf bytes.Buffer
			_, err = e.Execute(context.Background(), tt.statement, b, &buf)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestExecuteTable(t *testing.T) {
	e := newTestExecutor(t)
	e.Format = FormatTable

	var buf bytes.Buffer
	n, err := e.Execute(context.Background(), "SCAN t", nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "a     id\nNULL  3 \n1     1 \n2     2 \n(3 rows)\n", buf.String())
}

func TestExecuteErrors(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Execute(context.Background(), "SCAN t WHERE KEY FROM ($0)", expr.None, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Binding))
	assert.True(t, errors.Is(err, errs.ErrMissingParameter))

	_, err = e.Execute(context.Background(), "SCAN missing", nil, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errs.Configuration))

	_, err = e.Execute(context.Background(), "SCAN", nil, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	e := newTestExecutor(t)
	out, err := e.Explain("SCAN t ORDER BY a DESC")
	require.NoError(t, err)
	assert.Equal(t, "└─ IndexScan(t, range=unbounded, order=a DESC, plan=reverse)\n", out)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    expr.Bindings
		wantErr bool
	}{
		{
			name:   "positional",
			values: []string{"42", "-1.5", "null", "True", "'007'", "abc"},
			want:   expr.ArrayBindings{int64(42), -1.5, nil, true, "007", "abc"},
		},
		{
			name:   "numbered",
			values: []string{"3=x", "$1=NULL", "0='a=b'"},
			want:   expr.SparseBindings{3: "x", 1: nil, 0: "a=b"},
		},
		{
			name:   "mixed",
			values: []string{"7", "5=8"},
			want:   expr.SparseBindings{0: int64(7), 5: int64(8)},
		},
		{
			name:   "equals inside text",
			values: []string{"a=b"},
			want:   expr.ArrayBindings{"a=b"},
		},
		{name: "bound twice", values: []string{"1", "0=2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseParams(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)
		})
	}
}

func TestSplitParams(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "", want: nil},
		{line: "  1   two ", want: []string{"1", "two"}},
		{line: `'hello world' 2="x y" ''`, want: []string{"'hello world'", `2="x y"`, "''"}},
		{line: "'open", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitParams(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	values, err := SplitParams(`'a b' 3`)
	require.NoError(t, err)
	b, err := ParseParams(values)
	require.NoError(t, err)
	assert.Equal(t, expr.ArrayBindings{"a b", int64(3)}, b)
}

func TestExecuteOutOfOrderParams(t *testing.T) {
	e := newTestExecutor(t)
	run := func(statement string, values ...string) (string, error) {
		b, err := ParseParams(values)
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = e.Execute(context.Background(), statement, b, &buf)
		return buf.String(), err
	}

	out, err := run("SCAN t WHERE KEY FROM ($2) TO ($2) SELECT id", "2=1")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n", out)

	out, err = run("SCAN t WHERE KEY AFTER ($4) TO ($1) SELECT id", "1=2", "4=NULL", "9=unused")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", out)

	_, err = run("SCAN t WHERE KEY FROM ($1) TO ($3)", "1=1", "2=2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Binding))
	assert.True(t, errors.Is(err, errs.ErrMissingParameter))
	assert.Contains(t, err.Error(), "$3")
}

func TestExecuteTableQuotesText(t *testing.T) {
	store, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ix, err := database.NewIndex(2, "names", "t", []database.IndexColumn{
		{Name: "name", Type: database.TypeVarchar, Nullable: true},
		{Name: "id", Type: database.TypeInteger},
	})
	require.NoError(t, err)
	catalog := database.NewCatalog()
	require.NoError(t, catalog.RegisterIndex(ix))
	rt := ix.RowType()
	require.NoError(t, loader.New(store).Insert(context.Background(), ix,
		database.NewRow(rt, nil, 1),
		database.NewRow(rt, "NULL", 2),
	))

	e := NewExecutor(catalog, store)
	e.Format = FormatTable
	var buf bytes.Buffer
	_, err = e.Execute(context.Background(), "SCAN names", nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, "name    id\nNULL    1 \n\"NULL\"  2 \n(2 rows)\n", buf.String())
}

func TestStats(t *testing.T) {
	e := newTestExecutor(t)
	ix, err := e.Catalog.GetIndex("t")
	require.NoError(t, err)

	st, err := e.Stats(context.Background(), ix)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Entries)
	require.Len(t, st.Columns, 2)
	assert.Equal(t, 1, st.Columns[0].Nulls)
	assert.Equal(t, int64(1), st.Columns[0].Min)
	assert.Equal(t, int64(2), st.Columns[0].Max)
	assert.Equal(t, 0, st.Columns[1].Nulls)
	assert.Equal(t, int64(3), st.Columns[1].Max)

	var buf bytes.Buffer
	st.Print(&buf)
	assert.Contains(t, buf.String(), "Total entries: 3")
	assert.Contains(t, buf.String(), "nulls: 1 (33.3%)")
}
