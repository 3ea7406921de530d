// Package loader writes records into index key space.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/keys"
	"github.com/bisegni/ixscan/pkg/logging"
	"github.com/bisegni/ixscan/pkg/metrics"
	"github.com/bisegni/ixscan/pkg/parser"
	"github.com/bisegni/ixscan/pkg/storage"
)

// DefaultBatchSize is the number of index entries written per store batch.
const DefaultBatchSize = 1000

// Loader encodes rows into index keys and writes them to a store.
type Loader struct {
	store     storage.Store
	codec     *keys.Codec
	logger    *slog.Logger
	metrics   *metrics.Metrics
	batchSize int
}

type Option func(*Loader)

func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(ld *Loader) { ld.metrics = m }
}

func WithCodec(c *keys.Codec) Option {
	return func(ld *Loader) { ld.codec = c }
}

func WithBatchSize(n int) Option {
	return func(ld *Loader) { ld.batchSize = n }
}

func New(store storage.Store, opts ...Option) *Loader {
	ld := &Loader{store: store}
	for _, o := range opts {
		o(ld)
	}
	if ld.codec == nil {
		ld.codec = keys.NewCodec()
	}
	if ld.logger == nil {
		ld.logger = logging.Discard()
	}
	if ld.batchSize <= 0 {
		ld.batchSize = DefaultBatchSize
	}
	return ld
}

// Insert writes one index entry per row.
func (ld *Loader) Insert(ctx context.Context, ix *database.Index, rows ...database.Row) error {
	w := ld.newWriter(ix)
	for _, r := range rows {
		if err := w.add(ctx, r); err != nil {
			return err
		}
	}
	_, err := w.flush(ctx)
	return err
}

// LoadRecords maps record fields to index columns by name. A missing field
// is NULL.
func (ld *Loader) LoadRecords(ctx context.Context, ix *database.Index, records []parser.Record) (int, error) {
	w := ld.newWriter(ix)
	for i, rec := range records {
		row, err := RowFromRecord(ix, rec)
		if err != nil {
			return w.total, fmt.Errorf("record %d: %w", i, err)
		}
		if err := w.add(ctx, row); err != nil {
			return w.total, err
		}
	}
	return w.flush(ctx)
}

// LoadFile streams a JSON or JSONL file into ix. See parser.NewParser for the
// accepted sources.
func (ld *Loader) LoadFile(ctx context.Context, ix *database.Index, source string) (int, error) {
	p, err := parser.NewParser(source)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	w := ld.newWriter(ix)
	n := 0
	err = p.ForEachRecord(func(rec parser.Record) error {
		n++
		row, err := RowFromRecord(ix, rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		return w.add(ctx, row)
	})
	if err != nil {
		return w.total, err
	}
	total, err := w.flush(ctx)
	if err == nil {
		ld.logger.Info("index loaded", "index", ix.Name, "source", source, "rows", total)
	}
	return total, err
}

// RowFromRecord builds an index row from a record's fields.
func RowFromRecord(ix *database.Index, rec parser.Record) (database.Row, error) {
	values := make([]interface{}, len(ix.Columns))
	for i, col := range ix.Columns {
		values[i] = rec[col.Name]
	}
	return database.MakeRow(ix.RowType(), values...)
}

type batchWriter struct {
	ld    *Loader
	ix    *database.Index
	muts  []storage.Mutation
	total int
}

func (ld *Loader) newWriter(ix *database.Index) *batchWriter {
	return &batchWriter{ld: ld, ix: ix}
}

func (w *batchWriter) add(ctx context.Context, row database.Row) error {
	key, err := w.ld.codec.EncodeKey(w.ix, row)
	if err != nil {
		return fmt.Errorf("encode %s: %w", row, err)
	}
	w.muts = append(w.muts, storage.Mutation{Key: key, Value: []byte{}})
	if len(w.muts) >= w.ld.batchSize {
		_, err = w.flush(ctx)
	}
	return err
}

func (w *batchWriter) flush(ctx context.Context) (int, error) {
	if len(w.muts) == 0 {
		return w.total, nil
	}
	if err := w.ld.store.Apply(ctx, w.muts); err != nil {
		return w.total, fmt.Errorf("write %s: %w", w.ix.Name, err)
	}
	w.ld.metrics.Loaded(w.ix.Name, len(w.muts))
	w.ld.logger.Debug("batch written", "index", w.ix.Name, "entries", len(w.muts))
	w.total += len(w.muts)
	w.muts = nil
	return w.total, nil
}
