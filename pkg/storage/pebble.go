package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Options configures a pebble-backed store.
type Options struct {
	Dir      string
	InMemory bool
	// Sync makes Apply wait for the write-ahead log to reach disk.
	Sync   bool
	Logger *slog.Logger
}

// PebbleStore keeps index entries in a pebble database.
type PebbleStore struct {
	db     *pebble.DB
	sync   bool
	logger *slog.Logger
}

func Open(opts Options) (*PebbleStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	po := &pebble.Options{Logger: pebbleLogger{logger.With("component", "pebble")}}
	dir := opts.Dir
	if opts.InMemory {
		po.FS = vfs.NewMem()
		dir = ""
	} else if dir == "" {
		return nil, fmt.Errorf("storage: data directory is required unless in-memory")
	}
	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", dir, err)
	}
	logger.Debug("store opened", "dir", dir, "in_memory", opts.InMemory)
	return &PebbleStore{db: db, sync: opts.Sync, logger: logger}, nil
}

func (s *PebbleStore) OpenRange(ctx context.Context, r KeyRange, reverse bool) (Iterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower, upper := r.Span()
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("storage: new iterator: %w", err)
	}
	return &pebbleIterator{iter: it, reverse: reverse}, nil
}

func (s *PebbleStore) Apply(ctx context.Context, muts []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, m := range muts {
		var err error
		if m.Delete {
			err = b.Delete(m.Key, nil)
		} else {
			err = b.Set(m.Key, m.Value, nil)
		}
		if err != nil {
			return fmt.Errorf("storage: batch: %w", err)
		}
	}
	opt := pebble.NoSync
	if s.sync {
		opt = pebble.Sync
	}
	if err := b.Commit(opt); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

type pebbleIterator struct {
	iter    *pebble.Iterator
	reverse bool
	started bool
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		if it.reverse {
			return it.iter.Last()
		}
		return it.iter.First()
	}
	if it.reverse {
		return it.iter.Prev()
	}
	return it.iter.Next()
}

func (it *pebbleIterator) Key() []byte {
	return it.iter.Key()
}

func (it *pebbleIterator) Value() []byte {
	return it.iter.Value()
}

func (it *pebbleIterator) Error() error {
	return it.iter.Error()
}

func (it *pebbleIterator) Close() error {
	return it.iter.Close()
}

// pebbleLogger routes pebble's log output into slog.
type pebbleLogger struct {
	l *slog.Logger
}

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
}

// Fatalf panics so that deferred cleanup in the caller still runs.
func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.l.Error(msg)
	panic(msg)
}
