package plan

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
	"github.com/bisegni/ixscan/pkg/expr"
)

// CursorState is the lifecycle position of a Cursor.
type CursorState int

const (
	StateClosed CursorState = iota
	StateOpen
	StateExhausted
	StateDestroyed
)

func (s CursorState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateExhausted:
		return "EXHAUSTED"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// Cursor pulls the rows of one operator execution. A cursor is not safe for
// concurrent use.
type Cursor interface {
	// Open starts an execution with b. The cursor must be closed.
	Open(b expr.Bindings) error
	// Next returns the next row, or ok == false once the rows run out.
	Next() (row database.Row, ok bool, err error)
	// Close releases storage resources. It can be called any number of times
	// in any state, and the cursor can then be opened again.
	Close() error
	State() CursorState
}

// indexCursor reads the keys of one index scan and decodes them into rows.
type indexCursor struct {
	scan   *IndexScan
	qc     *QueryContext
	logger *slog.Logger

	state CursorState
	src   keySource
	rows  int
}

func newIndexCursor(qc *QueryContext, scan *IndexScan) *indexCursor {
	return &indexCursor{
		scan: scan,
		qc:   qc,
		logger: qc.logger.With(
			"cursor_id", uuid.NewString(),
			"index", scan.Index.Name,
			"plan", scan.plan.Shape(),
		),
	}
}

func (c *indexCursor) State() CursorState {
	return c.state
}

func (c *indexCursor) Open(b expr.Bindings) error {
	switch c.state {
	case StateClosed:
	case StateDestroyed:
		return errs.New(errs.KindUsage, "open", errs.ErrCursorDestroyed)
	default:
		return errs.New(errs.KindUsage, "open", errs.ErrCursorOpen)
	}

	rng, err := EvaluateBounds(c.qc.codec, c.scan.Index, c.scan.KeyRange, b)
	if err != nil {
		c.recordFault(err)
		return err
	}
	c.src = newKeySource(c.qc, c.scan.Index, rng, c.scan.plan.Segments)
	c.state = StateOpen
	c.rows = 0
	c.qc.metrics.CursorOpened(c.scan.Index.Name, c.scan.plan.Shape())
	c.logger.Debug("cursor opened", "range", c.scan.KeyRange.String(), "ordering", c.scan.Ordering.String())
	return nil
}

func (c *indexCursor) Next() (database.Row, bool, error) {
	switch c.state {
	case StateOpen:
	case StateExhausted:
		return database.Row{}, false, nil
	case StateDestroyed:
		return database.Row{}, false, errs.New(errs.KindUsage, "next", errs.ErrCursorDestroyed)
	default:
		return database.Row{}, false, errs.New(errs.KindUsage, "next", errs.ErrCursorClosed)
	}

	key, ok, err := c.src.next()
	if err != nil {
		return database.Row{}, false, c.destroy(err)
	}
	if !ok {
		c.state = StateExhausted
		c.release()
		c.logger.Debug("cursor exhausted", "rows", c.rows)
		return database.Row{}, false, nil
	}
	row, err := c.qc.codec.DecodeRow(c.scan.Index, key)
	if err != nil {
		return database.Row{}, false, c.destroy(errs.New(errs.KindDecode, "next", err))
	}
	c.rows++
	c.qc.metrics.RowReturned(c.scan.Index.Name)
	return row, true, nil
}

func (c *indexCursor) Close() error {
	c.release()
	if c.state != StateDestroyed {
		c.state = StateClosed
	}
	return nil
}

func (c *indexCursor) release() {
	if c.src == nil {
		return
	}
	if err := c.src.close(); err != nil {
		c.logger.Warn("failed to close range iterator", "error", err)
	}
	c.src = nil
}

func (c *indexCursor) destroy(err error) error {
	c.state = StateDestroyed
	c.release()
	c.recordFault(err)
	c.logger.Warn("cursor destroyed", "error", err, "rows", c.rows)
	return err
}

func (c *indexCursor) recordFault(err error) {
	if k, ok := errs.KindOf(err); ok {
		c.qc.metrics.Fault(k.String())
	}
}
