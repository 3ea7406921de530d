package plan

import (
	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/expr"
)

// --- Project Cursor ---

type projectCursor struct {
	input   Cursor
	project *Project
}

func (c *projectCursor) Open(b expr.Bindings) error {
	return c.input.Open(b)
}

func (c *projectCursor) Next() (database.Row, bool, error) {
	row, ok, err := c.input.Next()
	if err != nil || !ok {
		return database.Row{}, false, err
	}
	return row.Project(c.project.rowType, c.project.Positions), true, nil
}

func (c *projectCursor) Close() error {
	return c.input.Close()
}

func (c *projectCursor) State() CursorState {
	return c.input.State()
}

// --- Limit Cursor ---

type limitCursor struct {
	input Cursor
	limit *Limit

	skipped  int
	returned int
	done     bool
}

func (c *limitCursor) Open(b expr.Bindings) error {
	if err := c.input.Open(b); err != nil {
		return err
	}
	c.skipped, c.returned, c.done = 0, 0, false
	return nil
}

func (c *limitCursor) Next() (database.Row, bool, error) {
	if c.done {
		return database.Row{}, false, nil
	}
	for c.skipped < c.limit.Offset {
		_, ok, err := c.input.Next()
		if err != nil || !ok {
			return database.Row{}, false, err
		}
		c.skipped++
	}
	if c.limit.Count >= 0 && c.returned >= c.limit.Count {
		c.done = true
		return database.Row{}, false, nil
	}
	row, ok, err := c.input.Next()
	if err != nil || !ok {
		return database.Row{}, false, err
	}
	c.returned++
	return row, true, nil
}

func (c *limitCursor) Close() error {
	c.done = false
	return c.input.Close()
}

func (c *limitCursor) State() CursorState {
	s := c.input.State()
	if c.done && s == StateOpen {
		return StateExhausted
	}
	return s
}

// --- Row Iterator ---

// Rows opens c with b and adapts it to a database.RowIterator. Closing the
// iterator closes the cursor.
func Rows(c Cursor, b expr.Bindings) (database.RowIterator, error) {
	if err := c.Open(b); err != nil {
		return nil, err
	}
	return &cursorIterator{cursor: c}, nil
}

type cursorIterator struct {
	cursor Cursor
	row    database.Row
	err    error
}

func (it *cursorIterator) Next() bool {
	if it.err != nil {
		return false
	}
	row, ok, err := it.cursor.Next()
	if err != nil {
		it.err = err
		return false
	}
	it.row = row
	return ok
}

func (it *cursorIterator) Row() database.Row {
	return it.row
}

func (it *cursorIterator) Error() error {
	return it.err
}

func (it *cursorIterator) Close() error {
	return it.cursor.Close()
}
