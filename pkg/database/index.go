package database

import (
	"fmt"
	"strings"
)

// Direction is the native order of an index column in storage.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// IndexColumn is one key column of an index.
type IndexColumn struct {
	Name      string
	Type      FieldType
	Nullable  bool
	Direction Direction
}

// Index describes an ordered, key-encoded projection of table columns. The
// column order and directions match the byte order of the encoded keys. By
// convention the last column identifies the row.
type Index struct {
	ID      uint32
	Name    string
	Table   string
	Columns []IndexColumn

	rowType *RowType
}

func NewIndex(id uint32, name, table string, columns []IndexColumn) (*Index, error) {
	if name == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("index %s has no columns", name)
	}
	seen := make(map[string]bool, len(columns))
	fields := make([]Field, len(columns))
	for i, c := range columns {
		key := strings.ToLower(c.Name)
		if key == "" {
			return nil, fmt.Errorf("index %s: column %d has no name", name, i)
		}
		if seen[key] {
			return nil, fmt.Errorf("index %s: duplicate column %s", name, c.Name)
		}
		seen[key] = true
		if !c.Type.Valid() {
			return nil, fmt.Errorf("index %s: column %s has invalid type", name, c.Name)
		}
		if c.Direction != Ascending && c.Direction != Descending {
			return nil, fmt.Errorf("index %s: column %s has invalid direction", name, c.Name)
		}
		fields[i] = Field{Name: c.Name, Type: c.Type, Nullable: c.Nullable}
	}
	return &Index{
		ID:      id,
		Name:    name,
		Table:   table,
		Columns: append([]IndexColumn(nil), columns...),
		rowType: NewRowType(fields...),
	}, nil
}

// RowType is the schema of rows decoded from this index.
func (ix *Index) RowType() *RowType {
	return ix.rowType
}

// Directions returns the native direction of each column.
func (ix *Index) Directions() []Direction {
	dirs := make([]Direction, len(ix.Columns))
	for i, c := range ix.Columns {
		dirs[i] = c.Direction
	}
	return dirs
}

// ColumnIndex returns the position of the named column or -1.
func (ix *Index) ColumnIndex(name string) int {
	return ix.rowType.FieldIndex(name)
}

func (ix *Index) String() string {
	cols := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		cols[i] = c.Name
		if c.Direction == Descending {
			cols[i] += " DESC"
		}
	}
	return fmt.Sprintf("%s(%s)", ix.Name, strings.Join(cols, ", "))
}
