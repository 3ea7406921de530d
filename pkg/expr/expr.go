package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
)

// Bindings maps parameter positions to runtime values for one execution.
type Bindings interface {
	Value(position int) (interface{}, bool)
}

// ArrayBindings binds positions 0..n-1 densely.
type ArrayBindings []interface{}

func (b ArrayBindings) Value(position int) (interface{}, bool) {
	if position < 0 || position >= len(b) {
		return nil, false
	}
	return b[position], true
}

// SparseBindings binds an arbitrary set of positions, for parameters supplied
// out of order or with gaps.
type SparseBindings map[int]interface{}

func (b SparseBindings) Value(position int) (interface{}, bool) {
	v, ok := b[position]
	return v, ok
}

// Copy returns a sparse copy of the given positions of src; positions src
// does not bind are left out.
func Copy(src Bindings, positions []int) SparseBindings {
	out := make(SparseBindings, len(positions))
	for _, p := range positions {
		if v, ok := src.Value(p); ok {
			out[p] = v
		}
	}
	return out
}

// None binds nothing.
var None Bindings = ArrayBindings(nil)

// Expression is a value computed when a cursor opens.
type Expression interface {
	Evaluate(b Bindings) (interface{}, error)
	String() string
}

// Literal is a constant. A nil Value is SQL NULL.
type Literal struct {
	Value interface{}
}

func (l Literal) Evaluate(Bindings) (interface{}, error) {
	return l.Value, nil
}

func (l Literal) String() string {
	return database.FormatValue(l.Value)
}

// Param reads the parameter bound at Position.
type Param struct {
	Position int
}

func (p Param) Evaluate(b Bindings) (interface{}, error) {
	if b == nil {
		b = None
	}
	v, ok := b.Value(p.Position)
	if !ok {
		return nil, errs.New(errs.KindBinding, "evaluate", fmt.Errorf("$%d: %w", p.Position, errs.ErrMissingParameter))
	}
	return v, nil
}

func (p Param) String() string {
	return fmt.Sprintf("$%d", p.Position)
}

// Params lists the parameter positions referenced by exprs, sorted and unique.
func Params(exprs ...Expression) []int {
	seen := map[int]bool{}
	var out []int
	for _, e := range exprs {
		if p, ok := e.(Param); ok && !seen[p.Position] {
			seen[p.Position] = true
			out = append(out, p.Position)
		}
	}
	sort.Ints(out)
	return out
}

// Join renders a list of expressions as a tuple.
func Join(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
