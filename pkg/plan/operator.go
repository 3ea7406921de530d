package plan

import (
	"fmt"
	"strings"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
)

// Kind tags the operator variant.
type Kind int

const (
	KindIndexScan Kind = iota
	KindProject
	KindLimit
)

func (k Kind) String() string {
	switch k {
	case KindIndexScan:
		return "IndexScan"
	case KindProject:
		return "Project"
	case KindLimit:
		return "Limit"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IndexScan reads an index range in a requested order.
type IndexScan struct {
	Index    *database.Index
	KeyRange IndexKeyRange
	Ordering Ordering

	plan ScanPlan
}

// Plan returns the scan plan resolved when the operator was built.
func (s *IndexScan) Plan() ScanPlan {
	return s.plan
}

// Project keeps a subset of its input's fields.
type Project struct {
	Input     *Operator
	Positions []int

	rowType *database.RowType
}

// Limit skips Offset rows of its input and then returns at most Count rows.
// A negative Count means no limit.
type Limit struct {
	Input  *Operator
	Offset int
	Count  int
}

// Operator is an immutable physical plan node. Exactly one of the config
// pointers is set, the one matching Kind. An operator can create any number
// of independent cursors.
type Operator struct {
	Kind Kind

	Scan    *IndexScan
	Project *Project
	Limit   *Limit
}

// NewIndexScan validates the ordering and key range against ix and resolves
// the scan plan.
func NewIndexScan(ix *database.Index, keyRange IndexKeyRange, ordering Ordering) (*Operator, error) {
	if ix == nil {
		return nil, errs.Newf(errs.KindConfiguration, "index scan", "index is required")
	}
	if err := keyRange.validate(ix); err != nil {
		return nil, err
	}
	p, err := Resolve(ix.Directions(), ordering)
	if err != nil {
		return nil, err
	}
	return &Operator{
		Kind: KindIndexScan,
		Scan: &IndexScan{
			Index:    ix,
			KeyRange: keyRange,
			Ordering: append(Ordering(nil), ordering...),
			plan:     p,
		},
	}, nil
}

func NewProject(input *Operator, positions []int) (*Operator, error) {
	if input == nil {
		return nil, errs.Newf(errs.KindConfiguration, "project", "input is required")
	}
	rt := input.RowType()
	for _, p := range positions {
		if p < 0 || p >= rt.Arity() {
			return nil, errs.Newf(errs.KindConfiguration, "project", "position %d is out of range for %s", p, rt)
		}
	}
	positions = append([]int(nil), positions...)
	return &Operator{
		Kind:    KindProject,
		Project: &Project{Input: input, Positions: positions, rowType: rt.Project(positions)},
	}, nil
}

func NewLimit(input *Operator, offset, count int) (*Operator, error) {
	if input == nil {
		return nil, errs.Newf(errs.KindConfiguration, "limit", "input is required")
	}
	if offset < 0 {
		return nil, errs.Newf(errs.KindConfiguration, "limit", "negative offset %d", offset)
	}
	return &Operator{Kind: KindLimit, Limit: &Limit{Input: input, Offset: offset, Count: count}}, nil
}

// Cursor creates a closed cursor for one execution under qc.
func (o *Operator) Cursor(qc *QueryContext) Cursor {
	switch o.Kind {
	case KindIndexScan:
		return newIndexCursor(qc, o.Scan)
	case KindProject:
		return &projectCursor{input: o.Project.Input.Cursor(qc), project: o.Project}
	case KindLimit:
		return &limitCursor{input: o.Limit.Input.Cursor(qc), limit: o.Limit}
	default:
		panic(fmt.Sprintf("plan: unknown operator kind %d", o.Kind))
	}
}

// RowType is the type of the rows the operator's cursors return.
func (o *Operator) RowType() *database.RowType {
	switch o.Kind {
	case KindIndexScan:
		return o.Scan.Index.RowType()
	case KindProject:
		return o.Project.rowType
	case KindLimit:
		return o.Limit.Input.RowType()
	default:
		return nil
	}
}

func (o *Operator) Children() []*Operator {
	switch o.Kind {
	case KindProject:
		return []*Operator{o.Project.Input}
	case KindLimit:
		return []*Operator{o.Limit.Input}
	default:
		return nil
	}
}

// Params lists the parameter positions referenced anywhere below o.
func (o *Operator) Params() []int {
	if o.Kind == KindIndexScan {
		return o.Scan.KeyRange.Params()
	}
	var out []int
	for _, c := range o.Children() {
		out = append(out, c.Params()...)
	}
	return out
}

func (o *Operator) Explain() string {
	switch o.Kind {
	case KindIndexScan:
		s := o.Scan
		return fmt.Sprintf("IndexScan(%s, range=%s, order=%s, plan=%s)",
			s.Index.Name, s.KeyRange, s.Ordering.Format(s.Index.RowType()), s.plan)
	case KindProject:
		names := make([]string, len(o.Project.Positions))
		in := o.Project.Input.RowType()
		for i, p := range o.Project.Positions {
			names[i] = in.Field(p).Name
		}
		return fmt.Sprintf("Project(%s)", strings.Join(names, ", "))
	case KindLimit:
		if o.Limit.Offset > 0 {
			return fmt.Sprintf("Limit(%d, offset=%d)", o.Limit.Count, o.Limit.Offset)
		}
		return fmt.Sprintf("Limit(%d)", o.Limit.Count)
	default:
		return o.Kind.String()
	}
}
