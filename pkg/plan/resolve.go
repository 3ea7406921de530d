package plan

import (
	"fmt"
	"strings"

	"github.com/bisegni/ixscan/pkg/database"
)

// Segment is a maximal run of ordering columns [Start, End) that share one
// effective direction. Reverse means the run is read against the index's
// native key order.
type Segment struct {
	Start   int
	End     int
	Reverse bool
}

// ScanPlan is how a scan satisfies its ordering. A plan with one segment is a
// single unidirectional range read. With more segments the range is split
// into groups of equal values on the columns before each later segment: the
// first segment fixes the order groups are visited in, and each group is read
// with the remaining segments. The last segment's direction also orders any
// index columns the ordering leaves out.
type ScanPlan struct {
	Segments []Segment
}

// Mixed reports whether the plan needs more than one physical range.
func (p ScanPlan) Mixed() bool {
	return len(p.Segments) > 1
}

// Reverse reports the direction of the outermost traversal.
func (p ScanPlan) Reverse() bool {
	return len(p.Segments) > 0 && p.Segments[0].Reverse
}

// Shape names the plan for logs and metrics.
func (p ScanPlan) Shape() string {
	switch {
	case p.Mixed():
		return "mixed"
	case p.Reverse():
		return "reverse"
	default:
		return "forward"
	}
}

func (p ScanPlan) String() string {
	if !p.Mixed() {
		return p.Shape()
	}
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		dir := "fwd"
		if s.Reverse {
			dir = "rev"
		}
		parts[i] = fmt.Sprintf("[%d,%d) %s", s.Start, s.End, dir)
	}
	return "mixed " + strings.Join(parts, " / ")
}

// Resolve derives the scan plan from the native column directions and the
// requested ordering alone.
func Resolve(directions []database.Direction, ordering Ordering) (ScanPlan, error) {
	if err := validateOrdering(len(directions), ordering); err != nil {
		return ScanPlan{}, err
	}
	if len(ordering) == 0 {
		return ScanPlan{Segments: []Segment{{}}}, nil
	}
	var segments []Segment
	for i, c := range ordering {
		nativeAsc := directions[c.Position] == database.Ascending
		reverse := c.Ascending != nativeAsc
		if n := len(segments); n > 0 && segments[n-1].Reverse == reverse {
			segments[n-1].End = i + 1
			continue
		}
		segments = append(segments, Segment{Start: i, End: i + 1, Reverse: reverse})
	}
	return ScanPlan{Segments: segments}, nil
}
