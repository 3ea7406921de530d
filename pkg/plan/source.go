package plan

import (
	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/errs"
	"github.com/bisegni/ixscan/pkg/keys"
	"github.com/bisegni/ixscan/pkg/storage"
)

// keySource yields physical keys in plan order. A returned key is only valid
// until the next call.
type keySource interface {
	next() ([]byte, bool, error)
	close() error
}

func newKeySource(qc *QueryContext, ix *database.Index, r storage.KeyRange, segments []Segment) keySource {
	if len(segments) == 1 {
		return &rangeSource{qc: qc, ix: ix, r: r, reverse: segments[0].Reverse}
	}
	return &groupSource{qc: qc, ix: ix, r: r, segments: segments}
}

// rangeSource is one unidirectional range read, opened on the first next.
type rangeSource struct {
	qc      *QueryContext
	ix      *database.Index
	r       storage.KeyRange
	reverse bool

	iter storage.Iterator
	done bool
}

func (s *rangeSource) next() ([]byte, bool, error) {
	if s.done {
		return nil, false, nil
	}
	if s.iter == nil {
		if s.r.Empty() {
			s.done = true
			return nil, false, nil
		}
		it, err := s.qc.store.OpenRange(s.qc.ctx, s.r, s.reverse)
		if err != nil {
			s.done = true
			return nil, false, errs.New(errs.KindStorage, "open range", err)
		}
		s.qc.metrics.RangeOpened(s.ix.Name)
		s.iter = it
	}
	if s.iter.Next() {
		k := s.iter.Key()
		if !s.r.Contains(k) {
			s.done = true
			s.release()
			return nil, false, errs.Newf(errs.KindStorage, "next", "store returned key %x outside the requested range", k)
		}
		return k, true, nil
	}
	err := s.iter.Error()
	s.done = true
	s.release()
	if err != nil {
		return nil, false, errs.New(errs.KindStorage, "next", err)
	}
	return nil, false, nil
}

func (s *rangeSource) release() error {
	if s.iter == nil {
		return nil
	}
	err := s.iter.Close()
	s.iter = nil
	return err
}

func (s *rangeSource) close() error {
	s.done = true
	return s.release()
}

// groupSource walks the distinct values of the columns before
// segments[0].End in segments[0]'s direction and reads each group with the
// remaining segments. Each group is found by reading the first key of what
// is left of the range, then the range is narrowed past that group.
type groupSource struct {
	qc       *QueryContext
	ix       *database.Index
	r        storage.KeyRange
	segments []Segment

	child keySource
	done  bool
}

func (s *groupSource) next() ([]byte, bool, error) {
	for {
		if s.child != nil {
			k, ok, err := s.child.next()
			if err != nil || ok {
				return k, ok, err
			}
			if err := s.child.close(); err != nil {
				return nil, false, errs.New(errs.KindStorage, "close range", err)
			}
			s.child = nil
		}
		if s.done {
			return nil, false, nil
		}
		prefix, ok, err := s.peekGroup()
		if err != nil {
			s.done = true
			return nil, false, err
		}
		if !ok {
			s.done = true
			return nil, false, nil
		}
		group := storage.HalfOpen(prefix, keys.PrefixEnd(prefix))
		s.child = newKeySource(s.qc, s.ix, s.r.Intersect(group), s.segments[1:])
		if s.segments[0].Reverse {
			s.r = s.r.Intersect(storage.HalfOpen(nil, prefix))
		} else if end := keys.PrefixEnd(prefix); end != nil {
			s.r = s.r.Intersect(storage.HalfOpen(end, nil))
		} else {
			s.done = true
		}
	}
}

// peekGroup returns the group prefix of the first remaining key.
func (s *groupSource) peekGroup() ([]byte, bool, error) {
	head := &rangeSource{qc: s.qc, ix: s.ix, r: s.r, reverse: s.segments[0].Reverse}
	defer head.close()
	k, ok, err := head.next()
	if err != nil || !ok {
		return nil, false, err
	}
	n, err := s.qc.codec.PrefixLen(s.ix, k, s.segments[0].End)
	if err != nil {
		return nil, false, errs.New(errs.KindDecode, "group prefix", err)
	}
	return append([]byte(nil), k[:n]...), true, nil
}

func (s *groupSource) close() error {
	s.done = true
	if s.child == nil {
		return nil
	}
	err := s.child.close()
	s.child = nil
	return err
}
