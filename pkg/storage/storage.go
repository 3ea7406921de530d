// Package storage is the ordered key-value substrate index scans read from.
// Implementations only need ordered range reads in either direction; the
// snapshot and durability guarantees are theirs.
package storage

import (
	"bytes"
	"context"
)

// KeyRange bounds a range read. A nil Low or High leaves that side open.
type KeyRange struct {
	Low           []byte
	High          []byte
	LowInclusive  bool
	HighInclusive bool
}

// Span is the half-open form [lower, upper) of r; nil means unbounded.
func (r KeyRange) Span() (lower, upper []byte) {
	if r.Low != nil {
		lower = r.Low
		if !r.LowInclusive {
			lower = successor(r.Low)
		}
	}
	if r.High != nil {
		upper = r.High
		if r.HighInclusive {
			upper = successor(r.High)
		}
	}
	return lower, upper
}

// HalfOpen builds a range from a half-open span.
func HalfOpen(lower, upper []byte) KeyRange {
	return KeyRange{Low: lower, High: upper, LowInclusive: true}
}

// Empty reports whether no key can fall inside r.
func (r KeyRange) Empty() bool {
	lower, upper := r.Span()
	return lower != nil && upper != nil && bytes.Compare(lower, upper) >= 0
}

// Intersect narrows r to the keys also inside o.
func (r KeyRange) Intersect(o KeyRange) KeyRange {
	al, au := r.Span()
	bl, bu := o.Span()
	lower := al
	if lower == nil || (bl != nil && bytes.Compare(bl, lower) > 0) {
		lower = bl
	}
	upper := au
	if upper == nil || (bu != nil && bytes.Compare(bu, upper) < 0) {
		upper = bu
	}
	return HalfOpen(lower, upper)
}

// Contains reports whether key lies inside r.
func (r KeyRange) Contains(key []byte) bool {
	lower, upper := r.Span()
	if lower != nil && bytes.Compare(key, lower) < 0 {
		return false
	}
	if upper != nil && bytes.Compare(key, upper) >= 0 {
		return false
	}
	return true
}

func successor(k []byte) []byte {
	s := make([]byte, len(k)+1)
	copy(s, k)
	return s
}

// Iterator walks one range in one direction. Key and Value are only valid
// until the next call to Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Mutation is one write applied by Store.Apply.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Store is the range-read interface consumed by cursors, plus the batched
// write used to load indexes.
type Store interface {
	// OpenRange opens an iterator over r, ascending or, when reverse is set,
	// descending key order.
	OpenRange(ctx context.Context, r KeyRange, reverse bool) (Iterator, error)
	// Apply writes all mutations atomically.
	Apply(ctx context.Context, muts []Mutation) error
	Close() error
}
