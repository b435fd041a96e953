// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rangemap

import "fmt"

// Index is the constraint for range bounds.
type Index interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~int8 | ~int16 | ~int32 | ~int64 | ~int
}

// Range is a half-open interval [Start, End).
type Range[I Index] struct {
	Start I
	End   I
}

// R is shorthand for Range{Start: start, End: end}.
func R[I Index](start, end I) Range[I] {
	return Range[I]{Start: start, End: end}
}

// Len returns the number of indices in the range.
func (r Range[I]) Len() I {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range contains no indices.
func (r Range[I]) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether x lies in the range.
func (r Range[I]) Contains(x I) bool {
	return r.Start <= x && x < r.End
}

// Overlaps reports whether r and o share at least one index.
func (r Range[I]) Overlaps(o Range[I]) bool {
	return r.Start < o.End && o.Start < r.End
}

// Intersect returns the overlap of r and o. If they do not overlap the
// result is empty with unspecified bounds.
func (r Range[I]) Intersect(o Range[I]) Range[I] {
	if r.Start < o.Start {
		r.Start = o.Start
	}
	if r.End > o.End {
		r.End = o.End
	}
	if r.End < r.Start {
		r.End = r.Start
	}
	return r
}

// String formats the range as "start..end".
func (r Range[I]) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}
