// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rangemap

import (
	"iter"
	"slices"
	"sort"
)

// Entry is one run of the map: every index in Range holds Value.
type Entry[I Index, T any] struct {
	Range Range[I]
	Value T
}

// Merged is one item of a [Map.Merge] sequence. Start is the value of the
// receiver over Range, End the value of the other map.
type Merged[I Index, T any] struct {
	Range Range[I]
	Start T
	End   T
}

// Map is a sparse run-length map from index ranges to values.
//
// Entries are sorted, never overlap, and two touching entries never hold
// equal values once a mutation has completed. Gaps between entries are
// untracked. The zero value is an empty map ready to use.
//
// Map is not safe for concurrent mutation.
type Map[I Index, T comparable] struct {
	entries []Entry[I, T]
}

// FromEntries builds a map from entries sorted by range start.
// It panics if the entries overlap or are out of order.
func FromEntries[I Index, T comparable](entries ...Entry[I, T]) Map[I, T] {
	var m Map[I, T]
	for _, e := range entries {
		m.Append(e.Range, e.Value)
	}
	return m
}

// Len returns the number of stored runs.
func (m *Map[I, T]) Len() int {
	return len(m.entries)
}

// IsEmpty reports whether nothing is tracked.
func (m *Map[I, T]) IsEmpty() bool {
	return len(m.entries) == 0
}

// Entries returns a copy of the stored runs.
func (m *Map[I, T]) Entries() []Entry[I, T] {
	return slices.Clone(m.entries)
}

// All iterates the stored runs in ascending order.
func (m *Map[I, T]) All() iter.Seq2[Range[I], T] {
	return func(yield func(Range[I], T) bool) {
		for _, e := range m.entries {
			if !yield(e.Range, e.Value) {
				return
			}
		}
	}
}

// Overlapping iterates the stored runs that share at least one index with r.
// Runs are yielded whole, not clipped to r.
func (m *Map[I, T]) Overlapping(r Range[I]) iter.Seq2[Range[I], T] {
	return func(yield func(Range[I], T) bool) {
		for i := m.search(r.Start); i < len(m.entries); i++ {
			e := m.entries[i]
			if e.Range.Start >= r.End {
				return
			}
			if !yield(e.Range, e.Value) {
				return
			}
		}
	}
}

// Get returns the value stored at index x.
func (m *Map[I, T]) Get(x I) (T, bool) {
	i := m.search(x)
	if i < len(m.entries) && m.entries[i].Range.Contains(x) {
		return m.entries[i].Value, true
	}
	var zero T
	return zero, false
}

// Covered returns the total number of tracked indices.
func (m *Map[I, T]) Covered() I {
	var n I
	for _, e := range m.entries {
		n += e.Range.Len()
	}
	return n
}

// Clear removes every run, keeping the allocated storage.
func (m *Map[I, T]) Clear() {
	m.entries = m.entries[:0]
}

// Append adds a run after the last stored one. A run touching the last
// entry with an equal value extends it instead.
// It panics if r is empty or starts before the end of the last run.
func (m *Map[I, T]) Append(r Range[I], v T) {
	if r.Empty() {
		panic("rangemap: append of empty range " + r.String())
	}
	if n := len(m.entries); n > 0 {
		last := &m.entries[n-1]
		if r.Start < last.Range.End {
			panic("rangemap: append of " + r.String() + " before " + last.Range.String())
		}
		if last.Range.End == r.Start && last.Value == v {
			last.Range.End = r.End
			return
		}
	}
	m.entries = append(m.entries, Entry[I, T]{Range: r, Value: v})
}

// Isolate makes the run boundaries line up with r and returns the runs
// covering exactly r. A run straddling r.Start or r.End is split, both
// pieces keeping its value; indices of r that were untracked get def.
//
// The returned slice aliases the map storage so callers can update values in
// place. It is valid until the next mutation. Isolate may leave touching
// runs with equal values behind; call Coalesce once the updates are done.
func (m *Map[I, T]) Isolate(r Range[I], def T) []Entry[I, T] {
	if r.Empty() {
		return nil
	}

	first := m.search(r.Start)
	out := make([]Entry[I, T], 0, len(m.entries)+3)
	out = append(out, m.entries[:first]...)

	var tail []Entry[I, T]
	k := first
	pos := r.Start
	mid := len(out)
	for ; k < len(m.entries); k++ {
		e := m.entries[k]
		if e.Range.Start >= r.End {
			break
		}
		if e.Range.Start < r.Start {
			out = append(out, Entry[I, T]{Range: R(e.Range.Start, r.Start), Value: e.Value})
			mid = len(out)
			e.Range.Start = r.Start
		}
		if pos < e.Range.Start {
			out = append(out, Entry[I, T]{Range: R(pos, e.Range.Start), Value: def})
		}
		if e.Range.End > r.End {
			out = append(out, Entry[I, T]{Range: R(e.Range.Start, r.End), Value: e.Value})
			tail = append(tail, Entry[I, T]{Range: R(r.End, e.Range.End), Value: e.Value})
			pos = r.End
			k++
			break
		}
		out = append(out, e)
		pos = e.Range.End
	}
	if pos < r.End {
		out = append(out, Entry[I, T]{Range: R(pos, r.End), Value: def})
	}
	end := len(out)
	out = append(out, tail...)
	out = append(out, m.entries[k:]...)

	m.entries = out
	return m.entries[mid:end:end]
}

// Coalesce joins touching runs that hold equal values.
func (m *Map[I, T]) Coalesce() {
	if len(m.entries) < 2 {
		return
	}
	w := 0
	for _, e := range m.entries[1:] {
		cur := &m.entries[w]
		if cur.Range.End == e.Range.Start && cur.Value == e.Value {
			cur.Range.End = e.Range.End
			continue
		}
		w++
		m.entries[w] = e
	}
	m.entries = m.entries[:w+1]
}

// Merge walks the union of the ranges tracked by m and o. Each yielded item
// covers a maximal range over which both sides are constant; a side that
// does not track the range contributes def. Neither map is modified, but
// both must stay unmodified until the sequence is exhausted.
func (m *Map[I, T]) Merge(o *Map[I, T], def T) iter.Seq[Merged[I, T]] {
	return func(yield func(Merged[I, T]) bool) {
		a, b := m.entries, o.entries
		var (
			i, j    int
			pos     I
			started bool
			pending Merged[I, T]
			have    bool
		)
		for {
			for started && i < len(a) && a[i].Range.End <= pos {
				i++
			}
			for started && j < len(b) && b[j].Range.End <= pos {
				j++
			}
			if i >= len(a) && j >= len(b) {
				break
			}

			// Skip gaps tracked by neither side.
			var next I
			switch {
			case i >= len(a):
				next = b[j].Range.Start
			case j >= len(b):
				next = a[i].Range.Start
			default:
				next = min(a[i].Range.Start, b[j].Range.Start)
			}
			if !started || next > pos {
				pos, started = next, true
			}

			start, end := def, def
			var stop I
			bounded := false
			bound := func(x I) {
				if !bounded || x < stop {
					stop = x
					bounded = true
				}
			}
			if i < len(a) {
				if a[i].Range.Start <= pos {
					start = a[i].Value
					bound(a[i].Range.End)
				} else {
					bound(a[i].Range.Start)
				}
			}
			if j < len(b) {
				if b[j].Range.Start <= pos {
					end = b[j].Value
					bound(b[j].Range.End)
				} else {
					bound(b[j].Range.Start)
				}
			}

			piece := Merged[I, T]{Range: R(pos, stop), Start: start, End: end}
			pos = stop

			if have && pending.Range.End == piece.Range.Start &&
				pending.Start == piece.Start && pending.End == piece.End {
				pending.Range.End = piece.Range.End
				continue
			}
			if have && !yield(pending) {
				return
			}
			pending, have = piece, true
		}
		if have {
			yield(pending)
		}
	}
}

// Clone returns a deep copy of m.
func (m *Map[I, T]) Clone() Map[I, T] {
	return Map[I, T]{entries: slices.Clone(m.entries)}
}

// Equal reports whether m and o store the same runs.
func (m *Map[I, T]) Equal(o *Map[I, T]) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for i := range m.entries {
		if m.entries[i].Range != o.entries[i].Range || m.entries[i].Value != o.entries[i].Value {
			return false
		}
	}
	return true
}

// search returns the index of the first run ending after x.
func (m *Map[I, T]) search(x I) int {
	return sort.Search(len(m.entries), func(k int) bool {
		return m.entries[k].Range.End > x
	})
}
