// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rangemap provides a sparse, run-length map keyed by index ranges.
//
// A [Map] stores sorted, disjoint runs of equal values. It is tuned for few,
// coarse runs (texture array layers, mostly touched in large slices) rather
// than dense per-index storage; every operation is linear in the number of
// runs.
//
//	var m rangemap.Map[uint32, string]
//	entries := m.Isolate(rangemap.R[uint32](0, 6), "")
//	for i := range entries {
//	    entries[i].Value = "sampled"
//	}
//	m.Coalesce()
//
// # Merging
//
// [Map.Merge] walks two maps side by side and yields every maximal range on
// which both are constant, substituting a default for the side that does not
// track it:
//
//	for piece := range a.Merge(&b, "") {
//	    fmt.Println(piece.Range, piece.Start, "->", piece.End)
//	}
package rangemap
