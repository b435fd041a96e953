package texstate

import (
	"fmt"
	"slices"

	"github.com/gogpu/texstate/rangemap"
	"github.com/gogpu/wgpu/core"
)

// MaxMipLevels is the largest mip level count a texture can have.
const MaxMipLevels = 16

// DepthStencilState holds the independent depth and stencil histories of a
// layer range. A zero unit means that plane is not tracked there.
type DepthStencilState struct {
	Depth   Unit[Uses]
	Stencil Unit[Uses]
}

// TextureStates tracks the usage of every subresource of one texture within
// a tracking scope.
//
// Color is tracked per mip level: colorMips[i] holds the layer ranges of mip
// level i, and the slice is always dense from level 0. Depth and stencil
// share a single layer-range map across all mip levels.
//
// The zero value tracks nothing and is ready to use. TextureStates is not
// safe for concurrent use.
type TextureStates struct {
	colorMips    []rangemap.Map[uint32, Unit[Uses]]
	depthStencil rangemap.Map[uint32, DepthStencilState]

	// depthStencilLevels is the mip level count depth/stencil transitions
	// emitted by Merge cover.
	depthStencilLevels uint32
}

// Query returns the usage shared by every tracked subresource the selector
// covers. It returns false when the covered subresources disagree or none of
// them is tracked; the caller must then assume nothing about their state.
func (s *TextureStates) Query(sel Selector) (Uses, bool) {
	var (
		usage Uses
		found bool
	)
	// note records u and reports false on the first disagreement.
	note := func(u Uses) bool {
		if u.IsEmpty() {
			return true
		}
		if found && u != usage {
			return false
		}
		usage, found = u, true
		return true
	}

	if sel.Aspects.Contains(AspectColor) {
		n := uint32(len(s.colorMips))
		for level := min(sel.Levels.Start, n); level < min(sel.Levels.End, n); level++ {
			for _, unit := range s.colorMips[level].Overlapping(sel.Layers) {
				if !note(unit.Last) {
					return UsesNone, false
				}
			}
		}
	}

	if sel.Aspects.Intersects(AspectDepthStencil) {
		for _, ds := range s.depthStencil.Overlapping(sel.Layers) {
			if sel.Aspects.Contains(AspectDepth) && !note(ds.Depth.Last) {
				return UsesNone, false
			}
			if sel.Aspects.Contains(AspectStencil) && !note(ds.Stencil.Last) {
				return UsesNone, false
			}
		}
	}

	return usage, found
}

// Change moves the selected subresources to usage.
//
// With a non-nil out, every subresource whose usage differs gets a
// transition appended to *out and takes usage unconditionally. With a nil
// out, usages are combined instead: compatible usages accumulate into a
// union, and the first subresource whose recorded usage conflicts with
// usage aborts the call with a *ConflictError carrying the transition that
// would resolve it. Subresources updated before the conflict keep their new
// usage.
//
// Subresources entering tracking take usage as both their initial and last
// usage and need no transition.
//
// An empty selector changes nothing. Change panics if the selector is
// inverted or reaches past MaxMipLevels.
func (s *TextureStates) Change(id core.TextureID, sel Selector, usage Uses, out *[]PendingTransition) error {
	sel.validate()
	if sel.IsEmpty() {
		return nil
	}

	if sel.Aspects.Contains(AspectColor) {
		s.growColor(sel.Levels.End)
		for level := sel.Levels.Start; level < sel.Levels.End; level++ {
			if err := s.changeColor(id, level, sel.Layers, usage, out); err != nil {
				return err
			}
		}
	}

	if sel.Aspects.Intersects(AspectDepthStencil) {
		s.depthStencilLevels = max(s.depthStencilLevels, sel.Levels.End)
		return s.changeDepthStencil(id, sel, usage, out)
	}
	return nil
}

func (s *TextureStates) changeColor(id core.TextureID, level uint32, layers Range, usage Uses, out *[]PendingTransition) error {
	mip := &s.colorMips[level]
	defer mip.Coalesce()

	entries := mip.Isolate(layers, NewUnit(usage))
	for i := range entries {
		en := &entries[i]
		pending := PendingTransition{
			ID: id,
			Selector: Selector{
				Aspects: AspectColor,
				Levels:  Range{Start: level, End: level + 1},
				Layers:  en.Range,
			},
			Usage: UsageRange{From: en.Value.Last, To: usage},
		}
		if err := advance(&en.Value, pending, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *TextureStates) changeDepthStencil(id core.TextureID, sel Selector, usage Uses, out *[]PendingTransition) error {
	defer s.depthStencil.Coalesce()

	depth := sel.Aspects.Contains(AspectDepth)
	stencil := sel.Aspects.Contains(AspectStencil)

	var fresh DepthStencilState
	if depth {
		fresh.Depth = NewUnit(usage)
	}
	if stencil {
		fresh.Stencil = NewUnit(usage)
	}

	entries := s.depthStencil.Isolate(sel.Layers, fresh)
	for i := range entries {
		en := &entries[i]
		planes := [...]struct {
			on     bool
			aspect Aspects
			unit   *Unit[Uses]
		}{
			{depth, AspectDepth, &en.Value.Depth},
			{stencil, AspectStencil, &en.Value.Stencil},
		}
		for _, p := range planes {
			if !p.on {
				continue
			}
			pending := PendingTransition{
				ID: id,
				Selector: Selector{
					Aspects: p.aspect,
					Levels:  sel.Levels,
					Layers:  en.Range,
				},
				Usage: UsageRange{From: p.unit.Last, To: usage},
			}
			if err := advance(p.unit, pending, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// advance applies pending to unit following the rules documented on Change.
func advance(unit *Unit[Uses], pending PendingTransition, out *[]PendingTransition) error {
	old, usage := pending.Usage.From, pending.Usage.To
	switch {
	case old == usage:
	case old.IsEmpty() && unit.Init.IsEmpty():
		*unit = NewUnit(usage)
	case out != nil:
		*out = append(*out, pending)
		unit.Last = usage
	case !old.IsEmpty() && (old|usage).Intersects(UsesWriteAll):
		return &ConflictError{Transition: pending}
	default:
		unit.Last = old | usage
	}
	return nil
}

// Merge folds the history recorded in other into s.
//
// For every subresource other tracks, s moves from its own last usage to
// the usage other started from (StitchInit) or ended at (StitchLast). If the
// two differ and out is non-nil the transition is appended to *out. The
// initial usage recorded in s is kept. Subresources other does not track,
// or tracks without a usage at the selected end, are left untouched.
//
// Merge never fails; the error result mirrors Change and is always nil.
func (s *TextureStates) Merge(id core.TextureID, other *TextureStates, stitch Stitch, out *[]PendingTransition) error {
	s.growColor(uint32(len(other.colorMips)))

	var colors []rangemap.Merged[uint32, Unit[Uses]]
	for i := range other.colorMips {
		level := uint32(i)
		mip := &s.colorMips[i]
		colors = slices.AppendSeq(colors[:0], mip.Merge(&other.colorMips[i], Unit[Uses]{}))
		mip.Clear()
		for _, m := range colors {
			unit := bridge(m.Start, m.End, stitch)
			if unit.Last != m.Start.Last && out != nil {
				*out = append(*out, PendingTransition{
					ID: id,
					Selector: Selector{
						Aspects: AspectColor,
						Levels:  Range{Start: level, End: level + 1},
						Layers:  m.Range,
					},
					Usage: UsageRange{From: m.Start.Last, To: unit.Last},
				})
			}
			if unit != (Unit[Uses]{}) {
				mip.Append(m.Range, unit)
			}
		}
	}

	s.depthStencilLevels = max(s.depthStencilLevels, other.depthStencilLevels)
	levels := Range{Start: 0, End: max(s.depthStencilLevels, 1)}

	planes := slices.Collect(s.depthStencil.Merge(&other.depthStencil, DepthStencilState{}))
	s.depthStencil.Clear()
	for _, m := range planes {
		state := DepthStencilState{
			Depth:   bridge(m.Start.Depth, m.End.Depth, stitch),
			Stencil: bridge(m.Start.Stencil, m.End.Stencil, stitch),
		}
		if out != nil {
			if state.Depth.Last != m.Start.Depth.Last {
				*out = append(*out, PendingTransition{
					ID:       id,
					Selector: Selector{Aspects: AspectDepth, Levels: levels, Layers: m.Range},
					Usage:    UsageRange{From: m.Start.Depth.Last, To: state.Depth.Last},
				})
			}
			if state.Stencil.Last != m.Start.Stencil.Last {
				*out = append(*out, PendingTransition{
					ID:       id,
					Selector: Selector{Aspects: AspectStencil, Levels: levels, Layers: m.Range},
					Usage:    UsageRange{From: m.Start.Stencil.Last, To: state.Stencil.Last},
				})
			}
		}
		if state != (DepthStencilState{}) {
			s.depthStencil.Append(m.Range, state)
		}
	}

	return nil
}

// bridge returns the unit self continues with after stitching other onto
// it. An empty target means other has nothing to bridge to.
func bridge(self, other Unit[Uses], stitch Stitch) Unit[Uses] {
	target := other.Select(stitch)
	if target.IsEmpty() {
		return self
	}
	return Unit[Uses]{Init: self.Init, Last: target}
}

// growColor makes sure mip levels [0, levels) have a layer map.
func (s *TextureStates) growColor(levels uint32) {
	if levels > MaxMipLevels {
		panic(fmt.Sprintf("texstate: mip level %d exceeds the limit of %d", levels, MaxMipLevels))
	}
	if s.colorMips == nil && levels > 0 {
		s.colorMips = make([]rangemap.Map[uint32, Unit[Uses]], 0, MaxMipLevels)
	}
	for uint32(len(s.colorMips)) < levels {
		s.colorMips = append(s.colorMips, rangemap.Map[uint32, Unit[Uses]]{})
	}
}

// MipLevelCount returns the number of color mip levels with a layer map.
func (s *TextureStates) MipLevelCount() int {
	return len(s.colorMips)
}

// IsEmpty reports whether no subresource is tracked.
func (s *TextureStates) IsEmpty() bool {
	for i := range s.colorMips {
		if !s.colorMips[i].IsEmpty() {
			return false
		}
	}
	return s.depthStencil.IsEmpty()
}

// Optimize coalesces touching layer ranges holding equal state.
func (s *TextureStates) Optimize() {
	for i := range s.colorMips {
		s.colorMips[i].Coalesce()
	}
	s.depthStencil.Coalesce()
}

// Clone returns a deep copy of s.
func (s *TextureStates) Clone() *TextureStates {
	c := &TextureStates{
		depthStencil:       s.depthStencil.Clone(),
		depthStencilLevels: s.depthStencilLevels,
	}
	if s.colorMips != nil {
		c.colorMips = make([]rangemap.Map[uint32, Unit[Uses]], len(s.colorMips), MaxMipLevels)
		for i := range s.colorMips {
			c.colorMips[i] = s.colorMips[i].Clone()
		}
	}
	return c
}

// Equal reports whether s and o track identical state. Trailing mip levels
// without any layer range are ignored.
func (s *TextureStates) Equal(o *TextureStates) bool {
	if s.depthStencilLevels != o.depthStencilLevels || !s.depthStencil.Equal(&o.depthStencil) {
		return false
	}
	n := max(len(s.colorMips), len(o.colorMips))
	var empty rangemap.Map[uint32, Unit[Uses]]
	for i := range n {
		a, b := &empty, &empty
		if i < len(s.colorMips) {
			a = &s.colorMips[i]
		}
		if i < len(o.colorMips) {
			b = &o.colorMips[i]
		}
		if !a.Equal(b) {
			return false
		}
	}
	return true
}

// ColorLayers returns the tracked layer ranges of one color mip level.
func (s *TextureStates) ColorLayers(level uint32) []rangemap.Entry[uint32, Unit[Uses]] {
	if level >= uint32(len(s.colorMips)) {
		return nil
	}
	return s.colorMips[level].Entries()
}

// DepthStencilLayers returns the tracked depth/stencil layer ranges.
func (s *TextureStates) DepthStencilLayers() []rangemap.Entry[uint32, DepthStencilState] {
	return s.depthStencil.Entries()
}
