package texstate

import (
	"fmt"

	"github.com/gogpu/texstate/rangemap"
	"github.com/gogpu/wgpu/core"
)

// LayerSnapshot is the state of one color layer range.
type LayerSnapshot struct {
	Start uint32 `cbor:"start" json:"start" yaml:"start"`
	End   uint32 `cbor:"end" json:"end" yaml:"end"`
	Init  Uses   `cbor:"init" json:"init" yaml:"init"`
	Last  Uses   `cbor:"last" json:"last" yaml:"last"`
}

// DepthStencilSnapshot is the depth and stencil state of one layer range.
type DepthStencilSnapshot struct {
	Start       uint32 `cbor:"start" json:"start" yaml:"start"`
	End         uint32 `cbor:"end" json:"end" yaml:"end"`
	DepthInit   Uses   `cbor:"depth_init" json:"depth_init" yaml:"depth_init"`
	DepthLast   Uses   `cbor:"depth_last" json:"depth_last" yaml:"depth_last"`
	StencilInit Uses   `cbor:"stencil_init" json:"stencil_init" yaml:"stencil_init"`
	StencilLast Uses   `cbor:"stencil_last" json:"stencil_last" yaml:"stencil_last"`
}

// TextureSnapshot is a plain copy of a TextureStates, suitable for
// serialization. Color holds one slice of layer ranges per mip level.
type TextureSnapshot struct {
	ID                 core.RawID             `cbor:"id" json:"id" yaml:"id"`
	Color              [][]LayerSnapshot      `cbor:"color,omitempty" json:"color,omitempty" yaml:"color,omitempty"`
	DepthStencil       []DepthStencilSnapshot `cbor:"depth_stencil,omitempty" json:"depth_stencil,omitempty" yaml:"depth_stencil,omitempty"`
	DepthStencilLevels uint32                 `cbor:"depth_stencil_levels,omitempty" json:"depth_stencil_levels,omitempty" yaml:"depth_stencil_levels,omitempty"`
}

// TrackerSnapshot is a plain copy of a Tracker. Textures are ordered by id.
type TrackerSnapshot struct {
	Scope    string            `cbor:"scope" json:"scope" yaml:"scope"`
	Label    string            `cbor:"label,omitempty" json:"label,omitempty" yaml:"label,omitempty"`
	Textures []TextureSnapshot `cbor:"textures" json:"textures" yaml:"textures"`
}

// Snapshot returns a copy of s tagged with id.
func (s *TextureStates) Snapshot(id core.TextureID) TextureSnapshot {
	snap := TextureSnapshot{
		ID:                 id.Raw(),
		DepthStencilLevels: s.depthStencilLevels,
	}
	if len(s.colorMips) > 0 {
		snap.Color = make([][]LayerSnapshot, len(s.colorMips))
		for level := range s.colorMips {
			layers := make([]LayerSnapshot, 0, s.colorMips[level].Len())
			for r, unit := range s.colorMips[level].All() {
				layers = append(layers, LayerSnapshot{
					Start: r.Start, End: r.End,
					Init: unit.Init, Last: unit.Last,
				})
			}
			snap.Color[level] = layers
		}
	}
	for r, ds := range s.depthStencil.All() {
		snap.DepthStencil = append(snap.DepthStencil, DepthStencilSnapshot{
			Start: r.Start, End: r.End,
			DepthInit: ds.Depth.Init, DepthLast: ds.Depth.Last,
			StencilInit: ds.Stencil.Init, StencilLast: ds.Stencil.Last,
		})
	}
	return snap
}

// RestoreTextureStates rebuilds a TextureStates from a snapshot. It returns
// an error wrapping ErrInvalidValue if the snapshot has too many mip levels,
// or empty, unsorted or overlapping layer ranges.
func RestoreTextureStates(snap TextureSnapshot) (*TextureStates, error) {
	if len(snap.Color) > MaxMipLevels {
		return nil, fmt.Errorf("%w: %d mip levels exceed the limit of %d",
			ErrInvalidValue, len(snap.Color), MaxMipLevels)
	}
	if snap.DepthStencilLevels > MaxMipLevels {
		return nil, fmt.Errorf("%w: depth/stencil level count %d exceeds the limit of %d",
			ErrInvalidValue, snap.DepthStencilLevels, MaxMipLevels)
	}

	s := &TextureStates{depthStencilLevels: snap.DepthStencilLevels}
	s.growColor(uint32(len(snap.Color)))
	for level, layers := range snap.Color {
		var prev uint32
		for i, l := range layers {
			if err := checkLayerRange(l.Start, l.End, prev, i); err != nil {
				return nil, fmt.Errorf("color mip %d: %w", level, err)
			}
			prev = l.End
			s.colorMips[level].Append(rangemap.R(l.Start, l.End), Unit[Uses]{Init: l.Init, Last: l.Last})
		}
	}

	var prev uint32
	for i, ds := range snap.DepthStencil {
		if err := checkLayerRange(ds.Start, ds.End, prev, i); err != nil {
			return nil, fmt.Errorf("depth/stencil: %w", err)
		}
		prev = ds.End
		s.depthStencil.Append(rangemap.R(ds.Start, ds.End), DepthStencilState{
			Depth:   Unit[Uses]{Init: ds.DepthInit, Last: ds.DepthLast},
			Stencil: Unit[Uses]{Init: ds.StencilInit, Last: ds.StencilLast},
		})
	}
	return s, nil
}

func checkLayerRange(start, end, prev uint32, i int) error {
	if start >= end {
		return fmt.Errorf("%w: empty layer range %d..%d", ErrInvalidValue, start, end)
	}
	if i > 0 && start < prev {
		return fmt.Errorf("%w: layer range %d..%d overlaps or precedes %d", ErrInvalidValue, start, end, prev)
	}
	return nil
}

// TextureID returns the id the snapshot was taken with.
func (snap TextureSnapshot) TextureID() core.TextureID {
	return textureIDFromRaw(snap.ID)
}

// Snapshot returns a copy of every texture the tracker holds.
func (t *Tracker) Snapshot() TrackerSnapshot {
	snap := TrackerSnapshot{
		Scope:    t.id.String(),
		Label:    t.label,
		Textures: make([]TextureSnapshot, 0, len(t.textures)),
	}
	for _, id := range t.IDs() {
		snap.Textures = append(snap.Textures, t.textures[id].Snapshot(id))
	}
	return snap
}

// Restore replaces the tracked textures with those of a snapshot. The scope
// id and label of t are kept. On error t is left unchanged.
func (t *Tracker) Restore(snap TrackerSnapshot) error {
	textures := make(map[core.TextureID]*TextureStates, len(snap.Textures))
	for _, ts := range snap.Textures {
		id := ts.TextureID()
		if _, dup := textures[id]; dup {
			return fmt.Errorf("%w: texture %s appears twice", ErrInvalidValue, id)
		}
		s, err := RestoreTextureStates(ts)
		if err != nil {
			return fmt.Errorf("texture %s: %w", id, err)
		}
		textures[id] = s
	}
	t.textures = textures
	return nil
}
