package texstate

import (
	"errors"
	"testing"
)

func TestSnapshotRestore(t *testing.T) {
	var s TextureStates
	var out []PendingTransition
	mustChange(t, &s, colorSel(r(0, 3), r(0, 6)), UsesResource, &out)
	mustChange(t, &s, colorSel(r(1, 2), r(2, 4)), UsesColorTarget, &out)
	mustChange(t, &s, Selector{Aspects: AspectDepthStencil, Levels: r(0, 2), Layers: r(0, 2)}, UsesDepthStencilRead, &out)
	mustChange(t, &s, Selector{Aspects: AspectStencil, Levels: r(0, 1), Layers: r(1, 2)}, UsesDepthStencilWrite, &out)

	snap := s.Snapshot(texID)
	if snap.TextureID() != texID {
		t.Errorf("TextureID() = %v, want %v", snap.TextureID(), texID)
	}
	if len(snap.Color) != 3 || len(snap.Color[1]) != 3 {
		t.Errorf("Color = %v, want 3 levels with 3 runs on level 1", snap.Color)
	}
	if len(snap.DepthStencil) != 2 || snap.DepthStencilLevels != 2 {
		t.Errorf("DepthStencil = %v (levels %d), want 2 runs over 2 levels", snap.DepthStencil, snap.DepthStencilLevels)
	}

	restored, err := RestoreTextureStates(snap)
	if err != nil {
		t.Fatalf("RestoreTextureStates: %v", err)
	}
	if !restored.Equal(&s) {
		t.Error("restored state differs from the original")
	}
}

func TestRestoreTextureStates_Invalid(t *testing.T) {
	unit := LayerSnapshot{Init: UsesResource, Last: UsesResource}
	layer := func(start, end uint32) LayerSnapshot {
		l := unit
		l.Start, l.End = start, end
		return l
	}

	tests := []struct {
		name string
		snap TextureSnapshot
	}{
		{"too many levels", TextureSnapshot{Color: make([][]LayerSnapshot, MaxMipLevels+1)}},
		{"depth levels", TextureSnapshot{DepthStencilLevels: MaxMipLevels + 1}},
		{"empty range", TextureSnapshot{Color: [][]LayerSnapshot{{layer(2, 2)}}}},
		{"inverted range", TextureSnapshot{Color: [][]LayerSnapshot{{layer(3, 1)}}}},
		{"overlap", TextureSnapshot{Color: [][]LayerSnapshot{{layer(0, 3), layer(2, 4)}}}},
		{"unsorted", TextureSnapshot{Color: [][]LayerSnapshot{{layer(4, 6), layer(0, 2)}}}},
		{"depth overlap", TextureSnapshot{DepthStencil: []DepthStencilSnapshot{{Start: 0, End: 2}, {Start: 1, End: 3}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RestoreTextureStates(tt.snap); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("RestoreTextureStates() error = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestRestoreTextureStates_CoalescesTouchingRuns(t *testing.T) {
	snap := TextureSnapshot{Color: [][]LayerSnapshot{{
		{Start: 0, End: 2, Init: UsesResource, Last: UsesResource},
		{Start: 2, End: 5, Init: UsesResource, Last: UsesResource},
	}}}

	s, err := RestoreTextureStates(snap)
	if err != nil {
		t.Fatalf("RestoreTextureStates: %v", err)
	}
	if layers := s.ColorLayers(0); len(layers) != 1 || layers[0].Range != r(0, 5) {
		t.Errorf("layers = %v, want a single 0..5 run", layers)
	}
}

func TestTrackerRestore(t *testing.T) {
	src, _ := buildScopes(t, 6)
	snap := src.Snapshot()

	dst := NewTracker(WithLabel("copy"))
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if dst.Len() != src.Len() {
		t.Fatalf("Len() = %d, want %d", dst.Len(), src.Len())
	}
	for _, id := range src.IDs() {
		if !dst.Get(id).Equal(src.Get(id)) {
			t.Errorf("texture %s differs after Restore", id)
		}
	}

	bad := snap
	bad.Textures = append(bad.Textures, bad.Textures[0])
	if err := dst.Restore(bad); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Restore() with a duplicate = %v, want ErrInvalidValue", err)
	}
	if dst.Len() != src.Len() {
		t.Error("failed Restore modified the tracker")
	}
}
