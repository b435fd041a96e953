package texstate

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// =============================================================================
// Uses
// =============================================================================

func TestUsesIsReadOnly(t *testing.T) {
	tests := []struct {
		u    Uses
		want bool
	}{
		{UsesNone, true},
		{UsesCopySrc, true},
		{UsesResource | UsesDepthStencilRead | UsesStorageRead, true},
		{UsesPresent, true},
		{UsesCopyDst, false},
		{UsesColorTarget, false},
		{UsesDepthStencilWrite, false},
		{UsesStorageReadWrite, false},
		{UsesResource | UsesCopyDst, false},
	}
	for _, tt := range tests {
		if got := tt.u.IsReadOnly(); got != tt.want {
			t.Errorf("%s.IsReadOnly() = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestUsesIsCompatible(t *testing.T) {
	tests := []struct {
		a, b Uses
		want bool
	}{
		{UsesNone, UsesColorTarget, true},
		{UsesResource, UsesCopySrc, true},
		{UsesColorTarget, UsesColorTarget, true},
		{UsesColorTarget, UsesResource, false},
		{UsesResource, UsesStorageReadWrite, false},
		{UsesCopyDst, UsesColorTarget, false},
	}
	for _, tt := range tests {
		if got := tt.a.IsCompatible(tt.b); got != tt.want {
			t.Errorf("%s.IsCompatible(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUsesString(t *testing.T) {
	tests := []struct {
		u    Uses
		want string
	}{
		{UsesNone, "none"},
		{UsesResource, "resource"},
		{UsesCopySrc | UsesResource, "copy_src|resource"},
		{UsesDepthStencilWrite | UsesPresent, "depth_stencil_write|present"},
		{Uses(1 << 12), "0x1000"},
	}
	for _, tt := range tests {
		if got := tt.u.String(); got != tt.want {
			t.Errorf("Uses(0x%x).String() = %q, want %q", uint32(tt.u), got, tt.want)
		}
	}
}

func TestParseUses(t *testing.T) {
	tests := []struct {
		in      string
		want    Uses
		wantErr bool
	}{
		{"", UsesNone, false},
		{"none", UsesNone, false},
		{"resource", UsesResource, false},
		{"COPY_SRC | resource", UsesCopySrc | UsesResource, false},
		{"storage_read,storage_read_write", UsesStorageRead | UsesStorageReadWrite, false},
		{"sampled", UsesNone, true},
	}
	for _, tt := range tests {
		got, err := ParseUses(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUses(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidValue) {
			t.Errorf("ParseUses(%q) error = %v, want ErrInvalidValue", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseUses(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestUsesMarshalTextRejectsUnknownBits(t *testing.T) {
	if _, err := Uses(1 << 20).MarshalText(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("MarshalText() error = %v, want ErrInvalidValue", err)
	}
	var u Uses
	if err := u.UnmarshalText([]byte("color_target|copy_dst")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if u != UsesColorTarget|UsesCopyDst {
		t.Errorf("UnmarshalText = %s", u)
	}
}

func TestUsesToTextureUsage(t *testing.T) {
	tests := []struct {
		u    Uses
		want gputypes.TextureUsage
	}{
		{UsesNone, 0},
		{UsesCopySrc, gputypes.TextureUsageCopySrc},
		{UsesCopyDst, gputypes.TextureUsageCopyDst},
		{UsesResource, gputypes.TextureUsageTextureBinding},
		{UsesColorTarget, gputypes.TextureUsageRenderAttachment},
		{UsesDepthStencilRead | UsesDepthStencilWrite, gputypes.TextureUsageRenderAttachment},
		{UsesStorageRead, gputypes.TextureUsageStorageBinding},
		{UsesStorageReadWrite, gputypes.TextureUsageStorageBinding},
		{UsesPresent, 0},
		{UsesResource | UsesCopySrc, gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc},
	}
	for _, tt := range tests {
		if got := tt.u.ToTextureUsage(); got != tt.want {
			t.Errorf("%s.ToTextureUsage() = %v, want %v", tt.u, got, tt.want)
		}
	}
}

// =============================================================================
// Aspects
// =============================================================================

func TestAspectsToTextureAspect(t *testing.T) {
	tests := []struct {
		a    Aspects
		want gputypes.TextureAspect
	}{
		{0, gputypes.TextureAspectUndefined},
		{AspectColor, gputypes.TextureAspectAll},
		{AspectDepth, gputypes.TextureAspectDepthOnly},
		{AspectStencil, gputypes.TextureAspectStencilOnly},
		{AspectDepthStencil, gputypes.TextureAspectAll},
		{AspectAll, gputypes.TextureAspectAll},
	}
	for _, tt := range tests {
		if got := tt.a.ToTextureAspect(); got != tt.want {
			t.Errorf("%s.ToTextureAspect() = %v, want %v", tt.a, got, tt.want)
		}
	}
}

func TestParseAspects(t *testing.T) {
	tests := []struct {
		in   string
		want Aspects
	}{
		{"color", AspectColor},
		{"depth|stencil", AspectDepthStencil},
		{"depth_stencil", AspectDepthStencil},
		{"all", AspectAll},
		{"Color, Depth", AspectColor | AspectDepth},
		{"none", 0},
	}
	for _, tt := range tests {
		got, err := ParseAspects(tt.in)
		if err != nil {
			t.Errorf("ParseAspects(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAspects(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseAspects("plane0"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("ParseAspects(plane0) error = %v, want ErrInvalidValue", err)
	}
	if s := AspectAll.String(); s != "color|depth|stencil" {
		t.Errorf("AspectAll.String() = %q", s)
	}
}

// =============================================================================
// Unit and Stitch
// =============================================================================

func TestUnitSelect(t *testing.T) {
	u := Unit[Uses]{Init: UsesCopyDst, Last: UsesResource}
	if got := u.Select(StitchInit); got != UsesCopyDst {
		t.Errorf("Select(StitchInit) = %s, want copy_dst", got)
	}
	if got := u.Select(StitchLast); got != UsesResource {
		t.Errorf("Select(StitchLast) = %s, want resource", got)
	}
	if n := NewUnit(UsesPresent); n.Init != UsesPresent || n.Last != UsesPresent {
		t.Errorf("NewUnit(present) = %+v", n)
	}
}

func TestStitchText(t *testing.T) {
	for _, s := range []Stitch{StitchInit, StitchLast} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", s, err)
		}
		var back Stitch = 7
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("UnmarshalText(%q) = %s, %v; want %s", text, back, err, s)
		}
	}

	var s Stitch = StitchLast
	if err := s.UnmarshalText(nil); err != nil || s != StitchInit {
		t.Errorf("empty stitch = %s, %v; want init", s, err)
	}
	if err := s.UnmarshalText([]byte("middle")); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("UnmarshalText(middle) error = %v, want ErrInvalidValue", err)
	}
	if _, err := Stitch(9).MarshalText(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("MarshalText(9) error = %v, want ErrInvalidValue", err)
	}
}

// =============================================================================
// Selector
// =============================================================================

func TestSelectorToHAL(t *testing.T) {
	sel := Selector{
		Aspects: AspectDepth,
		Levels:  Range{Start: 2, End: 5},
		Layers:  Range{Start: 1, End: 7},
	}
	want := hal.TextureRange{
		Aspect:          gputypes.TextureAspectDepthOnly,
		BaseMipLevel:    2,
		MipLevelCount:   3,
		BaseArrayLayer:  1,
		ArrayLayerCount: 6,
	}
	if got := sel.ToHAL(); got != want {
		t.Errorf("ToHAL() = %+v, want %+v", got, want)
	}
}

func TestSelectorIsEmpty(t *testing.T) {
	tests := []struct {
		sel  Selector
		want bool
	}{
		{FullSelector(AspectColor, 1, 1), false},
		{FullSelector(0, 1, 1), true},
		{FullSelector(AspectColor, 0, 1), true},
		{FullSelector(AspectColor, 1, 0), true},
	}
	for _, tt := range tests {
		if got := tt.sel.IsEmpty(); got != tt.want {
			t.Errorf("%s.IsEmpty() = %v, want %v", tt.sel, got, tt.want)
		}
	}
}
