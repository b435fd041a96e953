package texstate

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/gogpu/gputypes"
)

// Uses is the set of ways a texture subresource is being accessed.
//
// It is finer grained than gputypes.TextureUsage: read and write flavours of
// attachments and storage bindings are distinct so that read-only accesses
// can share a subresource without a barrier. UsesNone means the subresource
// has never been tracked.
type Uses uint32

// Texture usage flags.
const (
	UsesNone              Uses = 0
	UsesCopySrc           Uses = 1 << 0 // Read by a copy
	UsesCopyDst           Uses = 1 << 1 // Written by a copy
	UsesResource          Uses = 1 << 2 // Sampled in a shader
	UsesColorTarget       Uses = 1 << 3 // Color attachment
	UsesDepthStencilRead  Uses = 1 << 4 // Read-only depth/stencil attachment
	UsesDepthStencilWrite Uses = 1 << 5 // Writable depth/stencil attachment
	UsesStorageRead       Uses = 1 << 6 // Read-only storage binding
	UsesStorageReadWrite  Uses = 1 << 7 // Read-write storage binding
	UsesPresent           Uses = 1 << 8 // Handed to the presentation engine
)

// UsesWriteAll is the write class: any of these flags requires exclusive
// access to the subresource.
const UsesWriteAll = UsesCopyDst | UsesColorTarget | UsesDepthStencilWrite | UsesStorageReadWrite

const usesAll = UsesCopySrc | UsesCopyDst | UsesResource | UsesColorTarget |
	UsesDepthStencilRead | UsesDepthStencilWrite | UsesStorageRead |
	UsesStorageReadWrite | UsesPresent

var usesNames = [...]string{
	"copy_src",
	"copy_dst",
	"resource",
	"color_target",
	"depth_stencil_read",
	"depth_stencil_write",
	"storage_read",
	"storage_read_write",
	"present",
}

// IsEmpty reports whether no flag is set.
func (u Uses) IsEmpty() bool {
	return u == UsesNone
}

// Contains reports whether every flag of other is set in u.
func (u Uses) Contains(other Uses) bool {
	return u&other == other
}

// Intersects reports whether u and other share at least one flag.
func (u Uses) Intersects(other Uses) bool {
	return u&other != 0
}

// IsReadOnly reports whether u holds no write-class flag.
func (u Uses) IsReadOnly() bool {
	return u&UsesWriteAll == 0
}

// IsCompatible reports whether u and other may be in effect on the same
// subresource at once, without a barrier between them.
func (u Uses) IsCompatible(other Uses) bool {
	if u.IsEmpty() || u == other {
		return true
	}
	return (u | other).IsReadOnly()
}

// ToTextureUsage maps u onto the HAL usage flags used for barriers.
// UsesPresent has no gputypes equivalent and maps to nothing.
func (u Uses) ToTextureUsage() gputypes.TextureUsage {
	var result gputypes.TextureUsage

	if u&UsesCopySrc != 0 {
		result |= gputypes.TextureUsageCopySrc
	}
	if u&UsesCopyDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if u&UsesResource != 0 {
		result |= gputypes.TextureUsageTextureBinding
	}
	if u&(UsesColorTarget|UsesDepthStencilRead|UsesDepthStencilWrite) != 0 {
		result |= gputypes.TextureUsageRenderAttachment
	}
	if u&(UsesStorageRead|UsesStorageReadWrite) != 0 {
		result |= gputypes.TextureUsageStorageBinding
	}

	return result
}

// String returns the flag names joined by "|", or "none".
func (u Uses) String() string {
	if u.IsEmpty() {
		return "none"
	}
	var parts []string
	for rest := u; rest != 0; rest &= rest - 1 {
		bit := bits.TrailingZeros32(uint32(rest))
		if bit < len(usesNames) {
			parts = append(parts, usesNames[bit])
		} else {
			parts = append(parts, fmt.Sprintf("0x%x", uint32(1)<<bit))
		}
	}
	return strings.Join(parts, "|")
}

// ParseUses parses flag names separated by "|" or ",". Names are case
// insensitive; "none" and the empty string parse to UsesNone.
func ParseUses(s string) (Uses, error) {
	var u Uses
	for _, field := range strings.FieldsFunc(s, isFlagSeparator) {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" || name == "none" {
			continue
		}
		found := false
		for bit, n := range usesNames {
			if n == name {
				u |= 1 << bit
				found = true
				break
			}
		}
		if !found {
			return UsesNone, fmt.Errorf("%w: unknown usage %q", ErrInvalidValue, field)
		}
	}
	return u, nil
}

// MarshalText implements encoding.TextMarshaler.
func (u Uses) MarshalText() ([]byte, error) {
	if u&^usesAll != 0 {
		return nil, fmt.Errorf("%w: usage 0x%x has unknown bits", ErrInvalidValue, uint32(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Uses) UnmarshalText(text []byte) error {
	v, err := ParseUses(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Aspects selects the facets of a texture a selector addresses.
type Aspects uint8

// Texture aspects.
const (
	AspectColor   Aspects = 1 << 0
	AspectDepth   Aspects = 1 << 1
	AspectStencil Aspects = 1 << 2

	AspectDepthStencil = AspectDepth | AspectStencil
	AspectAll          = AspectColor | AspectDepth | AspectStencil
)

var aspectNames = [...]string{"color", "depth", "stencil"}

// Contains reports whether every aspect of other is set in a.
func (a Aspects) Contains(other Aspects) bool {
	return a&other == other
}

// Intersects reports whether a and other share an aspect.
func (a Aspects) Intersects(other Aspects) bool {
	return a&other != 0
}

// ToTextureAspect maps a onto the HAL aspect selector. A lone depth or
// stencil aspect selects that plane; any other non-empty set selects all.
func (a Aspects) ToTextureAspect() gputypes.TextureAspect {
	switch a {
	case 0:
		return gputypes.TextureAspectUndefined
	case AspectDepth:
		return gputypes.TextureAspectDepthOnly
	case AspectStencil:
		return gputypes.TextureAspectStencilOnly
	default:
		return gputypes.TextureAspectAll
	}
}

// String returns the aspect names joined by "|", or "none".
func (a Aspects) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	for bit, name := range aspectNames {
		if a&(1<<bit) != 0 {
			parts = append(parts, name)
		}
	}
	if a&^AspectAll != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(a&^AspectAll)))
	}
	return strings.Join(parts, "|")
}

// ParseAspects parses aspect names separated by "|" or ",". "all" selects
// every aspect and "depth_stencil" both depth and stencil.
func ParseAspects(s string) (Aspects, error) {
	var a Aspects
	for _, field := range strings.FieldsFunc(s, isFlagSeparator) {
		switch name := strings.ToLower(strings.TrimSpace(field)); name {
		case "", "none":
		case "color":
			a |= AspectColor
		case "depth":
			a |= AspectDepth
		case "stencil":
			a |= AspectStencil
		case "depth_stencil":
			a |= AspectDepthStencil
		case "all":
			a |= AspectAll
		default:
			return 0, fmt.Errorf("%w: unknown aspect %q", ErrInvalidValue, field)
		}
	}
	return a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Aspects) MarshalText() ([]byte, error) {
	if a&^AspectAll != 0 {
		return nil, fmt.Errorf("%w: aspects 0x%x have unknown bits", ErrInvalidValue, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Aspects) UnmarshalText(text []byte) error {
	v, err := ParseAspects(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func isFlagSeparator(r rune) bool {
	return r == '|' || r == ','
}
