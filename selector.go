package texstate

import (
	"fmt"

	"github.com/gogpu/texstate/rangemap"
	"github.com/gogpu/wgpu/hal"
)

// Range is a half-open range of mip levels or array layers.
type Range = rangemap.Range[uint32]

// Selector addresses a box of subresources: a set of aspects over a range of
// mip levels and a range of array layers.
type Selector struct {
	Aspects Aspects
	Levels  Range
	Layers  Range
}

// FullSelector selects every subresource of a texture with the given aspects,
// mip level count and array layer count.
func FullSelector(aspects Aspects, levels, layers uint32) Selector {
	return Selector{
		Aspects: aspects,
		Levels:  Range{Start: 0, End: levels},
		Layers:  Range{Start: 0, End: layers},
	}
}

// IsEmpty reports whether the selector addresses no subresource.
func (s Selector) IsEmpty() bool {
	return s.Aspects == 0 || s.Levels.Empty() || s.Layers.Empty()
}

// ToHAL converts the selector into the HAL subresource range.
func (s Selector) ToHAL() hal.TextureRange {
	return hal.TextureRange{
		Aspect:          s.Aspects.ToTextureAspect(),
		BaseMipLevel:    s.Levels.Start,
		MipLevelCount:   s.Levels.Len(),
		BaseArrayLayer:  s.Layers.Start,
		ArrayLayerCount: s.Layers.Len(),
	}
}

// String formats the selector for logs.
func (s Selector) String() string {
	return fmt.Sprintf("%s levels %s layers %s", s.Aspects, s.Levels, s.Layers)
}

func (s Selector) validate() {
	if s.Levels.Start > s.Levels.End || s.Layers.Start > s.Layers.End {
		panic(fmt.Sprintf("texstate: inverted selector %s", s))
	}
	if s.Levels.End > MaxMipLevels {
		panic(fmt.Sprintf("texstate: mip level %d exceeds the limit of %d", s.Levels.End, MaxMipLevels))
	}
}
