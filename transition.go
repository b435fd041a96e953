package texstate

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrUsageConflict is matched by errors reporting a usage that cannot
	// coexist with the usage already recorded for a subresource.
	ErrUsageConflict = errors.New("texstate: usage conflict")

	// ErrInvalidValue is returned when parsing or restoring malformed data.
	ErrInvalidValue = errors.New("texstate: invalid value")
)

// UsageRange is a usage change from From to To.
type UsageRange struct {
	From Uses
	To   Uses
}

// String formats the change as "from -> to".
func (r UsageRange) String() string {
	return r.From.String() + " -> " + r.To.String()
}

// PendingTransition is one barrier the caller has to record: the
// subresources in Selector move from Usage.From to Usage.To.
type PendingTransition struct {
	ID       core.TextureID
	Selector Selector
	Usage    UsageRange
}

// String formats the transition for logs.
func (p PendingTransition) String() string {
	return fmt.Sprintf("texture %s %s: %s", p.ID, p.Selector, p.Usage)
}

// IntoHAL converts the transition to a HAL texture barrier.
func (p PendingTransition) IntoHAL(texture hal.Texture) hal.TextureBarrier {
	return hal.TextureBarrier{
		Texture: texture,
		Range:   p.Selector.ToHAL(),
		Usage: hal.TextureUsageTransition{
			OldUsage: p.Usage.From.ToTextureUsage(),
			NewUsage: p.Usage.To.ToTextureUsage(),
		},
	}
}

// Barriers converts transitions to HAL barriers, resolving textures through
// lookup. Transitions whose texture cannot be resolved are skipped.
func Barriers(transitions []PendingTransition, lookup func(core.TextureID) (hal.Texture, bool)) []hal.TextureBarrier {
	barriers := make([]hal.TextureBarrier, 0, len(transitions))
	for _, p := range transitions {
		if texture, ok := lookup(p.ID); ok {
			barriers = append(barriers, p.IntoHAL(texture))
		}
	}
	return barriers
}

// ConflictError reports a usage change that needs a barrier where the caller
// did not offer to record one. Transition is the barrier that would resolve
// it.
type ConflictError struct {
	Transition PendingTransition
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("texstate: usage conflict on texture %s %s: %s",
		e.Transition.ID, e.Transition.Selector, e.Transition.Usage)
}

// Is makes errors.Is(err, ErrUsageConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrUsageConflict
}

// NewTextureID builds a texture identifier from its index and epoch.
func NewTextureID(index, epoch uint32) core.TextureID {
	return newTextureID(index, epoch)
}

// The marker type of core.TextureID is unexported; these let the compiler
// infer it.
var (
	newTextureID     func(core.Index, core.Epoch) core.TextureID = core.NewID
	textureIDFromRaw func(core.RawID) core.TextureID             = core.FromRaw
)
