package texstate

import (
	"fmt"
	"strings"
)

// Unit is the usage history of one subresource slice within a tracking scope.
//
// Init is the usage the slice had when it first entered tracking in the
// scope and never changes afterwards; Last is the usage after the most
// recent operation.
type Unit[U comparable] struct {
	Init U
	Last U
}

// NewUnit returns a unit that starts and ends at u.
func NewUnit[U comparable](u U) Unit[U] {
	return Unit[U]{Init: u, Last: u}
}

// Select returns Init for StitchInit and Last for StitchLast.
func (u Unit[U]) Select(stitch Stitch) U {
	if stitch == StitchInit {
		return u.Init
	}
	return u.Last
}

// Stitch chooses which end of another scope's history a merge bridges to.
type Stitch uint8

const (
	// StitchInit bridges to the usage the other scope started from. Use it
	// when the other scope's own transitions will be replayed after the
	// bridge.
	StitchInit Stitch = iota

	// StitchLast bridges straight to the usage the other scope ended at.
	// Use it when the other scope's transitions are dropped.
	StitchLast
)

// String returns "init" or "last".
func (s Stitch) String() string {
	switch s {
	case StitchInit:
		return "init"
	case StitchLast:
		return "last"
	default:
		return fmt.Sprintf("Stitch(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Stitch) MarshalText() ([]byte, error) {
	if s > StitchLast {
		return nil, fmt.Errorf("%w: stitch %d", ErrInvalidValue, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stitch) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "init", "":
		*s = StitchInit
	case "last":
		*s = StitchLast
	default:
		return fmt.Errorf("%w: unknown stitch %q", ErrInvalidValue, text)
	}
	return nil
}
