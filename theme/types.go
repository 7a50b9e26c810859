package theme

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the light or dark palette.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

const (
	// StorageKey is where the active mode is persisted.
	StorageKey = "theme-mode"
	// DarkClass is the presentation flag present while dark mode is active.
	DarkClass = "dark"
	// DefaultMode is used when nothing valid has been persisted.
	DefaultMode = Light
)

// ErrInvalidMode is returned for anything other than Light or Dark.
var ErrInvalidMode = errors.New("invalid theme mode")

// ParseMode accepts exactly "light" or "dark", ignoring case and surrounding
// space.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

func (m Mode) Valid() bool {
	return m == Light || m == Dark
}

// Opposite returns Dark for Light and Light for anything else.
func (m Mode) Opposite() Mode {
	if m == Light {
		return Dark
	}
	return Light
}

func (m Mode) String() string {
	return string(m)
}

// modeCodec stores the bare mode name rather than a JSON string.
type modeCodec struct{}

func (modeCodec) Encode(m Mode) (string, error) {
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
	return string(m), nil
}

func (modeCodec) Decode(s string) (Mode, error) {
	if m := Mode(s); m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// State is the wire form of the controller's current state.
type State struct {
	Mode Mode `json:"mode"`
	Dark bool `json:"dark"`
}
