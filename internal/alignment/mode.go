// Package alignment provides affine-gap global alignment of protein
// sequences.
//
// An Aligner is configured once for a Mode and a substitution model and then
// aligns any number of sequence pairs with the three-matrix Gotoh recurrence.
// In Similarity mode the highest-scoring alignment wins; in Distance mode the
// lowest-cost one does.
package alignment

import (
	"fmt"
	"strings"
)

// Mode selects the optimisation direction and the scoring table.
type Mode int

const (
	// Similarity maximises the substitution score.
	Similarity Mode = iota
	// Distance minimises the derived distance.
	Distance
)

func (m Mode) String() string {
	switch m {
	case Similarity:
		return "similarity"
	case Distance:
		return "distance"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m == Similarity || m == Distance
}

// ParseMode converts a mode name such as "similarity" or "dist" into a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "similarity", "sim":
		return Similarity, nil
	case "distance", "dist":
		return Distance, nil
	default:
		return 0, &InvalidModeError{Mode: -1, Name: name}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &InvalidModeError{Mode: m}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// AlignmentError is the base error type for alignment configuration.
type AlignmentError interface {
	error
	IsAlignmentError()
}

// InvalidModeError is returned when a mode is neither Similarity nor Distance.
type InvalidModeError struct {
	Mode Mode
	Name string
}

func (e *InvalidModeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid alignment mode %q", e.Name)
	}
	return fmt.Sprintf("invalid alignment mode %d", int(e.Mode))
}

func (e *InvalidModeError) IsAlignmentError() {}
