package sequence

import "fmt"

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// EmptySequenceError is returned when a sequence is empty.
type EmptySequenceError struct{}

func (e *EmptySequenceError) Error() string {
	return "sequence must have at least one residue"
}

func (e *EmptySequenceError) IsSequenceError() {}

// InvalidResidueError is returned when a residue is outside the alphabet.
type InvalidResidueError struct {
	Position int
	Found    byte
}

func (e *InvalidResidueError) Error() string {
	return fmt.Sprintf("invalid residue '%c' at position %d", e.Found, e.Position)
}

func (e *InvalidResidueError) IsSequenceError() {}

// MalformedRecordError is returned when a sequence source cannot be parsed.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed sequence source: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed sequence source: %s", e.Reason)
}

func (e *MalformedRecordError) IsSequenceError() {}

// Validate checks that every residue is one of the symbols in alphabet.
func Validate(residues, alphabet string) error {
	var valid [256]bool
	for i := 0; i < len(alphabet); i++ {
		valid[alphabet[i]] = true
	}
	for i := 0; i < len(residues); i++ {
		if !valid[residues[i]] {
			return &InvalidResidueError{Position: i, Found: residues[i]}
		}
	}
	return nil
}
