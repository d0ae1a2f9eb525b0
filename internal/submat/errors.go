package submat

import "fmt"

// MatrixError is the base error type for substitution model operations.
type MatrixError interface {
	error
	IsMatrixError()
}

// UnknownSymbolError is returned when a symbol is not part of the model's alphabet.
type UnknownSymbolError struct {
	Symbol byte
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol '%c'", e.Symbol)
}

func (e *UnknownSymbolError) IsMatrixError() {}

// MalformedMatrixError is returned when a matrix source cannot be loaded.
// Line is the 1-based source line, or 0 when the problem is not tied to one.
type MalformedMatrixError struct {
	Line   int
	Reason string
}

func (e *MalformedMatrixError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed matrix source: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed matrix source: %s", e.Reason)
}

func (e *MalformedMatrixError) IsMatrixError() {}

func malformed(line int, format string, args ...interface{}) error {
	return &MalformedMatrixError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
