package submat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
)

var (
	gapInitPattern   = regexp.MustCompile(`^Gap_initiation = -?\d+$`)
	gapExtendPattern = regexp.MustCompile(`^Gap_extension = -?\d+$`)
)

// ReadFile loads a model from a matrix file.
func ReadFile(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening matrix: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a model from its text form:
//
//	BLOSUM62
//	   A  R  N ...
//	A  4 -1 -2 ...
//	R -1  5  0 ...
//	...
//	Gap_initiation = -11
//	Gap_extension = -1
//
// Blank lines are ignored. Each row label must match the header symbol at
// the same position. A row may be shorter than the header (lower-triangular
// input); every value is also written to its mirrored cell, so a later value
// overwrites an earlier one. Every pair must be covered once all rows are read.
func Parse(r io.Reader) (*Model, error) {
	lr := &lineReader{scanner: bufio.NewScanner(r)}

	tokens, err := lr.next()
	if err != nil {
		return nil, lr.fail(err, "missing matrix name")
	}
	name := tokens[0]

	header, err := lr.next()
	if err != nil {
		return nil, lr.fail(err, "missing header line")
	}
	symbols := make([]byte, len(header))
	for i, tok := range header {
		if len(tok) != 1 {
			return nil, malformed(lr.line, "header token %q is not a single symbol", tok)
		}
		symbols[i] = tok[0]
	}
	if c, dup := firstDuplicate(symbols); dup {
		return nil, malformed(lr.line, "duplicate header symbol %q", c)
	}

	n := len(symbols)
	sim := mat.NewSymDense(n, nil)
	covered := bitset.New(uint(n * n))

	for row := 0; row < n; row++ {
		tokens, err := lr.next()
		if err != nil {
			return nil, lr.fail(err, fmt.Sprintf("missing row for %q", header[row]))
		}
		if tokens[0] != header[row] {
			return nil, malformed(lr.line, "row label %q does not match header symbol %q", tokens[0], header[row])
		}
		values := tokens[1:]
		if len(values) > n {
			return nil, malformed(lr.line, "row %q has %d scores, header has %d symbols", tokens[0], len(values), n)
		}
		for col, tok := range values {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, malformed(lr.line, "row %q: invalid score %q", tokens[0], tok)
			}
			sim.SetSym(row, col, float64(v))
			covered.Set(uint(row*n + col)).Set(uint(col*n + row))
		}
	}

	if covered.Count() != uint(n*n) {
		idx, _ := covered.NextClear(0)
		a, b := symbols[int(idx)/n], symbols[int(idx)%n]
		return nil, malformed(lr.line, "no score for pair %q/%q", a, b)
	}

	gapInit, err := lr.gapCost(gapInitPattern, "Gap_initiation")
	if err != nil {
		return nil, err
	}
	gapExtend, err := lr.gapCost(gapExtendPattern, "Gap_extension")
	if err != nil {
		return nil, err
	}

	return newModel(name, symbols, sim, gapInit, gapExtend), nil
}

// lineReader yields the tokens of successive non-blank lines.
type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func (lr *lineReader) next() ([]string, error) {
	for lr.scanner.Scan() {
		lr.line++
		if tokens := strings.Fields(lr.scanner.Text()); len(tokens) > 0 {
			return tokens, nil
		}
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading matrix: %w", err)
	}
	return nil, io.EOF
}

// fail turns an unexpected end of input into a MalformedMatrixError and
// passes read errors through.
func (lr *lineReader) fail(err error, reason string) error {
	if err == io.EOF {
		return &MalformedMatrixError{Line: lr.line, Reason: reason}
	}
	return err
}

func (lr *lineReader) gapCost(pattern *regexp.Regexp, label string) (int, error) {
	tokens, err := lr.next()
	if err != nil {
		return 0, lr.fail(err, fmt.Sprintf("missing '%s = <int>' line", label))
	}
	if !pattern.MatchString(strings.Join(tokens, " ")) {
		return 0, malformed(lr.line, "expected '%s = <int>', got %q", label, strings.Join(tokens, " "))
	}
	v, err := strconv.Atoi(tokens[2])
	if err != nil {
		return 0, malformed(lr.line, "%s value %q out of range", label, tokens[2])
	}
	return v, nil
}
