// Package submat provides amino-acid substitution models.
//
// A Model holds a symmetric similarity score for every pair of symbols in
// its alphabet, the distance scores derived from it, and the gap
// initiation/extension costs that came with the source matrix. Models are
// immutable once built and may be shared between goroutines.
package submat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model is a substitution scoring scheme.
//
// Aria equivalent:
//
//	struct Model
//	  name: String
//	  alphabet: [Char]
//	  gap_init: Int
//	  gap_extend: Int
//	  invariant self.similarity(a, b) == self.similarity(b, a)
//	  invariant self.distance(a, a) == 0.0
type Model struct {
	name      string
	symbols   []byte
	index     [256]int
	sim       *mat.SymDense
	dist      *mat.SymDense
	gapInit   int
	gapExtend int
}

// New creates a model from a square score table whose rows and columns
// follow the order of symbols.
func New(name, symbols string, scores [][]int, gapInit, gapExtend int) (*Model, error) {
	n := len(symbols)
	if n == 0 {
		return nil, malformed(0, "alphabet cannot be empty")
	}
	if c, dup := firstDuplicate([]byte(symbols)); dup {
		return nil, malformed(0, "duplicate symbol %q", c)
	}
	if len(scores) != n {
		return nil, malformed(0, "expected %d score rows, got %d", n, len(scores))
	}

	sim := mat.NewSymDense(n, nil)
	for i, row := range scores {
		if len(row) != n {
			return nil, malformed(0, "row %q has %d scores, expected %d", symbols[i], len(row), n)
		}
		for j := i; j < n; j++ {
			if row[j] != scores[j][i] {
				return nil, malformed(0, "scores for %q/%q are not symmetric", symbols[i], symbols[j])
			}
			sim.SetSym(i, j, float64(row[j]))
		}
	}

	return newModel(name, []byte(symbols), sim, gapInit, gapExtend), nil
}

// newModel indexes the alphabet and derives the distance table.
func newModel(name string, symbols []byte, sim *mat.SymDense, gapInit, gapExtend int) *Model {
	m := &Model{
		name:      name,
		symbols:   symbols,
		sim:       sim,
		gapInit:   gapInit,
		gapExtend: gapExtend,
	}
	for i := range m.index {
		m.index[i] = -1
	}
	for i, c := range symbols {
		m.index[c] = i
	}

	n := len(symbols)
	m.dist = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := (sim.At(i, i)+sim.At(j, j))/2 - sim.At(i, j)
			m.dist.SetSym(i, j, d)
		}
	}
	return m
}

func firstDuplicate(symbols []byte) (byte, bool) {
	var seen [256]bool
	for _, c := range symbols {
		if seen[c] {
			return c, true
		}
		seen[c] = true
	}
	return 0, false
}

// Name returns the matrix label, e.g. "BLOSUM62".
func (m *Model) Name() string {
	return m.name
}

// Alphabet returns the model's symbols in table order.
func (m *Model) Alphabet() string {
	return string(m.symbols)
}

// Size returns the number of symbols in the alphabet.
func (m *Model) Size() int {
	return len(m.symbols)
}

// Contains reports whether c is part of the alphabet.
func (m *Model) Contains(c byte) bool {
	return m.index[c] >= 0
}

func (m *Model) lookup(a, b byte) (int, int, error) {
	ia, ib := m.index[a], m.index[b]
	if ia < 0 {
		return 0, 0, &UnknownSymbolError{Symbol: a}
	}
	if ib < 0 {
		return 0, 0, &UnknownSymbolError{Symbol: b}
	}
	return ia, ib, nil
}

// Similarity returns the substitution score of a against b.
//
// Aria equivalent:
//
//	fn similarity(self, a: Char, b: Char) -> Result<Int, MatrixError>
//	  ensures result.is_ok() implies result.unwrap() == self.similarity(b, a).unwrap()
func (m *Model) Similarity(a, b byte) (int, error) {
	ia, ib, err := m.lookup(a, b)
	if err != nil {
		return 0, err
	}
	return int(m.sim.At(ia, ib)), nil
}

// Distance returns (sim(a,a) + sim(b,b)) / 2 - sim(a,b).
//
// Aria equivalent:
//
//	fn distance(self, a: Char, b: Char) -> Result<Float, MatrixError>
//	  ensures result.is_ok() implies result.unwrap() == self.distance(b, a).unwrap()
func (m *Model) Distance(a, b byte) (float64, error) {
	ia, ib, err := m.lookup(a, b)
	if err != nil {
		return 0, err
	}
	return m.dist.At(ia, ib), nil
}

// GapCosts returns the gap initiation and extension costs as stored.
func (m *Model) GapCosts() (int, int) {
	return m.gapInit, m.gapExtend
}

// WithGapCosts returns a model sharing m's scores with different gap costs.
func (m *Model) WithGapCosts(gapInit, gapExtend int) *Model {
	c := *m
	c.gapInit, c.gapExtend = gapInit, gapExtend
	return &c
}

// SimilarityTable returns a copy of the similarity scores in alphabet order.
func (m *Model) SimilarityTable() [][]int {
	n := len(m.symbols)
	table := make([][]int, n)
	for i := range table {
		table[i] = make([]int, n)
		for j := range table[i] {
			table[i][j] = int(m.sim.At(i, j))
		}
	}
	return table
}

func (m *Model) String() string {
	return fmt.Sprintf("Model { name: %s, symbols: %d, gap_init: %d, gap_extend: %d }",
		m.name, len(m.symbols), m.gapInit, m.gapExtend)
}
