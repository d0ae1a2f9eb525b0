package alignment

import (
	"errors"
	"unsafe"

	"github.com/aria-lang/gotoh-go/internal/submat"
)

// Gap marks an alignment column where one sequence has no residue.
const Gap = '-'

// ScoreFunc scores one residue of X against one residue of Y.
type ScoreFunc func(x, y byte) (float64, error)

// Aligner is a mode bound to a substitution model. It holds no per-run
// state and may be shared between goroutines.
//
// Aria equivalent:
//
//	struct Aligner
//	  mode: Mode
//	  model: Model
//	  gap_init: Float
//	  gap_extend: Float
//	  invariant self.mode == Distance implies self.gap_init == -self.model.gap_init
type Aligner struct {
	mode      Mode
	model     *submat.Model
	prefers   func(x, y float64) bool
	score     ScoreFunc
	gapInit   float64
	gapExtend float64
}

// Configure binds mode to model.
//
// Similarity prefers the greater score, uses the model's similarity table
// and keeps the gap costs as stored. Distance prefers the lesser score, uses
// the distance table and negates the gap costs.
func Configure(mode Mode, model *submat.Model) (*Aligner, error) {
	if !mode.Valid() {
		return nil, &InvalidModeError{Mode: mode}
	}
	if model == nil {
		return nil, errors.New("aligner needs a substitution model")
	}
	gi, ge := model.GapCosts()

	switch mode {
	case Similarity:
		return &Aligner{
			mode:    mode,
			model:   model,
			prefers: func(x, y float64) bool { return x >= y },
			score: func(x, y byte) (float64, error) {
				s, err := model.Similarity(x, y)
				return float64(s), err
			},
			gapInit:   float64(gi),
			gapExtend: float64(ge),
		}, nil
	case Distance:
		return &Aligner{
			mode:      mode,
			model:     model,
			prefers:   func(x, y float64) bool { return x <= y },
			score:     model.Distance,
			gapInit:   float64(-gi),
			gapExtend: float64(-ge),
		}, nil
	default:
		return nil, &InvalidModeError{Mode: mode}
	}
}

// Mode returns the configured mode.
func (a *Aligner) Mode() Mode {
	return a.mode
}

// Model returns the substitution model.
func (a *Aligner) Model() *submat.Model {
	return a.model
}

// GapCosts returns the gap costs as applied by the recurrence, i.e. negated
// in Distance mode.
func (a *Aligner) GapCosts() (float64, float64) {
	return a.gapInit, a.gapExtend
}

// origin records which matrix a cell's value was taken from.
//
// In A, stay means the diagonal step (a residue pair); in I and D it means
// the gap was extended within the same matrix. The boundary cells also carry
// stay.
type origin uint8

const (
	stay origin = iota
	fromA
	fromI
	fromD
)

type cell struct {
	score float64
	from  origin
}

// grid is an (n+1) x (m+1) matrix stored row-major.
type grid struct {
	cols  int
	cells []cell
}

func newGrid(rows, cols int) grid {
	return grid{cols: cols, cells: make([]cell, rows*cols)}
}

func (g grid) at(i, j int) *cell {
	return &g.cells[i*g.cols+j]
}

// Footprint returns the number of bytes the three DP matrices need to align
// sequences of length m and n.
func Footprint(m, n int) uint64 {
	return 3 * uint64(m+1) * uint64(n+1) * uint64(unsafe.Sizeof(cell{}))
}

// Align computes the optimal global alignment of x against y.
//
// X runs along the matrix columns and Y along the rows. If either sequence is
// empty the inputs are returned as they are with a zero score and Unaligned
// set. A residue outside the model's alphabet fails the call before any
// matrix is filled.
//
// Aria equivalent:
//
//	fn align(self, x: String, y: String) -> Result<Alignment, MatrixError>
//	  ensures result.is_ok() implies result.unwrap().aligned_x.len() == result.unwrap().aligned_y.len()
//	  ensures result.is_ok() implies result.unwrap().aligned_x.len() >= max(x.len(), y.len())
func (a *Aligner) Align(x, y string) (*Result, error) {
	if len(x) == 0 || len(y) == 0 {
		return newResult(x, y, 0, a.mode, true), nil
	}
	if err := a.check(x, y); err != nil {
		return nil, err
	}

	ma, mi, md, err := a.fill(x, y)
	if err != nil {
		return nil, err
	}
	alignedX, alignedY := traceback(x, y, ma, mi, md)

	return newResult(alignedX, alignedY, ma.at(len(y), len(x)).score, a.mode, false), nil
}

// check rejects the first residue the model does not know.
func (a *Aligner) check(x, y string) error {
	for _, s := range [2]string{x, y} {
		for i := 0; i < len(s); i++ {
			if !a.model.Contains(s[i]) {
				return &submat.UnknownSymbolError{Symbol: s[i]}
			}
		}
	}
	return nil
}

// choose returns the preferred of extending an open gap or opening a new one.
func (a *Aligner) choose(extend, open float64) cell {
	if a.prefers(extend, open) {
		return cell{score: extend, from: stay}
	}
	return cell{score: open, from: fromA}
}

// best picks among the diagonal, insertion and deletion candidates, keeping
// the earlier one on ties.
func (a *Aligner) best(diag, ins, del float64) cell {
	if a.prefers(diag, ins) {
		if a.prefers(diag, del) {
			return cell{score: diag, from: stay}
		}
		return cell{score: del, from: fromD}
	}
	if a.prefers(ins, del) {
		return cell{score: ins, from: fromI}
	}
	return cell{score: del, from: fromD}
}

func (a *Aligner) fill(x, y string) (grid, grid, grid, error) {
	m, n := len(x), len(y)
	gi, ge := a.gapInit, a.gapExtend

	ma := newGrid(n+1, m+1)
	mi := newGrid(n+1, m+1)
	md := newGrid(n+1, m+1)

	for i := 1; i <= n; i++ {
		ma.at(i, 0).score = gi + float64(i)*ge
	}
	for j := 1; j <= m; j++ {
		ma.at(0, j).score = gi + float64(j)*ge
	}
	for i := 0; i <= n; i++ {
		mi.at(i, 0).score = ma.at(i, 0).score + gi
	}
	for j := 0; j <= m; j++ {
		md.at(0, j).score = ma.at(0, j).score + gi
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			s, err := a.score(x[j-1], y[i-1])
			if err != nil {
				return grid{}, grid{}, grid{}, err
			}

			del := a.choose(md.at(i-1, j).score+ge, ma.at(i-1, j).score+gi+ge)
			ins := a.choose(mi.at(i, j-1).score+ge, ma.at(i, j-1).score+gi+ge)
			*md.at(i, j) = del
			*mi.at(i, j) = ins
			*ma.at(i, j) = a.best(ma.at(i-1, j-1).score+s, ins.score, del.score)
		}
	}

	return ma, mi, md, nil
}

// traceback walks from the bottom-right cell of A back to the first row or
// column, then emits the remaining residues against gaps.
func traceback(x, y string, ma, mi, md grid) (string, string) {
	i, j := len(y), len(x)
	outX := make([]byte, 0, i+j)
	outY := make([]byte, 0, i+j)
	current := fromA

	for i > 0 && j > 0 {
		switch current {
		case fromA:
			c := ma.at(i, j)
			if c.from == stay {
				outX = append(outX, x[j-1])
				outY = append(outY, y[i-1])
				i--
				j--
			} else {
				current = c.from
			}
		case fromI:
			if mi.at(i, j).from == fromA {
				current = fromA
			}
			outX = append(outX, x[j-1])
			outY = append(outY, Gap)
			j--
		case fromD:
			if md.at(i, j).from == fromA {
				current = fromA
			}
			outX = append(outX, Gap)
			outY = append(outY, y[i-1])
			i--
		}
	}
	for ; i > 0; i-- {
		outX = append(outX, Gap)
		outY = append(outY, y[i-1])
	}
	for ; j > 0; j-- {
		outX = append(outX, x[j-1])
		outY = append(outY, Gap)
	}

	reverse(outX)
	reverse(outY)
	return string(outX), string(outY)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// ScoreOnly returns the score Align would report, keeping two rows of each
// matrix instead of the full grids.
//
// Aria equivalent:
//
//	fn score_only(self, x: String, y: String) -> Result<Float, MatrixError>
//	  ensures result == self.align(x, y).map(|r| r.score)
func (a *Aligner) ScoreOnly(x, y string) (float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, nil
	}
	if err := a.check(x, y); err != nil {
		return 0, err
	}

	m, n := len(x), len(y)
	gi, ge := a.gapInit, a.gapExtend

	prevA := make([]float64, m+1)
	prevD := make([]float64, m+1)
	currA := make([]float64, m+1)
	currD := make([]float64, m+1)

	for j := 1; j <= m; j++ {
		prevA[j] = gi + float64(j)*ge
	}
	for j := 0; j <= m; j++ {
		prevD[j] = prevA[j] + gi
	}

	for i := 1; i <= n; i++ {
		currA[0] = gi + float64(i)*ge
		ins := currA[0] + gi

		for j := 1; j <= m; j++ {
			s, err := a.score(x[j-1], y[i-1])
			if err != nil {
				return 0, err
			}

			currD[j] = a.choose(prevD[j]+ge, prevA[j]+gi+ge).score
			ins = a.choose(ins+ge, currA[j-1]+gi+ge).score
			currA[j] = a.best(prevA[j-1]+s, ins, currD[j]).score
		}

		prevA, currA = currA, prevA
		prevD, currD = currD, prevD
	}

	return prevA[m], nil
}
