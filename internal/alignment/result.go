package alignment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Result is an aligned pair and its score.
//
// Aria equivalent:
//
//	struct Alignment
//	  aligned_x: String
//	  aligned_y: String
//	  score: Float
//	  mode: Mode
//	  identity: Float
//	  unaligned: Bool
//	  invariant not self.unaligned implies self.aligned_x.len() == self.aligned_y.len()
//	  invariant self.identity >= 0.0 and self.identity <= 1.0
type Result struct {
	AlignedX string  `json:"aligned_x"`
	AlignedY string  `json:"aligned_y"`
	Score    float64 `json:"score"`
	Mode     Mode    `json:"mode"`
	Identity float64 `json:"identity"`
	// Unaligned is set when an empty input short-circuited the run. The
	// sequences are then returned as given and may differ in length.
	Unaligned bool `json:"unaligned,omitempty"`
}

func newResult(x, y string, score float64, mode Mode, unaligned bool) *Result {
	r := &Result{
		AlignedX:  x,
		AlignedY:  y,
		Score:     score,
		Mode:      mode,
		Unaligned: unaligned,
	}
	if n := r.Length(); n > 0 {
		r.Identity = float64(r.MatchCount()) / float64(n)
	}
	return r
}

// Length returns the number of alignment columns.
func (r *Result) Length() int {
	if len(r.AlignedX) > len(r.AlignedY) {
		return len(r.AlignedX)
	}
	return len(r.AlignedY)
}

// column returns the residues at position i, padding the shorter side of an
// unaligned result with gaps.
func (r *Result) column(i int) (byte, byte) {
	x, y := byte(Gap), byte(Gap)
	if i < len(r.AlignedX) {
		x = r.AlignedX[i]
	}
	if i < len(r.AlignedY) {
		y = r.AlignedY[i]
	}
	return x, y
}

// MatchCount returns the number of identical residue pairs.
func (r *Result) MatchCount() int {
	count := 0
	for i := 0; i < r.Length(); i++ {
		if x, y := r.column(i); x == y && x != Gap {
			count++
		}
	}
	return count
}

// MismatchCount returns the number of differing residue pairs.
func (r *Result) MismatchCount() int {
	count := 0
	for i := 0; i < r.Length(); i++ {
		if x, y := r.column(i); x != y && x != Gap && y != Gap {
			count++
		}
	}
	return count
}

// gapMasks marks the gap columns of each side.
func (r *Result) gapMasks() (*bitset.BitSet, *bitset.BitSet) {
	n := uint(r.Length())
	maskX, maskY := bitset.New(n), bitset.New(n)
	for i := 0; i < r.Length(); i++ {
		x, y := r.column(i)
		if x == Gap {
			maskX.Set(uint(i))
		}
		if y == Gap {
			maskY.Set(uint(i))
		}
	}
	return maskX, maskY
}

// GapsX returns the number of gap columns in X.
func (r *Result) GapsX() int {
	maskX, _ := r.gapMasks()
	return int(maskX.Count())
}

// GapsY returns the number of gap columns in Y.
func (r *Result) GapsY() int {
	_, maskY := r.gapMasks()
	return int(maskY.Count())
}

// TotalGaps returns the total number of gap columns.
func (r *Result) TotalGaps() int {
	maskX, maskY := r.gapMasks()
	return int(maskX.Count() + maskY.Count())
}

// GapOpenings counts the maximal runs of gaps on both sides.
func (r *Result) GapOpenings() int {
	maskX, maskY := r.gapMasks()
	return runs(maskX) + runs(maskY)
}

func runs(mask *bitset.BitSet) int {
	count := 0
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		if i == 0 || !mask.Test(i-1) {
			count++
		}
	}
	return count
}

// ToCIGAR encodes the alignment with Y as the reference: 'M' match,
// 'X' mismatch, 'I' residue of X against a gap, 'D' gap in X.
func (r *Result) ToCIGAR() string {
	var cigar strings.Builder
	currentOp := byte(0)
	count := 0

	for i := 0; i < r.Length(); i++ {
		var op byte
		x, y := r.column(i)
		switch {
		case y == Gap:
			op = 'I'
		case x == Gap:
			op = 'D'
		case x == y:
			op = 'M'
		default:
			op = 'X'
		}

		if op == currentOp {
			count++
			continue
		}
		if count > 0 {
			fmt.Fprintf(&cigar, "%d%c", count, currentOp)
		}
		currentOp = op
		count = 1
	}
	if count > 0 {
		fmt.Fprintf(&cigar, "%d%c", count, currentOp)
	}

	return cigar.String()
}

// MatchLine returns the row printed between the aligned sequences:
// '|' for identical residues, ' ' where either side is a gap and '.'
// otherwise.
func (r *Result) MatchLine() string {
	line := make([]byte, r.Length())
	for i := range line {
		x, y := r.column(i)
		switch {
		case x == Gap || y == Gap:
			line[i] = ' '
		case x == y:
			line[i] = '|'
		default:
			line[i] = '.'
		}
	}
	return string(line)
}

// FormatScore renders a score without trailing zeros.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// Format returns the three-row alignment block followed by its summary.
func (r *Result) Format() string {
	return fmt.Sprintf("X: %s\n   %s\nY: %s\nScore: %s (%s)\nIdentity: %.1f%%\nCIGAR: %s",
		r.AlignedX, r.MatchLine(), r.AlignedY,
		FormatScore(r.Score), r.Mode, r.Identity*100, r.ToCIGAR())
}

func (r *Result) String() string {
	return fmt.Sprintf("Alignment { mode: %s, score: %s, identity: %.1f%%, length: %d }",
		r.Mode, FormatScore(r.Score), r.Identity*100, r.Length())
}

// Ungapped returns the aligned sequences with gap columns removed.
func (r *Result) Ungapped() (string, string) {
	strip := func(s string) string { return strings.ReplaceAll(s, string(Gap), "") }
	if r.Unaligned {
		return r.AlignedX, r.AlignedY
	}
	return strip(r.AlignedX), strip(r.AlignedY)
}
