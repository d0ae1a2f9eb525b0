// Package report renders alignments and batch runs as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aria-lang/gotoh-go/internal/alignment"
	"github.com/aria-lang/gotoh-go/internal/batch"
	"github.com/aria-lang/gotoh-go/internal/stats"
	"github.com/dustin/go-humanize"
)

// DefaultWidth is the number of alignment columns per printed block.
const DefaultWidth = 60

// Options controls text output.
type Options struct {
	// Width wraps alignment blocks; zero or less means DefaultWidth.
	Width int
	// Alignments prints every pair's alignment after the summary.
	Alignments bool
	// Histogram, when positive, prints score and length histograms with
	// that many bins.
	Histogram int
}

func (o Options) width() int {
	if o.Width <= 0 {
		return DefaultWidth
	}
	return o.Width
}

// WriteAlignment prints r as wrapped three-row blocks followed by its score
// line:
//
//	X: CQ---P
//	   |.   |
//	Y: CSQATP
//
//	Score: 2 (similarity)  Identity: 33.3%  Gaps: 3  CIGAR: 1M1X3D1M
func WriteAlignment(w io.Writer, r *alignment.Result, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}

	match := r.MatchLine()
	for start := 0; start < r.Length(); start += width {
		end := start + width
		if end > r.Length() {
			end = r.Length()
		}
		if _, err := fmt.Fprintf(w, "X: %s\n   %s\nY: %s\n\n",
			slice(r.AlignedX, start, end), match[start:end], slice(r.AlignedY, start, end)); err != nil {
			return err
		}
	}
	if r.Unaligned {
		if _, err := fmt.Fprintln(w, "(empty input, not aligned)"); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Score: %s (%s)  Identity: %.1f%%  Gaps: %d  CIGAR: %s\n",
		alignment.FormatScore(r.Score), r.Mode, r.Identity*100, r.TotalGaps(), r.ToCIGAR())
	return err
}

// slice clips [start, end) to s, which may be shorter than the alignment
// when the result is unaligned.
func slice(s string, start, end int) string {
	if start >= len(s) {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// WriteText prints a batch summary and, if requested, every alignment.
func WriteText(w io.Writer, rep *batch.Report, opts Options) error {
	tw := &textWriter{w: w}

	tw.printf("Run %s (%s)\n", rep.RunID, rep.Kind)
	tw.printf("Mode: %s  Matrix: %s  Gaps: %d/%d\n", rep.Mode, rep.Model, rep.GapInit, rep.GapExtend)
	if s := rep.Sequences; s != nil {
		tw.printf("Sequences: %d  Residues: %s  Length: %d-%d (median %d)\n",
			s.Count, humanize.Comma(int64(s.TotalResidues)), s.MinLength, s.MaxLength, s.MedianLength)
	}

	cells := Cells(rep)
	tw.printf("Pairs: %d  Failed: %d  DP cells: %s  Elapsed: %s\n",
		len(rep.Pairs), rep.Failed, humanize.Comma(int64(cells)), rep.Elapsed.Round(time.Microsecond))

	if sc := rep.Scores; sc != nil {
		tw.printf("Scores: min %s  max %s  mean %.2f  median %s  mean identity %.1f%%\n",
			alignment.FormatScore(sc.MinScore), alignment.FormatScore(sc.MaxScore),
			sc.MeanScore, alignment.FormatScore(sc.MedianScore), sc.MeanIdentity*100)
	}
	if best, ok := rep.Best(); ok {
		tw.printf("Best: %s vs %s  score %s\n", best.XName, best.YName, alignment.FormatScore(best.Result.Score))
	}

	for _, p := range rep.Pairs {
		if p.OK() {
			continue
		}
		tw.printf("Failed: %s vs %s: %s\n", p.XName, p.YName, p.Error)
	}

	if opts.Histogram > 0 {
		if err := writeHistograms(tw, rep, opts.Histogram); err != nil {
			return err
		}
	}

	if !opts.Alignments || tw.err != nil {
		return tw.err
	}

	for _, p := range rep.Pairs {
		if !p.OK() {
			continue
		}
		tw.printf("\n# %s vs %s\n\n", p.XName, p.YName)
		if tw.err != nil {
			return tw.err
		}
		if err := WriteAlignment(w, p.Result, opts.width()); err != nil {
			return err
		}
	}
	return tw.err
}

func writeHistograms(tw *textWriter, rep *batch.Report, bins int) error {
	results := make([]*alignment.Result, 0, len(rep.Pairs))
	for _, p := range rep.Pairs {
		if p.OK() {
			results = append(results, p.Result)
		}
	}
	if scores, err := stats.NewScoreHistogram(results, bins); err == nil {
		tw.printf("\n%s", scores)
	}

	lengths, err := stats.NewLengthHistogram(rep.Lengths, bins)
	if err != nil {
		return err
	}
	tw.printf("\n%s", lengths)
	return tw.err
}

// WriteScoreTable prints the pairwise score table of an all-pairs run.
func WriteScoreTable(w io.Writer, rep *batch.Report) error {
	table, err := rep.ScoreTable()
	if err != nil {
		return err
	}

	nameWidth := 0
	for _, name := range rep.Names {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	tw := &textWriter{w: w}
	tw.printf("%-*s", nameWidth, "")
	for i := range rep.Names {
		tw.printf(" %8d", i+1)
	}
	tw.printf("\n")
	for i, row := range table {
		tw.printf("%-*s", nameWidth, rep.Names[i])
		for _, v := range row {
			tw.printf(" %8s", alignment.FormatScore(v))
		}
		tw.printf("\n")
	}
	return tw.err
}

// Cells returns the number of DP cells a run filled, counting all three
// matrices.
func Cells(rep *batch.Report) uint64 {
	var cells uint64
	for _, p := range rep.Pairs {
		if !p.OK() || p.Result.Unaligned {
			continue
		}
		x, y := p.Result.Ungapped()
		cells += 3 * uint64(len(x)+1) * uint64(len(y)+1)
	}
	return cells
}

// WriteJSON encodes rep as JSON.
func WriteJSON(w io.Writer, rep interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Footprint describes the memory Align needs for sequences of length m and
// n. Footprint(3, 6) is "3 x 7 x 4 cells, 1.3 kB".
func Footprint(m, n int) string {
	return fmt.Sprintf("3 x %d x %d cells, %s", n+1, m+1, humanize.Bytes(alignment.Footprint(m, n)))
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}
