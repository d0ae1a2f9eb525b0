// Package stats provides statistical summaries for protein sequences and
// alignment runs.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aria-lang/gotoh-go/internal/alignment"
	"github.com/aria-lang/gotoh-go/internal/sequence"
)

// Ambiguous lists the residue codes that stand for more than one amino acid.
const Ambiguous = "BZX"

// SequenceStats represents statistics for a single sequence.
//
// Aria equivalent:
//
//	struct SequenceStats
//	  invariant self.composition.total() == self.length
//	  invariant self.ambiguous_count <= self.length
type SequenceStats struct {
	Length         int
	Distinct       int
	MostCommon     byte
	AmbiguousCount int
	Composition    sequence.Composition
}

// FromSequence calculates statistics for a sequence.
func FromSequence(seq *sequence.Sequence) *SequenceStats {
	counts := seq.Composition()

	stats := &SequenceStats{
		Length:      seq.Len(),
		Distinct:    len(counts),
		Composition: counts,
	}
	for r, n := range counts {
		if n > counts[stats.MostCommon] || (n == counts[stats.MostCommon] && r < stats.MostCommon) {
			stats.MostCommon = r
		}
		if strings.IndexByte(Ambiguous, r) >= 0 {
			stats.AmbiguousCount += n
		}
	}
	return stats
}

// HasAmbiguous reports whether any ambiguity code occurs.
func (s *SequenceStats) HasAmbiguous() bool {
	return s.AmbiguousCount > 0
}

func (s *SequenceStats) String() string {
	return fmt.Sprintf(`SequenceStats {
  length: %d
  distinct residues: %d
  most common: %c
  ambiguous: %d
  composition: %s
}`, s.Length, s.Distinct, s.MostCommon, s.AmbiguousCount, s.Composition)
}

// SequenceSetStats represents aggregated statistics for multiple sequences.
//
// Aria equivalent:
//
//	struct SequenceSetStats
//	  count: Int
//	  total_residues: Int
//	  min_length: Int
//	  max_length: Int
//	  mean_length: Float
//	  median_length: Int
//	  n50: Int
//	  total_ambiguous: Int
type SequenceSetStats struct {
	Count          int     `json:"count"`
	TotalResidues  int     `json:"total_residues"`
	MinLength      int     `json:"min_length"`
	MaxLength      int     `json:"max_length"`
	MeanLength     float64 `json:"mean_length"`
	MedianLength   int     `json:"median_length"`
	N50            int     `json:"n50"`
	TotalAmbiguous int     `json:"total_ambiguous"`
}

// FromSequences calculates statistics for a collection of sequences.
//
// Aria equivalent:
//
//	fn from_sequences(sequences: [Sequence]) -> SequenceSetStats
//	  requires sequences.len() > 0
//	  ensures result.count == sequences.len()
func FromSequences(sequences []*sequence.Sequence) (*SequenceSetStats, error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("sequence list cannot be empty")
	}

	count := len(sequences)
	lengths := make([]int, count)
	total := 0
	ambiguous := 0

	for i, seq := range sequences {
		lengths[i] = seq.Len()
		total += seq.Len()
		ambiguous += FromSequence(seq).AmbiguousCount
	}

	sorted := make([]int, count)
	copy(sorted, lengths)
	sort.Ints(sorted)

	mid := count / 2
	var median int
	if count%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	return &SequenceSetStats{
		Count:          count,
		TotalResidues:  total,
		MinLength:      sorted[0],
		MaxLength:      sorted[count-1],
		MeanLength:     float64(total) / float64(count),
		MedianLength:   median,
		N50:            n50(lengths, total),
		TotalAmbiguous: ambiguous,
	}, nil
}

// n50 is the length at which sequences at least that long hold half the
// residues.
func n50(lengths []int, total int) int {
	desc := make([]int, len(lengths))
	copy(desc, lengths)
	sort.Sort(sort.Reverse(sort.IntSlice(desc)))

	half := total / 2
	running := 0
	for _, length := range desc {
		running += length
		if running >= half {
			return length
		}
	}
	return desc[0]
}

func (s *SequenceSetStats) String() string {
	return fmt.Sprintf(`SequenceSetStats {
  count: %d
  total_residues: %d
  length range: %d - %d
  mean length: %.1f
  median length: %d
  N50: %d
  ambiguous residues: %d
}`, s.Count, s.TotalResidues, s.MinLength, s.MaxLength,
		s.MeanLength, s.MedianLength, s.N50, s.TotalAmbiguous)
}

// AlignmentSetStats summarises the scores of a set of alignments. Results
// flagged Unaligned are counted but excluded from the score figures.
//
// Aria equivalent:
//
//	struct AlignmentSetStats
//	  invariant self.aligned <= self.count
//	  invariant self.aligned > 0 implies self.min_score <= self.mean_score
//	  invariant self.aligned > 0 implies self.mean_score <= self.max_score
type AlignmentSetStats struct {
	Count        int     `json:"count"`
	Aligned      int     `json:"aligned"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	MeanScore    float64 `json:"mean_score"`
	MedianScore  float64 `json:"median_score"`
	MeanIdentity float64 `json:"mean_identity"`
	MeanLength   float64 `json:"mean_length"`
	TotalGaps    int     `json:"total_gaps"`
}

// FromResults calculates statistics for a collection of alignments.
func FromResults(results []*alignment.Result) (*AlignmentSetStats, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("result list cannot be empty")
	}

	stats := &AlignmentSetStats{Count: len(results)}
	scores := make([]float64, 0, len(results))
	identitySum, lengthSum := 0.0, 0

	for _, r := range results {
		if r == nil || r.Unaligned {
			continue
		}
		scores = append(scores, r.Score)
		identitySum += r.Identity
		lengthSum += r.Length()
		stats.TotalGaps += r.TotalGaps()
	}

	stats.Aligned = len(scores)
	if stats.Aligned == 0 {
		return stats, nil
	}

	sort.Float64s(scores)
	sum := 0.0
	for _, s := range scores {
		sum += s
	}

	n := float64(stats.Aligned)
	stats.MinScore = scores[0]
	stats.MaxScore = scores[len(scores)-1]
	stats.MeanScore = sum / n
	mid := len(scores) / 2
	if len(scores)%2 == 0 {
		stats.MedianScore = (scores[mid-1] + scores[mid]) / 2
	} else {
		stats.MedianScore = scores[mid]
	}
	stats.MeanIdentity = identitySum / n
	stats.MeanLength = float64(lengthSum) / n

	return stats, nil
}

func (s *AlignmentSetStats) String() string {
	return fmt.Sprintf(`AlignmentSetStats {
  count: %d (aligned %d)
  score range: %s - %s
  mean score: %.2f
  median score: %s
  mean identity: %.1f%%
  mean length: %.1f
  gaps: %d
}`, s.Count, s.Aligned,
		alignment.FormatScore(s.MinScore), alignment.FormatScore(s.MaxScore),
		s.MeanScore, alignment.FormatScore(s.MedianScore),
		s.MeanIdentity*100, s.MeanLength, s.TotalGaps)
}

// ScoreHistogram buckets alignment scores into equal-width bins.
type ScoreHistogram struct {
	Bins     []int
	MinScore float64
	MaxScore float64
	BinWidth float64
	NumBins  int
}

// NewScoreHistogram creates a score histogram from aligned results.
func NewScoreHistogram(results []*alignment.Result, numBins int) (*ScoreHistogram, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("numBins must be positive")
	}

	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if r != nil && !r.Unaligned {
			scores = append(scores, r.Score)
		}
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("result list has no aligned pairs")
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	width := (maxScore - minScore) / float64(numBins)
	if width <= 0 {
		width = 1
	}

	bins := make([]int, numBins)
	for _, s := range scores {
		idx := int((s - minScore) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		bins[idx]++
	}

	return &ScoreHistogram{
		Bins:     bins,
		MinScore: minScore,
		MaxScore: maxScore,
		BinWidth: width,
		NumBins:  numBins,
	}, nil
}

func (h *ScoreHistogram) String() string {
	var sb strings.Builder
	sb.WriteString("Score Histogram:\n")
	for i := 0; i < h.NumBins; i++ {
		start := h.MinScore + float64(i)*h.BinWidth
		count := h.Bins[i]
		fmt.Fprintf(&sb, "%8.1f-%8.1f: %s (%d)\n",
			start, start+h.BinWidth, strings.Repeat("#", count), count)
	}
	return sb.String()
}

// LengthHistogram represents a length histogram for sequences.
type LengthHistogram struct {
	Bins      []int
	MinLength int
	MaxLength int
	BinWidth  int
	NumBins   int
}

// NewLengthHistogram creates a histogram of sequence lengths.
func NewLengthHistogram(lengths []int, numBins int) (*LengthHistogram, error) {
	if len(lengths) == 0 {
		return nil, fmt.Errorf("length list cannot be empty")
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("numBins must be positive")
	}

	minLen, maxLen := lengths[0], lengths[0]
	for _, n := range lengths {
		if n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
	}

	binWidth := (maxLen - minLen + numBins - 1) / numBins
	if binWidth < 1 {
		binWidth = 1
	}

	bins := make([]int, numBins)
	for _, n := range lengths {
		idx := (n - minLen) / binWidth
		if idx >= numBins {
			idx = numBins - 1
		}
		bins[idx]++
	}

	return &LengthHistogram{
		Bins:      bins,
		MinLength: minLen,
		MaxLength: maxLen,
		BinWidth:  binWidth,
		NumBins:   numBins,
	}, nil
}

func (h *LengthHistogram) String() string {
	var sb strings.Builder
	sb.WriteString("Length Histogram:\n")
	for i := 0; i < h.NumBins; i++ {
		start := h.MinLength + i*h.BinWidth
		count := h.Bins[i]
		fmt.Fprintf(&sb, "%5d-%5d: %s (%d)\n",
			start, start+h.BinWidth, strings.Repeat("#", count), count)
	}
	return sb.String()
}
