package stats

import (
	"strings"
	"testing"

	"github.com/aria-lang/gotoh-go/internal/alignment"
	"github.com/aria-lang/gotoh-go/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSequence(t *testing.T) {
	seq, err := sequence.New("MKKXBAZ")
	require.NoError(t, err)

	stats := FromSequence(seq)

	assert.Equal(t, 7, stats.Length)
	assert.Equal(t, 6, stats.Distinct)
	assert.Equal(t, byte('K'), stats.MostCommon)
	assert.Equal(t, 3, stats.AmbiguousCount)
	assert.True(t, stats.HasAmbiguous())
	assert.Equal(t, 7, stats.Composition.Total())
	assert.Contains(t, stats.String(), "most common: K")
}

func TestFromSequenceTieBreak(t *testing.T) {
	seq, err := sequence.New("WCWC")
	require.NoError(t, err)

	stats := FromSequence(seq)
	assert.Equal(t, byte('C'), stats.MostCommon)
	assert.False(t, stats.HasAmbiguous())
}

func TestFromSequences(t *testing.T) {
	s1, _ := sequence.New("CQPX")     // len=4
	s2, _ := sequence.New("CSQATPCS") // len=8
	s3, _ := sequence.New("HEAG")     // len=4

	stats, err := FromSequences([]*sequence.Sequence{s1, s2, s3})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 16, stats.TotalResidues)
	assert.Equal(t, 4, stats.MinLength)
	assert.Equal(t, 8, stats.MaxLength)
	assert.InDelta(t, 16.0/3.0, stats.MeanLength, 0.0001)
	assert.Equal(t, 4, stats.MedianLength) // sorted: 4, 4, 8; middle = 4
	assert.Equal(t, 1, stats.TotalAmbiguous)
}

func TestFromSequencesEmpty(t *testing.T) {
	_, err := FromSequences([]*sequence.Sequence{})
	require.Error(t, err)
}

func TestN50Calculation(t *testing.T) {
	// Lengths 100, 80, 60, 40, 20: total 300, half 150, 100 + 80 >= 150
	var sequences []*sequence.Sequence
	for _, n := range []int{100, 80, 60, 40, 20} {
		s, err := sequence.New(generateSeq(n))
		require.NoError(t, err)
		sequences = append(sequences, s)
	}

	stats, err := FromSequences(sequences)
	require.NoError(t, err)

	assert.Equal(t, 80, stats.N50)
	assert.Equal(t, 60, stats.MedianLength)
}

func generateSeq(length int) string {
	residues := "ACDEFGHIKLMNPQRSTVWY"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = residues[i%len(residues)]
	}
	return string(result)
}

func results() []*alignment.Result {
	return []*alignment.Result{
		{AlignedX: "CQ---P", AlignedY: "CSQATP", Score: 2, Identity: 2.0 / 6.0},
		{AlignedX: "CS-TP", AlignedY: "CSQTP", Score: 13, Identity: 0.8},
		{AlignedX: "MKTAYIAKQR", AlignedY: "MKTAYIAKQR", Score: 49, Identity: 1},
		{AlignedX: "", AlignedY: "CQP", Unaligned: true},
	}
}

func TestFromResults(t *testing.T) {
	stats, err := FromResults(results())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 3, stats.Aligned)
	assert.Equal(t, 2.0, stats.MinScore)
	assert.Equal(t, 49.0, stats.MaxScore)
	assert.InDelta(t, 64.0/3.0, stats.MeanScore, 1e-9)
	assert.Equal(t, 13.0, stats.MedianScore)
	assert.InDelta(t, (2.0/6.0+0.8+1)/3, stats.MeanIdentity, 1e-9)
	assert.InDelta(t, 7.0, stats.MeanLength, 1e-9)
	assert.Equal(t, 4, stats.TotalGaps)
	assert.Contains(t, stats.String(), "score range: 2 - 49")
}

func TestFromResultsEdgeCases(t *testing.T) {
	_, err := FromResults(nil)
	require.Error(t, err)

	stats, err := FromResults([]*alignment.Result{{AlignedY: "CQP", Unaligned: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 0, stats.Aligned)
	assert.Equal(t, 0.0, stats.MeanScore)

	stats, err = FromResults(results()[:2])
	require.NoError(t, err)
	assert.Equal(t, 7.5, stats.MedianScore)
}

func TestScoreHistogram(t *testing.T) {
	hist, err := NewScoreHistogram(results(), 4)
	require.NoError(t, err)

	assert.Equal(t, 4, hist.NumBins)
	assert.Equal(t, 2.0, hist.MinScore)
	assert.Equal(t, 49.0, hist.MaxScore)
	assert.Equal(t, []int{2, 0, 0, 1}, hist.Bins)
	assert.True(t, strings.HasPrefix(hist.String(), "Score Histogram:\n"))

	single, err := NewScoreHistogram(results()[:1], 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, single.Bins)

	_, err = NewScoreHistogram(results(), 0)
	assert.Error(t, err)
	_, err = NewScoreHistogram(results()[3:], 2)
	assert.Error(t, err)
}

func TestLengthHistogram(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
		bins    int
		want    []int
		width   int
	}{
		{name: "spread", lengths: []int{4, 8, 16}, bins: 5, want: []int{1, 1, 0, 0, 1}, width: 3},
		{name: "last bin holds max", lengths: []int{141, 146, 153}, bins: 2, want: []int{2, 1}, width: 6},
		{name: "equal lengths", lengths: []int{7, 7}, bins: 3, want: []int{2, 0, 0}, width: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist, err := NewLengthHistogram(tt.lengths, tt.bins)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hist.Bins)
			assert.Equal(t, tt.width, hist.BinWidth)
			assert.True(t, strings.HasPrefix(hist.String(), "Length Histogram:\n"))
		})
	}
}

func TestEmptyHistograms(t *testing.T) {
	_, err := NewLengthHistogram(nil, 10)
	require.Error(t, err)
	_, err = NewLengthHistogram([]int{3}, 0)
	require.Error(t, err)
}

func BenchmarkFromSequences(b *testing.B) {
	sequences := make([]*sequence.Sequence, 100)
	for i := 0; i < 100; i++ {
		sequences[i], _ = sequence.New(generateSeq(1000))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = FromSequences(sequences)
	}
}
