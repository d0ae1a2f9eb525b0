package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aria-lang/gotoh-go/internal/alignment"
	"github.com/aria-lang/gotoh-go/internal/sequence"
	"github.com/aria-lang/gotoh-go/internal/submat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAligner(t testing.TB, mode alignment.Mode) *alignment.Aligner {
	t.Helper()
	model, err := submat.ReadFile("../submat/testdata/blosum62.txt")
	require.NoError(t, err)
	a, err := alignment.Configure(mode, model)
	require.NoError(t, err)
	return a
}

func seqs(t testing.TB, residues ...string) []*sequence.Sequence {
	t.Helper()
	out := make([]*sequence.Sequence, len(residues))
	for i, r := range residues {
		s, err := sequence.WithID(r, r)
		require.NoError(t, err)
		out[i] = s
	}
	return out
}

func TestAllPairs(t *testing.T) {
	tests := []struct {
		mode   alignment.Mode
		scores []float64
		best   [2]int
	}{
		{mode: alignment.Similarity, scores: []float64{2, 4, 12}, best: [2]int{1, 2}},
		{mode: alignment.Distance, scores: []float64{18.5, 16.5, 13}, best: [2]int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			report, err := AllPairs(context.Background(), seqs(t, "CQP", "CSQATP", "CSTP"),
				newAligner(t, tt.mode), Options{})
			require.NoError(t, err)

			require.Len(t, report.Pairs, 3)
			wantIdx := [][2]int{{0, 1}, {0, 2}, {1, 2}}
			for k, p := range report.Pairs {
				assert.Equal(t, wantIdx[k], [2]int{p.X, p.Y})
				require.True(t, p.OK())
				assert.Equal(t, tt.scores[k], p.Result.Score)
			}
			assert.Equal(t, "CQP", report.Pairs[0].XName)
			assert.Equal(t, "CSQATP", report.Pairs[0].YName)

			best, ok := report.Best()
			require.True(t, ok)
			assert.Equal(t, tt.best, [2]int{best.X, best.Y})

			assert.Equal(t, AllPairsKind, report.Kind)
			assert.Equal(t, tt.mode, report.Mode)
			assert.Equal(t, "BLOSUM62", report.Model)
			assert.Equal(t, -11, report.GapInit)
			assert.Equal(t, -1, report.GapExtend)
			assert.Equal(t, []string{"CQP", "CSQATP", "CSTP"}, report.Names)
			assert.Equal(t, []int{3, 6, 4}, report.Lengths)
			assert.Equal(t, 0, report.Failed)
			assert.Equal(t, 3, report.Sequences.Count)
			require.NotNil(t, report.Scores)
			assert.Equal(t, 3, report.Scores.Aligned)

			_, err = uuid.Parse(report.RunID)
			assert.NoError(t, err)

			table, err := report.ScoreTable()
			require.NoError(t, err)
			assert.Equal(t, tt.scores[2], table[1][2])
			assert.Equal(t, tt.scores[2], table[2][1])
			assert.Equal(t, 0.0, table[1][1])
		})
	}
}

func TestAllPairsTooFew(t *testing.T) {
	_, err := AllPairs(context.Background(), seqs(t, "CQP"), newAligner(t, alignment.Similarity), Options{})
	assert.Error(t, err)
}

func TestAgainstMany(t *testing.T) {
	tests := []struct {
		mode   alignment.Mode
		scores []float64
	}{
		{mode: alignment.Similarity, scores: []float64{2, 4, -16}},
		{mode: alignment.Distance, scores: []float64{18.5, 16.5, 34}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			all := seqs(t, "CQP", "CSQATP", "CSTP", "MKTAYIAKQR")
			report, err := AgainstMany(context.Background(), all[0], all[1:],
				newAligner(t, tt.mode), Options{Batches: 2})
			require.NoError(t, err)

			require.Len(t, report.Pairs, 3)
			for k, p := range report.Pairs {
				assert.Equal(t, 0, p.X)
				assert.Equal(t, k, p.Y)
				assert.Equal(t, tt.scores[k], p.Result.Score)
			}

			best, ok := report.Best()
			require.True(t, ok)
			assert.Equal(t, 1, best.Y)
			assert.Equal(t, "CSTP", best.YName)

			assert.Equal(t, AgainstManyKind, report.Kind)
			assert.Len(t, report.Names, 4)

			_, err = report.ScoreTable()
			assert.Error(t, err)
		})
	}
}

func TestNegativeBatches(t *testing.T) {
	a := newAligner(t, alignment.Similarity)
	all := seqs(t, "CQP", "CSQATP", "CSTP")

	_, err := AllPairs(context.Background(), all, a, Options{Batches: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-1")

	_, err = AgainstMany(context.Background(), all[0], all[1:], a, Options{Batches: -3})
	assert.Error(t, err)
}

func TestAgainstManyInvalid(t *testing.T) {
	a := newAligner(t, alignment.Similarity)
	query := seqs(t, "CQP")[0]

	_, err := AgainstMany(context.Background(), query, nil, a, Options{})
	assert.Error(t, err)

	_, err = AgainstMany(context.Background(), nil, seqs(t, "CQP"), a, Options{})
	assert.Error(t, err)
}

func TestFailedPairs(t *testing.T) {
	all := seqs(t, "CQP", "CQJ", "CSTP")
	report, err := AgainstMany(context.Background(), all[0], all[1:], newAligner(t, alignment.Similarity), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Pairs[0].OK())
	var symErr *submat.UnknownSymbolError
	assert.True(t, errors.As(report.Pairs[0].Err, &symErr))
	assert.Contains(t, report.Pairs[0].Error, "unknown symbol 'J'")
	assert.Equal(t, 1, report.Scores.Aligned)

	best, ok := report.Best()
	require.True(t, ok)
	assert.Equal(t, 1, best.Y)
}

func TestProgress(t *testing.T) {
	var mu sync.Mutex
	var calls []int
	total := 0

	opts := Options{Progress: func(done, n int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		total = n
	}}

	_, err := AllPairs(context.Background(), seqs(t, "CQP", "CSQATP", "CSTP", "MKTAYIAKQR", "HEAGAWGHEE"),
		newAligner(t, alignment.Distance), opts)
	require.NoError(t, err)

	assert.Equal(t, 10, total)
	assert.Len(t, calls, 10)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, calls)
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AllPairs(ctx, seqs(t, "CQP", "CSQATP", "CSTP"), newAligner(t, alignment.Similarity), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBest(t *testing.T) {
	result := func(score float64) *alignment.Result {
		return &alignment.Result{AlignedX: "A", AlignedY: "A", Score: score}
	}
	pairs := []PairResult{
		{Y: 0, Result: result(5)},
		{Y: 1, Result: result(9)},
		{Y: 2, Result: result(9)},
		{Y: 3, Result: result(1)},
		{Y: 4, Err: errors.New("boom")},
		{Y: 5, Result: &alignment.Result{AlignedY: "A", Unaligned: true}},
	}

	best, ok := Best(pairs, alignment.Similarity)
	require.True(t, ok)
	assert.Equal(t, 1, best.Y)

	best, ok = Best(pairs, alignment.Distance)
	require.True(t, ok)
	assert.Equal(t, 3, best.Y)

	_, ok = Best(pairs[4:], alignment.Similarity)
	assert.False(t, ok)
}

func TestReportJSON(t *testing.T) {
	report, err := AllPairs(context.Background(), seqs(t, "CQP", "CSQATP"), newAligner(t, alignment.Distance), Options{})
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "distance", decoded["mode"])
	assert.Equal(t, "all-pairs", decoded["kind"])
	assert.Equal(t, report.RunID, decoded["run_id"])

	pairs := decoded["pairs"].([]interface{})
	require.Len(t, pairs, 1)
	result := pairs[0].(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, "CQ---P", result["aligned_x"])
	assert.Equal(t, 18.5, result["score"])
}

func BenchmarkAllPairs(b *testing.B) {
	residues := []string{"HEAGAWGHEE", "PAWHEAE", "MKTAYIAKQR", "CSQATP", "CQP", "CSTP"}
	all := seqs(b, residues...)
	a := newAligner(b, alignment.Similarity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AllPairs(context.Background(), all, a, Options{})
	}
}
