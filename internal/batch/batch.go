// Package batch aligns many sequence pairs in parallel with one configured
// aligner and summarises the run.
package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aria-lang/gotoh-go/internal/alignment"
	"github.com/aria-lang/gotoh-go/internal/sequence"
	"github.com/aria-lang/gotoh-go/internal/stats"
	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"
)

// Kind tells how the pairs of a run were formed.
type Kind string

const (
	// AllPairsKind aligns every unordered pair of one set.
	AllPairsKind Kind = "all-pairs"
	// AgainstManyKind aligns one query against each target.
	AgainstManyKind Kind = "against-many"
)

// Options tunes a batch run.
type Options struct {
	// Batches is the number of ranges the pairs are split into. Zero lets
	// pargo choose from GOMAXPROCS; negative values are rejected.
	Batches int
	// Progress, if set, is called once per finished pair with the number of
	// pairs done so far. It may be called from several goroutines at once.
	Progress func(done, total int)
}

// PairResult is the outcome of aligning one pair.
//
// For AllPairs, X and Y index the input set. For AgainstMany, X is always 0
// (the query) and Y indexes the targets.
type PairResult struct {
	X      int               `json:"x"`
	Y      int               `json:"y"`
	XName  string            `json:"x_name"`
	YName  string            `json:"y_name"`
	Result *alignment.Result `json:"result,omitempty"`
	Err    error             `json:"-"`
	Error  string            `json:"error,omitempty"`
}

// OK reports whether the pair aligned without error.
func (p *PairResult) OK() bool {
	return p.Err == nil && p.Result != nil
}

// Report collects the results of a batch run.
//
// Aria equivalent:
//
//	struct Report
//	  run_id: String
//	  pairs: [PairResult]
//	  invariant self.failed <= self.pairs.len()
type Report struct {
	RunID     string                   `json:"run_id"`
	Kind      Kind                     `json:"kind"`
	Mode      alignment.Mode           `json:"mode"`
	Model     string                   `json:"model"`
	GapInit   int                      `json:"gap_init"`
	GapExtend int                      `json:"gap_extend"`
	Started   time.Time                `json:"started"`
	Elapsed   time.Duration            `json:"elapsed_ns"`
	Names     []string                 `json:"names"`
	Lengths   []int                    `json:"lengths"`
	Sequences *stats.SequenceSetStats  `json:"sequences"`
	Scores    *stats.AlignmentSetStats `json:"scores,omitempty"`
	Pairs     []PairResult             `json:"pairs"`
	Failed    int                      `json:"failed"`
}

type job struct {
	x, y       int
	seqX, seqY *sequence.Sequence
}

// AllPairs aligns every unordered pair i < j of seqs, with seqs[i] as X.
//
// Aria equivalent:
//
//	fn all_pairs(seqs: [Sequence], aligner: Aligner) -> Result<Report, Error>
//	  requires seqs.len() >= 2
//	  ensures result.is_ok() implies result.unwrap().pairs.len() == seqs.len() * (seqs.len() - 1) / 2
func AllPairs(ctx context.Context, seqs []*sequence.Sequence, aligner *alignment.Aligner, opts Options) (*Report, error) {
	if len(seqs) < 2 {
		return nil, fmt.Errorf("all-pairs alignment needs at least two sequences, got %d", len(seqs))
	}

	jobs := make([]job, 0, len(seqs)*(len(seqs)-1)/2)
	for i := 0; i < len(seqs); i++ {
		for j := i + 1; j < len(seqs); j++ {
			jobs = append(jobs, job{x: i, y: j, seqX: seqs[i], seqY: seqs[j]})
		}
	}

	return run(ctx, AllPairsKind, seqs, jobs, aligner, opts)
}

// AgainstMany aligns query, as X, against each target.
//
// Aria equivalent:
//
//	fn against_many(query: Sequence, targets: [Sequence], aligner: Aligner) -> Result<Report, Error>
//	  requires targets.len() > 0
//	  ensures result.is_ok() implies result.unwrap().pairs.len() == targets.len()
func AgainstMany(ctx context.Context, query *sequence.Sequence, targets []*sequence.Sequence,
	aligner *alignment.Aligner, opts Options) (*Report, error) {
	if query == nil {
		return nil, fmt.Errorf("query cannot be nil")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("target list cannot be empty")
	}

	jobs := make([]job, len(targets))
	for i, target := range targets {
		jobs[i] = job{x: 0, y: i, seqX: query, seqY: target}
	}

	all := append([]*sequence.Sequence{query}, targets...)
	return run(ctx, AgainstManyKind, all, jobs, aligner, opts)
}

func run(ctx context.Context, kind Kind, seqs []*sequence.Sequence, jobs []job,
	aligner *alignment.Aligner, opts Options) (*Report, error) {
	if opts.Batches < 0 {
		return nil, fmt.Errorf("number of batches must not be negative, got %d", opts.Batches)
	}

	started := time.Now()
	pairs := make([]PairResult, len(jobs))
	var done int64

	parallel.Range(0, len(jobs), opts.Batches, func(low, high int) {
		for k := low; k < high; k++ {
			if ctx.Err() != nil {
				return
			}

			j := jobs[k]
			p := PairResult{X: j.x, Y: j.y, XName: j.seqX.Name(), YName: j.seqY.Name()}
			p.Result, p.Err = aligner.Align(j.seqX.Residues, j.seqY.Residues)
			if p.Err != nil {
				p.Error = p.Err.Error()
			}
			pairs[k] = p

			n := atomic.AddInt64(&done, 1)
			if opts.Progress != nil {
				opts.Progress(int(n), len(jobs))
			}
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch cancelled after %d of %d pairs: %w", atomic.LoadInt64(&done), len(jobs), err)
	}

	gi, ge := aligner.Model().GapCosts()
	report := &Report{
		RunID:     uuid.New().String(),
		Kind:      kind,
		Mode:      aligner.Mode(),
		Model:     aligner.Model().Name(),
		GapInit:   gi,
		GapExtend: ge,
		Started:   started,
		Elapsed:   time.Since(started),
		Names:     make([]string, len(seqs)),
		Lengths:   make([]int, len(seqs)),
		Pairs:     pairs,
	}
	for i, s := range seqs {
		report.Names[i] = s.Name()
		report.Lengths[i] = s.Len()
	}

	seqStats, err := stats.FromSequences(seqs)
	if err != nil {
		return nil, err
	}
	report.Sequences = seqStats

	results := make([]*alignment.Result, 0, len(pairs))
	for i := range pairs {
		if !pairs[i].OK() {
			report.Failed++
			continue
		}
		results = append(results, pairs[i].Result)
	}
	if len(results) > 0 {
		scoreStats, err := stats.FromResults(results)
		if err != nil {
			return nil, err
		}
		report.Scores = scoreStats
	}

	return report, nil
}

// Best returns the optimal pair under mode: the highest score for
// Similarity, the lowest for Distance. Failed and unaligned pairs are
// skipped and the earliest pair wins a tie. The boolean is false when no
// pair qualifies.
func Best(pairs []PairResult, mode alignment.Mode) (*PairResult, bool) {
	var best *PairResult
	for i := range pairs {
		p := &pairs[i]
		if !p.OK() || p.Result.Unaligned {
			continue
		}
		if best == nil || better(mode, p.Result.Score, best.Result.Score) {
			best = p
		}
	}
	return best, best != nil
}

func better(mode alignment.Mode, x, y float64) bool {
	if mode == alignment.Distance {
		return x < y
	}
	return x > y
}

// Best returns the optimal pair of the report under its own mode.
func (r *Report) Best() (*PairResult, bool) {
	return Best(r.Pairs, r.Mode)
}

// ScoreTable returns the symmetric score table of an all-pairs run. The
// diagonal and failed pairs are left at zero.
func (r *Report) ScoreTable() ([][]float64, error) {
	if r.Kind != AllPairsKind {
		return nil, fmt.Errorf("score table needs an %s run, got %s", AllPairsKind, r.Kind)
	}

	n := len(r.Names)
	table := make([][]float64, n)
	for i := range table {
		table[i] = make([]float64, n)
	}
	for _, p := range r.Pairs {
		if !p.OK() {
			continue
		}
		table[p.X][p.Y] = p.Result.Score
		table[p.Y][p.X] = p.Result.Score
	}
	return table, nil
}
