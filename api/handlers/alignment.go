// Package handlers implements the HTTP endpoints of the alignment server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aria-lang/gotoh-go/pkg/gotoh"
	"github.com/go-chi/chi/v5"
)

const (
	// maxBodyBytes bounds every request body.
	maxBodyBytes = 1 << 20
	// MaxBatchSequences bounds the number of sequences in one batch request.
	MaxBatchSequences = 200
	// DefaultMaxCells bounds the DP cells of one request, counted as
	// (len(x)+1)*(len(y)+1) per pair and summed over a batch. Each cell
	// costs three grid entries.
	DefaultMaxCells = 25_000_000
)

// API serves alignment requests. Requests that name neither a matrix nor gap
// costs use the default model.
type API struct {
	model    *gotoh.Model
	maxCells uint64
}

// New creates the handlers around a default model.
func New(model *gotoh.Model) *API {
	return &API{model: model, maxCells: DefaultMaxCells}
}

// WithMaxCells sets the per-request DP cell limit. Zero disables it.
func (a *API) WithMaxCells(n uint64) *API {
	a.maxCells = n
	return a
}

// cells returns the DP cells of aligning residue strings of length m and n.
func cells(m, n int) uint64 {
	return uint64(m+1) * uint64(n+1)
}

// tooLarge reports whether a request of the given cell count exceeds the
// limit, writing a 413 if so.
func (a *API) tooLarge(w http.ResponseWriter, total uint64) bool {
	if a.maxCells == 0 || total <= a.maxCells {
		return false
	}
	writeError(w, fmt.Sprintf("alignment needs %d DP cells, limit is %d", total, a.maxCells),
		http.StatusRequestEntityTooLarge)
	return true
}

// Routes mounts the alignment and matrix endpoints on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/alignment", func(r chi.Router) {
		r.Post("/similarity", a.SimilarityHandler)
		r.Post("/distance", a.DistanceHandler)
		r.Post("/score", a.ScoreHandler)
		r.Post("/batch", a.BatchHandler)
	})
	r.Route("/matrix", func(r chi.Router) {
		r.Get("/", a.MatrixHandler)
		r.Get("/{a}/{b}", a.PairScoreHandler)
	})
}

// ModelRequest selects the substitution model of a request.
type ModelRequest struct {
	Matrix    string `json:"matrix,omitempty"`
	GapInit   *int   `json:"gap_init,omitempty"`
	GapExtend *int   `json:"gap_extend,omitempty"`
}

// resolve returns the default model unless the request overrides it. Gap
// overrides without a matrix, or naming the default's matrix, keep the
// default's scores so they work for matrices loaded from a file.
func (a *API) resolve(req ModelRequest) (*gotoh.Model, error) {
	if req.Matrix == "" && req.GapInit == nil && req.GapExtend == nil {
		return a.model, nil
	}

	gi, ge := a.model.GapCosts()
	if req.GapInit != nil {
		gi = *req.GapInit
	}
	if req.GapExtend != nil {
		ge = *req.GapExtend
	}
	if req.Matrix == "" || strings.EqualFold(req.Matrix, a.model.Name()) {
		return a.model.WithGapCosts(gi, ge), nil
	}
	return gotoh.BuiltinMatrix(req.Matrix, gi, ge)
}

// AlignmentRequest represents an alignment request.
type AlignmentRequest struct {
	ModelRequest
	Sequence1 string `json:"sequence1"`
	Sequence2 string `json:"sequence2"`
	Mode      string `json:"mode,omitempty"`
}

// AlignmentResponse represents the response for alignment.
type AlignmentResponse struct {
	AlignedSeq1 string  `json:"aligned_seq1"`
	AlignedSeq2 string  `json:"aligned_seq2"`
	Score       float64 `json:"score"`
	Mode        string  `json:"mode"`
	Matrix      string  `json:"matrix"`
	Identity    float64 `json:"identity"`
	CIGAR       string  `json:"cigar"`
	Matches     int     `json:"matches"`
	Mismatches  int     `json:"mismatches"`
	Gaps        int     `json:"gaps"`
	Unaligned   bool    `json:"unaligned,omitempty"`
}

// SimilarityHandler aligns two sequences maximising similarity.
func (a *API) SimilarityHandler(w http.ResponseWriter, r *http.Request) {
	a.align(w, r, gotoh.Similarity)
}

// DistanceHandler aligns two sequences minimising distance.
func (a *API) DistanceHandler(w http.ResponseWriter, r *http.Request) {
	a.align(w, r, gotoh.Distance)
}

func (a *API) align(w http.ResponseWriter, r *http.Request, mode gotoh.Mode) {
	var req AlignmentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	aligner, ok := a.aligner(w, req.ModelRequest, mode)
	if !ok {
		return
	}
	x, y, ok := a.pair(w, req, aligner.Model())
	if !ok {
		return
	}

	result, err := aligner.Align(x, y)
	if err != nil {
		writeError(w, err.Error(), status(err))
		return
	}

	writeJSON(w, AlignmentResponse{
		AlignedSeq1: result.AlignedX,
		AlignedSeq2: result.AlignedY,
		Score:       result.Score,
		Mode:        result.Mode.String(),
		Matrix:      aligner.Model().Name(),
		Identity:    result.Identity,
		CIGAR:       result.ToCIGAR(),
		Matches:     result.MatchCount(),
		Mismatches:  result.MismatchCount(),
		Gaps:        result.TotalGaps(),
		Unaligned:   result.Unaligned,
	})
}

// ScoreResponse represents the response for alignment score.
type ScoreResponse struct {
	Score float64 `json:"score"`
	Mode  string  `json:"mode"`
}

// ScoreHandler returns the optimal score without the alignment. The mode
// defaults to similarity.
func (a *API) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	var req AlignmentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	mode := gotoh.Similarity
	if req.Mode != "" {
		var err error
		if mode, err = gotoh.ParseMode(req.Mode); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	aligner, ok := a.aligner(w, req.ModelRequest, mode)
	if !ok {
		return
	}
	x, y, ok := a.pair(w, req, aligner.Model())
	if !ok {
		return
	}

	score, err := aligner.ScoreOnly(x, y)
	if err != nil {
		writeError(w, err.Error(), status(err))
		return
	}

	writeJSON(w, ScoreResponse{Score: score, Mode: mode.String()})
}

// BatchSequence is one named input of a batch request.
type BatchSequence struct {
	ID       string `json:"id,omitempty"`
	Residues string `json:"residues"`
}

// BatchRequest aligns Query against each of Sequences when Query is set and
// every pair of Sequences otherwise.
type BatchRequest struct {
	ModelRequest
	Mode      string          `json:"mode,omitempty"`
	Query     *BatchSequence  `json:"query,omitempty"`
	Sequences []BatchSequence `json:"sequences"`
}

// BatchHandler runs an all-pairs or one-against-many batch and returns the
// report.
func (a *API) BatchHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	switch {
	case len(req.Sequences) > MaxBatchSequences:
		writeError(w, "too many sequences", http.StatusRequestEntityTooLarge)
		return
	case req.Query == nil && len(req.Sequences) < 2:
		writeError(w, "at least two sequences are required", http.StatusBadRequest)
		return
	case len(req.Sequences) == 0:
		writeError(w, "at least one target sequence is required", http.StatusBadRequest)
		return
	}

	mode := gotoh.Similarity
	if req.Mode != "" {
		var err error
		if mode, err = gotoh.ParseMode(req.Mode); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	aligner, ok := a.aligner(w, req.ModelRequest, mode)
	if !ok {
		return
	}

	model := aligner.Model()
	seqs := make([]*gotoh.Sequence, len(req.Sequences))
	for i, in := range req.Sequences {
		seq, err := toSequence(in, model)
		if err != nil {
			writeError(w, fmt.Sprintf("sequences[%d]: %v", i, err), http.StatusBadRequest)
			return
		}
		seqs[i] = seq
	}

	var query *gotoh.Sequence
	if req.Query != nil {
		var err error
		if query, err = toSequence(*req.Query, model); err != nil {
			writeError(w, "query: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if a.tooLarge(w, batchCells(query, seqs)) {
		return
	}

	var report *gotoh.Report
	var err error
	if query != nil {
		report, err = gotoh.AgainstMany(r.Context(), query, seqs, aligner, gotoh.BatchOptions{})
	} else {
		report, err = gotoh.AllPairs(r.Context(), seqs, aligner, gotoh.BatchOptions{})
	}
	if err != nil {
		writeError(w, err.Error(), status(err))
		return
	}

	writeJSON(w, report)
}

// batchCells sums the DP cells of every pair a batch will align.
func batchCells(query *gotoh.Sequence, seqs []*gotoh.Sequence) uint64 {
	var total uint64
	if query != nil {
		for _, s := range seqs {
			total += cells(query.Len(), s.Len())
		}
		return total
	}
	for i := range seqs {
		for j := i + 1; j < len(seqs); j++ {
			total += cells(seqs[i].Len(), seqs[j].Len())
		}
	}
	return total
}

func toSequence(in BatchSequence, model *gotoh.Model) (*gotoh.Sequence, error) {
	var seq *gotoh.Sequence
	var err error
	if in.ID != "" {
		seq, err = gotoh.NewSequenceWithID(in.Residues, in.ID)
	} else {
		seq, err = gotoh.NewSequence(in.Residues)
	}
	if err != nil {
		return nil, err
	}
	if err := gotoh.ValidateSequence(seq, model); err != nil {
		return nil, err
	}
	return seq, nil
}

// pair normalizes and validates the two sequences of req and checks the
// cell limit.
func (a *API) pair(w http.ResponseWriter, req AlignmentRequest, model *gotoh.Model) (string, string, bool) {
	x, y := normalize(req.Sequence1), normalize(req.Sequence2)
	for _, s := range []struct{ field, residues string }{{"sequence1", x}, {"sequence2", y}} {
		if s.residues == "" {
			continue
		}
		if err := gotoh.ValidateSequence(&gotoh.Sequence{Residues: s.residues}, model); err != nil {
			writeError(w, s.field+": "+err.Error(), http.StatusBadRequest)
			return "", "", false
		}
	}
	if a.tooLarge(w, cells(len(x), len(y))) {
		return "", "", false
	}
	return x, y, true
}

func (a *API) aligner(w http.ResponseWriter, req ModelRequest, mode gotoh.Mode) (*gotoh.Aligner, bool) {
	model, err := a.resolve(req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	aligner, err := gotoh.NewAligner(mode, model)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return aligner, true
}

// normalize upper-cases residues the way the sequence readers do. Empty
// input stays empty so the aligner can short-circuit it.
func normalize(residues string) string {
	seq, err := gotoh.NewSequence(residues)
	if err != nil {
		return ""
	}
	return seq.Residues
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// status maps domain errors to client errors and cancellation to 503.
func status(err error) int {
	var (
		matrixErr    gotoh.MatrixError
		alignmentErr gotoh.AlignmentError
		sequenceErr  gotoh.SequenceError
	)
	switch {
	case errors.As(err, &matrixErr), errors.As(err, &alignmentErr), errors.As(err, &sequenceErr):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, code int) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	http.Error(w, string(body), code)
}
