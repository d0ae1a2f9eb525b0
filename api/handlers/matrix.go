package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aria-lang/gotoh-go/pkg/gotoh"
	"github.com/go-chi/chi/v5"
)

// MatrixResponse describes a substitution model.
type MatrixResponse struct {
	Name      string   `json:"name"`
	Alphabet  string   `json:"alphabet"`
	GapInit   int      `json:"gap_init"`
	GapExtend int      `json:"gap_extend"`
	Scores    [][]int  `json:"scores"`
	Builtins  []string `json:"builtins"`
}

// MatrixHandler returns the default model, or the one named by the matrix,
// gap_init and gap_extend query parameters.
func (a *API) MatrixHandler(w http.ResponseWriter, r *http.Request) {
	req, err := modelQuery(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	model, err := a.resolve(req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	gi, ge := model.GapCosts()
	writeJSON(w, MatrixResponse{
		Name:      model.Name(),
		Alphabet:  model.Alphabet(),
		GapInit:   gi,
		GapExtend: ge,
		Scores:    model.SimilarityTable(),
		Builtins:  gotoh.BuiltinMatrices(),
	})
}

// PairScoreResponse holds both scores of one residue pair.
type PairScoreResponse struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Matrix     string  `json:"matrix"`
	Similarity int     `json:"similarity"`
	Distance   float64 `json:"distance"`
}

// PairScoreHandler returns the similarity and distance of residues {a} and {b}.
func (a *API) PairScoreHandler(w http.ResponseWriter, r *http.Request) {
	x, y := chi.URLParam(r, "a"), chi.URLParam(r, "b")
	if len(x) != 1 || len(y) != 1 {
		writeError(w, "residues must be single symbols", http.StatusBadRequest)
		return
	}

	req, err := modelQuery(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	model, err := a.resolve(req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sim, err := model.Similarity(x[0], y[0])
	if err != nil {
		writeError(w, err.Error(), status(err))
		return
	}
	dist, err := model.Distance(x[0], y[0])
	if err != nil {
		writeError(w, err.Error(), status(err))
		return
	}

	writeJSON(w, PairScoreResponse{A: x, B: y, Matrix: model.Name(), Similarity: sim, Distance: dist})
}

// modelQuery reads a ModelRequest from the URL query.
func modelQuery(r *http.Request) (ModelRequest, error) {
	q := r.URL.Query()
	req := ModelRequest{Matrix: q.Get("matrix")}

	for _, p := range []struct {
		key string
		dst **int
	}{
		{key: "gap_init", dst: &req.GapInit},
		{key: "gap_extend", dst: &req.GapExtend},
	} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return ModelRequest{}, fmt.Errorf("%s: %q is not an integer", p.key, raw)
		}
		*p.dst = &v
	}
	return req, nil
}
