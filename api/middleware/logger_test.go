package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	saved := Output
	Output = log.New(&buf, "", 0)
	defer func() { Output = saved }()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(Logger)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Post("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{method: http.MethodGet, path: "/health", want: "GET /health 200 2B "},
		{method: http.MethodPost, path: "/fail", want: "POST /fail 400 5B "},
		{method: http.MethodGet, path: "/missing", want: "GET /missing 404 "},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			line := buf.String()
			assert.Contains(t, line, tt.want)
			assert.NotContains(t, line, "[-]")
		})
	}
}

func TestLoggerWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	saved := Output
	Output = log.New(&buf, "", 0)
	defer func() { Output = saved }()

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/x", nil))

	assert.Contains(t, buf.String(), "DELETE /x 204 0B ")
	assert.Contains(t, buf.String(), "[-]")
}
