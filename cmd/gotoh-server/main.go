// Command gotoh-server provides a REST API for affine-gap global alignment.
//
// Usage:
//
//	gotoh-server [options]
//
// Options:
//
//	-port        Port to listen on (default: 8080)
//	-host        Host to bind to (default: localhost)
//	-matrix      Default substitution matrix file
//	-builtin     Default built-in matrix when -matrix is unset (default: BLOSUM62)
//	-gap-init    Gap initiation cost of the built-in matrix (default: -11)
//	-gap-extend  Gap extension cost of the built-in matrix (default: -1)
//	-max-cells   DP cells allowed per request, 0 for no limit (default: 25000000)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aria-lang/gotoh-go/api/handlers"
	"github.com/aria-lang/gotoh-go/api/middleware"
	"github.com/aria-lang/gotoh-go/pkg/gotoh"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	host := flag.String("host", "localhost", "Host to bind to")
	matrixFile := flag.String("matrix", "", "Default substitution matrix file")
	builtin := flag.String("builtin", "BLOSUM62", "Default built-in matrix when -matrix is unset")
	gapInit := flag.Int("gap-init", -11, "Gap initiation cost of the built-in matrix")
	gapExtend := flag.Int("gap-extend", -1, "Gap extension cost of the built-in matrix")
	maxCells := flag.Uint64("max-cells", handlers.DefaultMaxCells, "DP cells allowed per request, 0 for no limit")
	flag.Parse()

	var model *gotoh.Model
	var err error
	if *matrixFile != "" {
		model, err = gotoh.LoadMatrix(*matrixFile)
	} else {
		model, err = gotoh.BuiltinMatrix(*builtin, *gapInit, *gapExtend)
	}
	if err != nil {
		log.Fatalf("Could not load matrix: %v\n", err)
	}
	log.Printf("Default model: %s\n", model)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api", handlers.New(model).WithMaxCells(*maxCells).Routes)

	// Home page
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>gotoh API</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; }
        h1 { color: #2563eb; }
        pre { background: #f3f4f6; padding: 1rem; border-radius: 0.5rem; overflow-x: auto; }
        .endpoint { margin: 1rem 0; padding: 1rem; border: 1px solid #e5e7eb; border-radius: 0.5rem; }
        .method { display: inline-block; padding: 0.25rem 0.5rem; background: #10b981; color: white; border-radius: 0.25rem; font-size: 0.875rem; }
    </style>
</head>
<body>
    <h1>gotoh API</h1>
    <p>A REST API for affine-gap global protein alignment.</p>

    <h2>Endpoints</h2>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/alignment/similarity</code>
        <p>Align two sequences maximising similarity.</p>
        <pre>{"sequence1": "CQP", "sequence2": "CSQATP"}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/alignment/distance</code>
        <p>Align two sequences minimising distance, optionally with another built-in matrix.</p>
        <pre>{"sequence1": "CQP", "sequence2": "CSQATP", "matrix": "BLOSUM80", "gap_init": -10}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/alignment/score</code>
        <p>Optimal score only.</p>
        <pre>{"sequence1": "CQP", "sequence2": "CSQATP", "mode": "distance"}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/alignment/batch</code>
        <p>All pairs, or one query against every sequence.</p>
        <pre>{"query": {"id": "q", "residues": "CQP"}, "sequences": [{"residues": "CSQATP"}, {"residues": "CSTP"}]}</pre>
    </div>

    <div class="endpoint">
        <span class="method">GET</span> <code>/api/matrix</code>, <code>/api/matrix/{a}/{b}</code>
        <p>The substitution matrix, or the scores of one residue pair.</p>
    </div>
</body>
</html>`))
	})

	addr := fmt.Sprintf("%s:%d", *host, *port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Could not gracefully shutdown: %v\n", err)
		}
		close(done)
	}()

	log.Printf("gotoh API server starting on http://%s\n", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", addr, err)
	}

	<-done
	log.Println("Server stopped")
}
