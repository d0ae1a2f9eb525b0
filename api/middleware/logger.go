// Package middleware holds HTTP middleware for the alignment server.
package middleware

import (
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Output is where Logger writes. It defaults to the standard logger.
var Output = log.Default()

// Logger logs one line per request with its method, path, status, response
// size, duration and request id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqID := chimiddleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = "-"
			}
			Output.Printf("%s %s %d %dB %s [%s]",
				r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start), reqID)
		}()

		next.ServeHTTP(ww, r)
	})
}
