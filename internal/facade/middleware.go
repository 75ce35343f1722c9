package facade

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// LoggingMiddleware logs method, path, status, and latency for every
// request, adapted from the teacher's origin-tagging middleware
// (which distinguished self-served from upstream-proxied responses;
// this gateway has no upstream proxy origin to distinguish).
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Printf("[facade] %s %s | %d | %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
