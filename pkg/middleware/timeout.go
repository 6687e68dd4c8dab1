package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Timeout bounds every request with a deadline carried in the request
// context. Search and stats requests answer from the in-memory snapshot in
// microseconds; the deadline exists for the HTML pages and crawl form, whose
// handlers block on template rendering and form parsing. Crawls themselves
// run in the background and are not subject to it. If the handler has not
// started writing when the deadline passes, the client gets a 504.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w}
			go func() {
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				if !tw.written {
					slog.Warn("search request timed out", "method", r.Method, "path", r.URL.Path, "timeout", timeout)
					http.Error(w, `{"error":"the search server took too long to respond"}`, http.StatusGatewayTimeout)
				}
			}
		})
	}
}

// timeoutWriter records whether the inner handler started writing, so the
// 504 body is only ever sent on a response nothing has touched.
type timeoutWriter struct {
	http.ResponseWriter
	written bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.written = true
	return tw.ResponseWriter.Write(b)
}
