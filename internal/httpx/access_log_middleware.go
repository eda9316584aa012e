package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/metrics"
)

// AccessLogMiddleware logs one line per request and feeds the request
// duration histogram. It must wrap RecoveryMiddleware so panics are logged
// with their 500 status.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(began)
		metrics.ObserveHTTPRequest(r.Method, status, elapsed)

		event := logging.Ctx(r.Context()).Info()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			event = event.Str("route", rc.RoutePattern())
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", elapsed).
			Msg("request served")
	})
}
