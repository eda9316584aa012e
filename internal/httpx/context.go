package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/platform/logging"
)

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}

// PathParam reads a route parameter set by either net/http or chi.
func PathParam(r *http.Request, name string) string {
	if v := r.PathValue(name); v != "" {
		return v
	}
	return chi.URLParam(r, name)
}
