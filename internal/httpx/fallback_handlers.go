package httpx

import "net/http"

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

// TooManyRequests is the limit handler for rate-limited routes.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
}
