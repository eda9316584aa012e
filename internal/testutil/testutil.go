// Package testutil holds helpers shared by handler and integration tests.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	"bookshelf/internal/access"

	"github.com/goccy/go-json"
)

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	bodyBytes, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewAdminRequest is NewRequest carrying the admin capability, as the
// session middleware would attach it.
func NewAdminRequest(method, path string, body any) *http.Request {
	r := NewRequest(method, path, body)
	return r.WithContext(access.WithCapability(r.Context(), access.Admin("test-session")))
}

type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse decodes the recorded envelope.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// ErrorCode returns error.code from an error envelope, or "".
func (rr RecordResponse) ErrorCode() string {
	e, ok := rr.Body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}
