package metadata

import (
	"net/http"
	"strings"

	"bookshelf/internal/access"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logging"
)

type HTTPHandler struct {
	provider *Provider
}

func NewHTTPHandler(provider *Provider) *HTTPHandler {
	return &HTTPHandler{provider: provider}
}

// Search handles GET /admin/metadata/search
// @Summary Preview metadata candidates
// @Tags admin
// @Produce json
// @Param q query string true "Free-text query"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /admin/metadata/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "q", Message: "q is required"},
		})
		return
	}

	candidates, err := h.provider.Search(r.Context(), q)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, candidates, map[string]any{"count": len(candidates)})
}

// Revalidate handles POST /admin/revalidate
// @Summary Drop cached metadata
// @Tags admin
// @Success 204 "No Content"
// @Failure 401 {object} httpx.ErrorResponse
// @Router /admin/revalidate [post]
func (h *HTTPHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	if err := access.FromContext(r.Context()).RequireAdmin(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.provider.ClearCache(r.Context()); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Msg("metadata cache cleared")
	httpx.JSONSuccessNoContent(w)
}
