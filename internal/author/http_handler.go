package author

import (
	"net/http"

	"bookshelf/internal/access"
	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createAuthorReq struct {
	Name string `json:"name" validate:"required,max=200"`
}

// List handles GET /authors
// @Summary List authors
// @Tags authors
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /authors [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if authors == nil {
		authors = []Author{}
	}
	httpx.JSONSuccess(w, r, authors, map[string]any{"count": len(authors)})
}

// Create handles POST /admin/authors
// @Summary Register an author
// @Description Returns the existing author when the name is taken
// @Tags admin
// @Accept json
// @Produce json
// @Param request body createAuthorReq true "Author"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /admin/authors [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAuthorReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	a, err := h.service.Create(r.Context(), access.FromContext(r.Context()), req.Name)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, a)
}
