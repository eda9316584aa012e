package book

import (
	"net/http"
	"strconv"

	"bookshelf/internal/access"
	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type upsertRequest struct {
	Title             string   `json:"title" validate:"required,max=500"`
	AuthorName        string   `json:"author_name" validate:"required,max=200"`
	Description       string   `json:"description"`
	PublishedDate     string   `json:"published_date" validate:"max=50"`
	PageCount         *int     `json:"page_count" validate:"omitempty,gte=0"`
	Thumbnail         string   `json:"thumbnail" validate:"max=2000"`
	ISBN10            string   `json:"isbn10" validate:"max=20"`
	ISBN13            string   `json:"isbn13" validate:"max=20"`
	Categories        []string `json:"categories"`
	UseMetadataLookup bool     `json:"use_metadata_lookup"`
}

func (req upsertRequest) fields() Fields {
	return Fields{
		Title:         req.Title,
		AuthorName:    req.AuthorName,
		Description:   req.Description,
		PublishedDate: req.PublishedDate,
		PageCount:     req.PageCount,
		Thumbnail:     req.Thumbnail,
		ISBN10:        req.ISBN10,
		ISBN13:        req.ISBN13,
		Categories:    req.Categories,
	}
}

func decodeUpsert(w http.ResponseWriter, r *http.Request) (upsertRequest, bool) {
	var req upsertRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return req, false
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return req, false
	}
	return req, true
}

// List handles GET /books
// @Summary List books
// @Description Newest first, keyset paginated
// @Tags books
// @Produce json
// @Param cursor query string false "Cursor from a previous page"
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	page, err := h.service.List(r.Context(), query.Get("cursor"), pageSize)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, page.Items, map[string]any{
		"next_cursor": page.NextCursor,
		"count":       len(page.Items),
	})
}

// Create handles POST /admin/books
// @Summary Create a book
// @Description Optionally enriched from the metadata provider
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /admin/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUpsert(w, r)
	if !ok {
		return
	}

	b, err := h.service.Create(r.Context(), access.FromContext(r.Context()), req.fields(), req.UseMetadataLookup)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, b)
}

// Update handles PUT /admin/books/{id}
// @Summary Replace a book
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /admin/books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUpsert(w, r)
	if !ok {
		return
	}

	b, err := h.service.Update(r.Context(), access.FromContext(r.Context()), httpx.PathParam(r, "id"), req.fields())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /admin/books/{id}
// @Summary Delete a book with its reviews and notes
// @Tags admin
// @Param id path string true "Book ID"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /admin/books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), access.FromContext(r.Context()), httpx.PathParam(r, "id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
