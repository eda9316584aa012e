package catalog

import (
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// BookDetail handles GET /books/{id}
// @Summary Get a book with its reviews and notes
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) BookDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.BookDetail(r.Context(), httpx.PathParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, detail, nil)
}
