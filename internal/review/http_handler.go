package review

import (
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createReviewReq struct {
	ReviewerName string `json:"reviewer_name" validate:"required,max=100"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment" validate:"max=4000"`
}

// Create handles POST /books/{id}/reviews
// @Summary Review a book
// @Description Anyone may review; rating is 1-5 stars
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body createReviewReq true "Review"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 429 {object} httpx.ErrorResponse
// @Router /books/{id}/reviews [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReviewReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	rv, err := h.service.Create(r.Context(), httpx.PathParam(r, "id"), CreateInput{
		ReviewerName: req.ReviewerName,
		Rating:       req.Rating,
		Comment:      req.Comment,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONCreated(w, r, rv)
}

// List handles GET /books/{id}/reviews
// @Summary List reviews of a book
// @Tags reviews
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books/{id}/reviews [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListByBook(r.Context(), httpx.PathParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, reviews, map[string]any{
		"average_rating": Average(reviews),
		"reviews_count":  len(reviews),
	})
}
