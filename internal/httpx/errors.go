package httpx

import (
	"errors"
	"net/http"

	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/logging"
)

// WriteError maps err onto the error envelope. Unknown errors are logged and
// reported as INTERNAL_ERROR without leaking their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", ve.Error(), []ErrorDetail{{Field: ve.Field, Message: ve.Message}})
	case errors.Is(err, apperr.ErrValidation):
		JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	case errors.Is(err, apperr.ErrNotFound):
		JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, apperr.ErrProviderUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("metadata provider unavailable")
		JSONError(w, r, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "Metadata provider unavailable", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
