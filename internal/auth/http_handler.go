package auth

import (
	"errors"
	"net/http"
	"time"

	"bookshelf/internal/access"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logging"
)

type HTTPHandler struct {
	service      *Service
	secureCookie bool
}

// NewHTTPHandler sets the Secure attribute on the session cookie when
// secureCookie is true.
func NewHTTPHandler(service *Service, secureCookie bool) *HTTPHandler {
	return &HTTPHandler{service: service, secureCookie: secureCookie}
}

type LoginReq struct {
	Password string `json:"password" validate:"required"`
}

func (h *HTTPHandler) setCookie(w http.ResponseWriter, value string, expires time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.AdminCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Login handles POST /admin/login
// @Summary Admin login
// @Description Check the admin password and set the admin_session cookie
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LoginReq true "Login request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 429 {object} httpx.ErrorResponse
// @Router /admin/login [post]
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	token, expiresAt, err := h.service.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Warn().Str("remote_addr", r.RemoteAddr).Msg("admin login rejected")
			httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid password", nil)
			return
		}
		httpx.WriteError(w, r, err)
		return
	}

	h.setCookie(w, token, expiresAt, int(h.service.TTL().Seconds()))
	httpx.JSONSuccess(w, r, map[string]any{
		"authenticated": true,
		"expires_at":    expiresAt.UTC(),
	}, nil)
}

// Logout handles POST /admin/logout
// @Summary Admin logout
// @Description Revoke the current session and clear the cookie
// @Tags admin
// @Produce json
// @Success 204 "No Content"
// @Failure 500 {object} httpx.ErrorResponse
// @Router /admin/logout [post]
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(httpx.AdminCookieName); err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}

	h.setCookie(w, "", time.Unix(0, 0), -1)
	httpx.JSONSuccessNoContent(w)
}

// Session handles GET /admin/session
// @Summary Admin session status
// @Tags admin
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /admin/session [get]
func (h *HTTPHandler) Session(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, map[string]bool{
		"authenticated": access.FromContext(r.Context()).IsAdmin(),
	}, nil)
}
