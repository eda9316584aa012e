package seed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bookshelf/internal/access"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/logging"
)

type HTTPHandler struct {
	runner *Runner
	items  []Item
	// budget caps one HTTP-triggered run so the report is written before the
	// server's write timeout. Zero means no cap.
	budget time.Duration
}

func NewHTTPHandler(runner *Runner, items []Item, budget time.Duration) *HTTPHandler {
	return &HTTPHandler{runner: runner, items: items, budget: budget}
}

// Seed handles POST /admin/seed
// @Summary Seed the catalog
// @Description Adds the initial books from the metadata provider, skipping those already present.
// @Description Runs longer than the request budget stop early with 504; use the seed CLI for slow providers.
// @Tags admin
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Failure 504 {object} httpx.ErrorResponse
// @Router /admin/seed [post]
func (h *HTTPHandler) Seed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.budget)
		defer cancel()
	}

	report, err := h.runner.Run(ctx, access.FromContext(ctx), h.items)
	if errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil {
		logging.Ctx(ctx).Warn().
			Dur("budget", h.budget).
			Int("created", report.Summary.Created).
			Int("skipped", report.Summary.Skipped).
			Int("failed", report.Summary.Failed).
			Msg("seed run stopped at request budget")
		httpx.JSONError(w, r, http.StatusGatewayTimeout, "SEED_TIMEOUT",
			"Seed run exceeded the request time budget; run cmd/seed for long runs", nil)
		return
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, report, nil)
}
