package handlers

import (
	"context"
	"net/http"

	"corpchat-backend/internal/logx"
	"corpchat-backend/internal/models"
)

type usageReader interface {
	Snapshot(ctx context.Context) (*models.UsageReport, error)
}

type UsageHandler struct {
	repo usageReader
}

// NewUsageHandler builds the usage endpoint. A nil repo means Redis is not
// configured and the endpoint reports 503.
func NewUsageHandler(repo usageReader) *UsageHandler {
	return &UsageHandler{repo: repo}
}

// Get handles GET /api/usage.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("UNAVAILABLE", "Usage tracking is not configured", r))
		return
	}

	report, err := h.repo.Snapshot(r.Context())
	if err != nil {
		logx.Log.Error().Err(err).Msg("usage snapshot")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read usage", r))
		return
	}

	writeJSON(w, http.StatusOK, report)
}
