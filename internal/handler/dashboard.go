package handler

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/vinnodrive/vinnodrive/internal/ctxkeys"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/service"
)

type DashboardHandler struct {
	usageService *service.UsageService
}

func NewDashboardHandler(usageService *service.UsageService) *DashboardHandler {
	return &DashboardHandler{
		usageService: usageService,
	}
}

type usageResponse struct {
	*model.Usage
	Remaining int64             `json:"remaining"`
	Human     map[string]string `json:"human"`
}

// Usage reports the caller's storage ledger, with human readable sizes for display.
func (h *DashboardHandler) Usage(w http.ResponseWriter, r *http.Request) {
	session := ctxkeys.SessionFrom(r.Context())

	usage, err := h.usageService.Usage(r.Context(), session.UserID)
	if err != nil {
		slog.Error("failed to get usage", "error", err, "user_id", session.UserID)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Failed to load usage")
		return
	}

	writeJSON(w, http.StatusOK, usageResponse{
		Usage:     usage,
		Remaining: usage.Remaining(),
		Human: map[string]string{
			"actual_storage":    humanize.IBytes(uint64(usage.ActualStorage)),
			"original_uploaded": humanize.IBytes(uint64(usage.OriginalUploaded)),
			"space_saved":       humanize.IBytes(uint64(usage.SpaceSaved)),
			"quota_limit":       humanize.IBytes(uint64(usage.QuotaLimit)),
		},
	})
}
