package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/companion"
	"ridewise/internal/core"
	"ridewise/internal/types"
)

// SnapshotService builds the joined dashboard view.
type SnapshotService interface {
	Snapshot(ctx context.Context, lat, lon float64, categories []types.PlaceCategory) (*companion.Snapshot, error)
}

// CompanionHandler serves GET /v1/companion.
type CompanionHandler struct {
	service SnapshotService
	logger  *slog.Logger
}

// NewCompanionHandler creates a CompanionHandler.
func NewCompanionHandler(svc SnapshotService, logger *slog.Logger) *CompanionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanionHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the companion endpoint.
func (h *CompanionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/companion", h.HandleSnapshot)
}

// HandleSnapshot handles GET /v1/companion?lat=&lon=[&categories=fuel,hotel].
// Partial provider failures still answer 200 and are listed in
// meta.warnings.
func (h *CompanionHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon, err := parsePoint(q, "")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var categories []types.PlaceCategory
	for _, raw := range splitList(q.Get("categories")) {
		categories = append(categories, types.PlaceCategory(raw))
	}

	snap, err := h.service.Snapshot(r.Context(), lat, lon, categories)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", weatherCacheControl)
	core.DataWithMeta(w, r, http.StatusOK, snap, &core.ResponseMeta{Warnings: snap.Warnings})
}
