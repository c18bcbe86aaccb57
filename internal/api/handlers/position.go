package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/core"
	"ridewise/internal/types"
)

// PositionSource reports the rider's latest fix.
type PositionSource interface {
	Position(ctx context.Context) (*types.Position, error)
}

// PositionHandler serves GET /v1/position.
type PositionHandler struct {
	source PositionSource
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(source PositionSource) *PositionHandler {
	return &PositionHandler{source: source}
}

// RegisterRoutes mounts the position endpoint.
func (h *PositionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/position", h.HandleGet)
}

// HandleGet returns the last reported position, or 404 before the first fix.
func (h *PositionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	pos, err := h.source.Position(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	core.Data(w, r, http.StatusOK, pos)
}
