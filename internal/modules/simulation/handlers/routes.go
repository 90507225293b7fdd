package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all simulation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/simulate", func(r chi.Router) {
		r.Post("/", h.HandleSimulate)
		r.Post("/compare", h.HandleCompare)
		r.Get("/presets", h.HandleListPresets)
	})
}
