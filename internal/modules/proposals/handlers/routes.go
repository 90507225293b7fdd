package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all proposal routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/proposals", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleSubmit)
		r.Post("/{id}/decide", h.HandleDecide)
	})
}
