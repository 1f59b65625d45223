package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "shop-bot/internal/middleware"
)

// SetupRouter wires the public, bot-facing and admin routes.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Products)
		r.Get("/categories", h.Categories)

		r.Get("/user", h.GetUser)
		r.Post("/user", h.UpsertUser)

		r.Post("/order", h.CreateOrder)
		r.Get("/my-orders", h.MyOrders)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.adminAuth.Middleware)

			r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
			r.Get("/orders/export", h.ExportOrders)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
