package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brunobiangulo/stockreport"
)

// newRouter wires the API. Middleware order, outermost first:
// request id -> recovery -> cors -> auth -> logging.
func newRouter(engine stockreport.Engine, cfg stockreport.Config) http.Handler {
	h := newHandler(engine, cfg.MaxFileSize)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(recoveryMiddleware)
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(authMiddleware(cfg.APIKey))
	r.Use(logMiddleware)

	r.Get("/health", h.handleHealth)

	r.Route("/parse", func(r chi.Router) {
		r.Post("/", h.handleParseUpload)
		r.Post("/text", h.handleParseText)
		r.Post("/rows", h.handleParseRows)
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.handleListRuns)
		r.Get("/{id}", h.handleGetRun)
		r.Delete("/{id}", h.handleDeleteRun)
	})

	r.Get("/product-order", h.handleGetProductOrder)
	r.Put("/product-order", h.handleSetProductOrder)

	return r
}
