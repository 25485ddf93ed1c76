package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/cmd/insightpdf-api/handlers"
	"github.com/insightpdf/insightpdf/cmd/insightpdf-api/middleware"
	"github.com/insightpdf/insightpdf/internal/config"
	"github.com/insightpdf/insightpdf/internal/llm"
	"github.com/insightpdf/insightpdf/internal/normalize"
	"github.com/insightpdf/insightpdf/internal/pdf"
	"github.com/insightpdf/insightpdf/internal/pipeline"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger zerolog.Logger, cfg *config.Config, store *config.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	extractor := pdf.NewExtractor(cfg.Pipeline.ImageQuality)
	client := llm.NewClient(logger)
	normalizer := normalize.NewNormalizer(logger)
	pipe := pipeline.New(extractor, client, normalizer, logger)

	healthHandler := handlers.NewHealthHandler(version)
	processHandler := handlers.NewProcessHandler(logger, pipe, store, cfg.Pipeline.MaxFileSizeBytes())
	modelsHandler := handlers.NewModelsHandler(logger, cfg, store)

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v01", func(r chi.Router) {
		r.Post("/process", processHandler.Process)
		r.Get("/models", modelsHandler.List)
		r.Route("/config", func(r chi.Router) {
			r.Post("/model", modelsHandler.Configure)
		})
	})

	return r
}
