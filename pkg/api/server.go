// Package api is the pngme REST API
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const defaultMaxBodySize = 32 << 20

// NewRouter builds the HTTP handler with all routes configured
func NewRouter(server *Server, gatherer prometheus.Gatherer) http.Handler {
	metrics := server.metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(requestLogger(server.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", server.handleSwagger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(server.config.APIKey, metrics))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Chunk vault
		r.Post("/chunks", metrics.InstrumentHandler("POST", "/api/v1/chunks", server.handleCreateChunk))
		r.Get("/chunks", metrics.InstrumentHandler("GET", "/api/v1/chunks", server.handleListChunks))
		r.Post("/chunks/parse", metrics.InstrumentHandler("POST", "/api/v1/chunks/parse", server.handleParseChunk))
		r.Get("/chunks/{id}", metrics.InstrumentHandler("GET", "/api/v1/chunks/{id}", server.handleGetChunk))
		r.Get("/chunks/{id}/raw", metrics.InstrumentHandler("GET", "/api/v1/chunks/{id}/raw", server.handleGetChunkRaw))
		r.Delete("/chunks/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/chunks/{id}", server.handleDeleteChunk))

		// PNG files
		r.Post("/png/encode", metrics.InstrumentHandler("POST", "/api/v1/png/encode", server.handlePngEncode))
		r.Post("/png/decode", metrics.InstrumentHandler("POST", "/api/v1/png/decode", server.handlePngDecode))
		r.Post("/png/remove", metrics.InstrumentHandler("POST", "/api/v1/png/remove", server.handlePngRemove))
		r.Post("/png/print", metrics.InstrumentHandler("POST", "/api/v1/png/print", server.handlePngPrint))
	})

	return r
}

// StartServer runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully
func StartServer(ctx context.Context, store IChunkStore, messages MessageService, config ServerConfig, logger zerolog.Logger) error {
	metrics := NewMetrics(prometheus.DefaultRegisterer)
	server := NewServer(store, messages, config, metrics, logger)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting pngme REST API server")
		logger.Info().Str("url", fmt.Sprintf("http://%s/metrics", addr)).Msg("metrics available")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}
