package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hannes/medvoice-private/config"
	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/pii"
	"github.com/hannes/medvoice-private/ratelimit"
	"github.com/hannes/medvoice-private/session"
	"github.com/hannes/medvoice-private/speech"
	"github.com/hannes/medvoice-private/translation"
)

const serviceName = "MedVoice Translation Service"

// Deps are the collaborators the HTTP surface dispatches to
type Deps struct {
	Masker     *pii.MaskingService
	Translator *translation.Service
	Speech     *speech.Service
	Sessions   session.Store
	Limiter    *ratelimit.WindowLimiter // nil disables rate limiting
	Gatherer   prometheus.Gatherer
	Logger     *logging.Logger
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	masker     *pii.MaskingService
	translator *translation.Service
	speech     *speech.Service
	sessions   session.Store
	limiter    *ratelimit.WindowLimiter
	gatherer   prometheus.Gatherer
	logger     *logging.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Masker == nil {
		return nil, errors.New("server: masking service is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Translator == nil {
		deps.Translator = translation.NewService(translation.Options{
			Masker:        deps.Masker,
			Sessions:      deps.Sessions,
			Logger:        deps.Logger,
			MaxTextLength: cfg.Translation.MaxTextLength,
		})
	}
	if deps.Speech == nil {
		deps.Speech = speech.NewService(nil, deps.Masker, nil, deps.Logger, cfg.Speech.DefaultLanguage)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		config:     cfg,
		masker:     deps.Masker,
		translator: deps.Translator,
		speech:     deps.Speech,
		sessions:   deps.Sessions,
		limiter:    deps.Limiter,
		gatherer:   deps.Gatherer,
		logger:     deps.Logger,
	}, nil
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.config.RateLimit.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if s.config.Logging.LogRequests {
		r.Use(requestLogger(s.logger))
	}
	r.Use(corsMiddleware(s.config.CORSAllowedOrigins))

	r.Get("/health", s.healthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/logs", s.handleGetLogs)
	r.Delete("/logs", s.handleClearLogs)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		r.Post("/redact", s.handleRedact)
		r.Post("/translate", s.handleTranslate)
		r.Get("/tts", s.handleTTS)
		r.Get("/languages", s.handleLanguages)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
			r.Put("/{id}/settings", s.handleUpdateSettings)
		})
	})

	r.Get("/ws/transcript", s.handleTranscriptSocket)
	return r
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.ServerPort,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server",
		"port", s.config.ServerPort,
		"provider", s.config.Translation.Provider,
		"tts_configured", s.speech.Configured(),
		"audit_store", s.config.Database.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown failed: %w", err)
	}
	return nil
}

// Close closes the server and cleans up resources
func (s *Server) Close() error {
	return s.masker.Close()
}
