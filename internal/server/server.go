// Package server provides the HTTP JSON API of the lead qualification service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/filtering"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/sheets"
	"github.com/spigell/lendmatch/internal/store"
)

const maxBodyBytes = 1 << 20

// Config holds the HTTP listener settings.
type Config struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FetcherFactory builds the spreadsheet reader for a sync request.
type FetcherFactory func(ctx context.Context, cfg sheets.Config) (sheets.Fetcher, error)

// Server serves the API.
type Server struct {
	cfg        Config
	store      store.Store
	service    *assistant.Service
	sheets     sheets.Config
	newFetcher FetcherFactory
	validate   *validator.Validate
	logger     *zap.Logger
	handler    http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithSheets sets the default spreadsheet used by the sync endpoint.
func WithSheets(cfg sheets.Config) Option {
	return func(s *Server) { s.sheets = cfg }
}

// WithFetcherFactory replaces the Sheets API client used by the sync endpoint.
func WithFetcherFactory(f FetcherFactory) Option {
	return func(s *Server) { s.newFetcher = f }
}

// New creates the server and registers its routes.
func New(cfg Config, st store.Store, service *assistant.Service, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = ":5000"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		service: service,
		newFetcher: func(ctx context.Context, c sheets.Config) (sheets.Fetcher, error) {
			return sheets.NewClient(ctx, c)
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.handle(mux, "GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handle(mux, "GET /api/lending-partners", s.handleListPartners)
	s.handle(mux, "POST /api/lending-partners", s.handleCreatePartner)
	s.handle(mux, "PUT /api/lending-partners/{id}", s.handleUpdatePartner)
	s.handle(mux, "DELETE /api/lending-partners/{id}", s.handleDeletePartner)

	s.handle(mux, "GET /api/leads", s.handleListLeads)
	s.handle(mux, "POST /api/leads", s.handleCreateLead)
	s.handle(mux, "GET /api/leads/{id}", s.handleGetLead)
	s.handle(mux, "GET /api/leads/{id}/messages", s.handleListMessages)
	s.handle(mux, "GET /api/leads/{id}/matches", s.handleListMatches)
	s.handle(mux, "PUT /api/leads/{id}/matches/{partnerId}", s.handleUpdateMatch)

	s.handle(mux, "POST /api/chat/message", s.handleChatMessage)
	s.handle(mux, "POST /api/sync/lending-partners", s.handleSyncPartners)

	s.handler = s.withRequestID(s.withLogging(mux))
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is canceled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("address", s.cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

type healthResponse struct {
	Status  string             `json:"status"`
	Variant matching.Variant   `json:"scoringVariant"`
	Filters []filtering.Status `json:"filters"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Variant: s.service.Scorer().Variant(),
		Filters: s.service.Filters(),
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding json response failed", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.jsonResponse(w, status, errorBody{Message: http.StatusText(status)})
		return
	}
	s.jsonResponse(w, status, newErrorBody(err))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrBadRequest{Err: err}
	}
	return nil
}
