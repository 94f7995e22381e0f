// PadCompat Core
// Copyright (c) 2026 The PadCompat Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of PadCompat Core.
//
// PadCompat Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// PadCompat Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with PadCompat Core.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the catalog search, submission and moderation endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	apimiddleware "github.com/padcompat/padcompat-core/pkg/api/middleware"
	"github.com/padcompat/padcompat-core/pkg/api/models"
	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/padcompat/padcompat-core/pkg/lookup/igdb"
	"github.com/padcompat/padcompat-core/pkg/service/broker"
	"github.com/padcompat/padcompat-core/pkg/service/pool"
	"github.com/rs/zerolog/log"
)

// Catalog is the storage the API reads from and writes to.
type Catalog interface {
	apimiddleware.ApproverStore
	pool.Source
	AddGame(ctx context.Context, g *compat.Game) (compat.Game, error)
	GetGame(ctx context.Context, id string) (*compat.Game, error)
	ApproveGame(ctx context.Context, approver catalogdb.Approver, id string) error
	RejectGame(ctx context.Context, approver catalogdb.Approver, id, reason string) error
	UpdateGameProfile(ctx context.Context, id string, profile *compat.GameProfile) error
	AddController(ctx context.Context, c *compat.Controller) (compat.Controller, error)
	GetController(ctx context.Context, id string) (*compat.Controller, error)
	ApprovedIGDBIDs(ctx context.Context) ([]int, error)
}

// Lookup searches an external game database for submission prefill.
type Lookup interface {
	Search(ctx context.Context, query string, exclude []int) ([]igdb.Result, error)
}

type Server struct {
	cfg     *config.Instance
	db      Catalog
	pool    *pool.Pool
	lookup  Lookup
	limiter *apimiddleware.IPRateLimiter
	clock   clockwork.Clock
	broker  *broker.Broker
	events  *melody.Melody
	metrics *serverMetrics

	closeEventsOnce sync.Once
}

type Options struct {
	Config  *config.Instance
	DB      Catalog
	Pool    *pool.Pool
	Lookup  Lookup
	Limiter *apimiddleware.IPRateLimiter
	Clock   clockwork.Clock
	Broker  *broker.Broker
}

// NewServer builds a server. Lookup may be nil, which disables the lookup
// endpoint. A missing limiter is created with the default submission limits.
func NewServer(opts Options) *Server {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = apimiddleware.NewIPRateLimiter(
			clock,
			apimiddleware.SubmissionsPerMinute,
			apimiddleware.SubmissionBurst,
		)
	}
	s := &Server{
		cfg:     opts.Config,
		db:      opts.DB,
		pool:    opts.Pool,
		lookup:  opts.Lookup,
		limiter: limiter,
		clock:   clock,
		broker:  opts.Broker,
	}
	s.events = newEventHub(s.checkOrigin)
	s.metrics = newServerMetrics(s)
	return s
}

// Limiter returns the submission rate limiter so callers can run its
// cleanup loop.
func (s *Server) Limiter() *apimiddleware.IPRateLimiter {
	return s.limiter
}

// Router returns the HTTP handler for every API route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	origins := s.cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	requireApprover := apimiddleware.RequireApprover(s.db)

	// Long-lived websocket, outside the request timeout.
	r.With(requireApprover).Get("/api/admin/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(config.APIRequestTimeout))
		r.Use(s.metrics.instrument)

		r.Get("/api/health", s.handleHealth)
		r.Method(http.MethodGet, "/metrics", s.metrics.handler())

		r.Get("/api/games", s.handleSearch)
		r.Get("/api/games/similar", s.handleSimilar)
		r.With(apimiddleware.RateLimit(s.limiter)).Post("/api/games", s.handleAddGame)

		r.Get("/api/controllers", s.handleControllers)
		r.With(requireApprover).Post("/api/controllers", s.handleAddController)

		r.Get("/api/lookup", s.handleLookup)

		r.Get("/api/export/games.csv", s.handleExportGames)
		r.Get("/api/export/controllers.csv", s.handleExportControllers)
		r.Get("/api/export/credits.csv", s.handleExportCredits)

		r.Group(func(r chi.Router) {
			r.Use(requireApprover)
			r.Get("/api/admin/games", s.handleAdminGames)
			r.Post("/api/admin/games/{id}/approve", s.handleApprove)
			r.Post("/api/admin/games/{id}/reject", s.handleReject)
			r.Put("/api/admin/games/{id}/profile", s.handleUpdateProfile)
		})
	})

	return r
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.cfg.APIListen())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.APIListen(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	eventsCtx, stopEvents := context.WithCancel(ctx)
	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		s.RunEvents(eventsCtx)
	}()
	defer func() {
		stopEvents()
		<-eventsDone
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", listener.Addr().String()).Msg("starting API server")
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("stopping API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server stopped: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func (s *Server) notify(method string, params any) {
	if s.broker == nil {
		return
	}
	s.broker.Notify(method, params)
}

// refreshPool reloads the search pool after a write that changes what the
// public sees. A failure leaves the previous snapshot in place until the
// next periodic refresh.
func (s *Server) refreshPool(ctx context.Context) {
	if err := s.pool.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("failed to refresh pool after update")
	}
}
