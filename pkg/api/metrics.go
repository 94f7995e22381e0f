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

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const metricsNamespace = "padcompat"

// Submission and moderation outcomes used as metric labels.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "possible_duplicate"
	resultApproved  = "approved"
	resultRejected  = "rejected"
	resultUpdated   = "updated"
)

type serverMetrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	moderation  *prometheus.CounterVec
}

// newServerMetrics builds a registry owned by one server, so several servers
// can live in one process without colliding on registration.
func newServerMetrics(s *Server) *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency by route and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "game_submissions_total",
				Help:      "Stored game submissions by duplicate check outcome.",
			},
			[]string{"result"},
		),
		moderation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "moderation_decisions_total",
				Help:      "Moderator actions on games.",
			},
			[]string{"decision"},
		),
	}

	catalogGames := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_games",
			Help:      "Approved games in the current search snapshot.",
		},
		func() float64 { return float64(len(s.pool.Snapshot().Games)) },
	)
	catalogControllers := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_controllers",
			Help:      "Controllers in the current search snapshot.",
		},
		func() float64 { return float64(len(s.pool.Snapshot().Controllers)) },
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.submissions,
		m.moderation,
		catalogGames,
		catalogControllers,
	)
	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: &promLogger{},
	})
}

// instrument records request latency under the matched chi route pattern.
func (m *serverMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func (m *serverMetrics) submission(possibleDuplicate bool) {
	if possibleDuplicate {
		m.submissions.WithLabelValues(resultDuplicate).Inc()
		return
	}
	m.submissions.WithLabelValues(resultAccepted).Inc()
}

func (m *serverMetrics) decision(decision string) {
	m.moderation.WithLabelValues(decision).Inc()
}

type promLogger struct{}

func (*promLogger) Println(v ...any) {
	log.Error().Msg("metrics: " + fmt.Sprint(v...))
}
