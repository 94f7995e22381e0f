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

// Package pool keeps an in-memory copy of the approved catalog and runs the
// compatibility engine against it.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/compat/matcher"
	"github.com/padcompat/padcompat-core/pkg/compat/search"
	"github.com/padcompat/padcompat-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownController = errors.New("unknown controller")

// Source is where the pool loads games and controllers from.
type Source interface {
	ListGames(ctx context.Context, status compat.Status) ([]compat.Game, error)
	ListControllers(ctx context.Context) ([]compat.Controller, error)
}

// Snapshot is one consistent load of the catalog. It is never modified
// after it is published.
type Snapshot struct {
	LoadedAt    time.Time           `json:"loadedAt"`
	Games       []compat.Game       `json:"-"`
	Controllers []compat.Controller `json:"-"`
}

type Pool struct {
	source    Source
	clock     clockwork.Clock
	snap      *Snapshot
	threshold float64
	mu        syncutil.RWMutex
}

func New(source Source, clock clockwork.Clock, threshold float64) *Pool {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pool{
		source:    source,
		clock:     clock,
		threshold: threshold,
		snap:      &Snapshot{},
	}
}

// Snapshot returns the current catalog load.
func (p *Pool) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Refresh loads approved games and all controllers concurrently and swaps
// them in together. On error the previous snapshot stays in place.
func (p *Pool) Refresh(ctx context.Context) error {
	var (
		games       []compat.Game
		controllers []compat.Controller
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = p.source.ListGames(gctx, compat.StatusApproved)
		if err != nil {
			return fmt.Errorf("failed to load games: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		controllers, err = p.source.ListControllers(gctx)
		if err != nil {
			return fmt.Errorf("failed to load controllers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := &Snapshot{
		Games:       games,
		Controllers: controllers,
		LoadedAt:    p.clock.Now(),
	}

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()

	log.Debug().
		Int("games", len(games)).
		Int("controllers", len(controllers)).
		Msg("catalog pool refreshed")
	return nil
}

// Run refreshes the pool every interval until ctx is cancelled. Failed
// refreshes are logged and retried on the next tick.
func (p *Pool) Run(ctx context.Context, interval time.Duration) {
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("catalog pool refresh failed")
			}
		}
	}
}

// Controller looks up a controller in the current snapshot.
func (p *Pool) Controller(id string) (compat.Controller, bool) {
	snap := p.Snapshot()
	for i := range snap.Controllers {
		if snap.Controllers[i].ID == id {
			return snap.Controllers[i], true
		}
	}
	return compat.Controller{}, false
}

// Search runs the fuzzy filter and protocol resolution over the current
// snapshot. An empty controllerID gives the browse view.
func (p *Pool) Search(query, controllerID string) ([]search.Result, error) {
	snap := p.Snapshot()

	if controllerID == "" {
		return search.Search(snap.Games, query, nil), nil
	}

	for i := range snap.Controllers {
		if snap.Controllers[i].ID == controllerID {
			capability := snap.Controllers[i].Capability
			return search.Search(snap.Games, query, &capability), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownController, controllerID)
}

// FindSimilar reports the approved game most similar to name, if any is
// above the configured threshold.
func (p *Pool) FindSimilar(name string) *matcher.SimilarMatch {
	return matcher.FindSimilar(name, p.Snapshot().Games, p.threshold)
}
