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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/padcompat/padcompat-core/pkg/export"
	"github.com/padcompat/padcompat-core/pkg/helpers"
	"github.com/padcompat/padcompat-core/pkg/service"
	"github.com/padcompat/padcompat-core/pkg/service/pool"
	"github.com/rs/zerolog/log"
)

var ErrUnknownExport = errors.New("unknown export")

// Env is what a one-shot command runs against.
type Env struct {
	DB   *catalogdb.CatalogDB
	Pool *pool.Pool
}

// RunOnce opens the catalog, runs cmd and closes the catalog again. SIGINT
// and SIGTERM cancel the command.
func RunOnce(cfg *config.Instance, dirs helpers.Dirs, cmd func(context.Context, *Env) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, p, err := service.OpenCatalog(ctx, cfg, dirs, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close catalog database")
		}
	}()

	return cmd(ctx, &Env{DB: db, Pool: p})
}

// Search prints matching approved games as JSON. controllerID may be empty
// for the browse view.
func (e *Env) Search(_ context.Context, w io.Writer, query, controllerID string) error {
	results, err := e.Pool.Search(query, strings.TrimSpace(controllerID))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Similar prints the closest approved game to name, if any.
func (e *Env) Similar(_ context.Context, w io.Writer, name string) error {
	match := e.Pool.FindSimilar(strings.TrimSpace(name))
	if match == nil {
		_, err := fmt.Fprintln(w, "no similar game found")
		return err
	}
	_, err := fmt.Fprintf(w, "%s (%.0f%% similar)\n", match.Game.Name, match.Similarity*100)
	return err
}

// Export writes one of the CSV exports straight from the database.
func (e *Env) Export(ctx context.Context, w io.Writer, kind string) error {
	games, err := e.DB.ListGames(ctx, compat.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to load games: %w", err)
	}
	controllers, err := e.DB.ListControllers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load controllers: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "games":
		return export.WriteGames(w, games, controllers)
	case "controllers":
		return export.WriteControllers(w, controllers)
	case "credits":
		return export.WriteCredits(w, games)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExport, kind)
	}
}

// AddApprover registers a moderator under a freshly generated token and
// prints it. The token cannot be shown again.
func (e *Env) AddApprover(ctx context.Context, w io.Writer, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("approver name is required")
	}
	token := uuid.NewString()
	if err := e.DB.AddApprover(ctx, name, token); err != nil {
		return fmt.Errorf("failed to add approver: %w", err)
	}
	log.Info().Str("name", name).Msg("approver added")
	_, err := fmt.Fprintf(w, "approver %s added, token: %s\n", name, token)
	return err
}
