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

// Package cli holds the command line flags shared by the padcompat binaries
// and the one-shot commands they run.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/padcompat/padcompat-core/internal/telemetry"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	Version     *bool
	Search      *string
	Controller  *string
	Similar     *string
	Export      *string
	AddApprover *string
}

// SetupFlags defines the common CLI flags.
func SetupFlags() *Flags {
	return &Flags{
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
		Search: flag.String(
			"search",
			"",
			"search approved games and print the results as JSON",
		),
		Controller: flag.String(
			"controller",
			"",
			"controller ID to resolve compatibility against when searching",
		),
		Similar: flag.String(
			"similar",
			"",
			"print the approved game most similar to a name",
		),
		Export: flag.String(
			"export",
			"",
			"write a CSV export to stdout: games, controllers or credits",
		),
		AddApprover: flag.String(
			"add-approver",
			"",
			"register a moderator and print their new token",
		),
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses flags and handles any that do not need config or logging. Add
// custom flags before running this.
func (f *Flags) Pre() {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("PadCompat v%s\n", config.AppVersion)
		os.Exit(0)
	}
}

// Post runs any one-shot command requested on the command line and exits.
// It returns without doing anything when no such flag was passed.
func (f *Flags) Post(cfg *config.Instance, dirs helpers.Dirs) {
	var cmd func(ctx context.Context, env *Env) error
	switch {
	case isFlagPassed("search"):
		cmd = func(ctx context.Context, env *Env) error {
			return env.Search(ctx, os.Stdout, *f.Search, *f.Controller)
		}
	case isFlagPassed("similar"):
		cmd = func(ctx context.Context, env *Env) error {
			return env.Similar(ctx, os.Stdout, *f.Similar)
		}
	case isFlagPassed("export"):
		cmd = func(ctx context.Context, env *Env) error {
			return env.Export(ctx, os.Stdout, *f.Export)
		}
	case isFlagPassed("add-approver"):
		cmd = func(ctx context.Context, env *Env) error {
			return env.AddApprover(ctx, os.Stdout, *f.AddApprover)
		}
	default:
		return
	}

	err := RunOnce(cfg, dirs, cmd)
	telemetry.Close()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// Setup creates the runtime directories, starts logging and loads the
// config. Any failure is fatal.
func Setup(dirs helpers.Dirs, defaultConfig config.Values, writers []io.Writer) *config.Instance {
	err := helpers.EnsureDirectories(dirs)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	err = helpers.InitLogging(dirs.LogDir, writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(dirs.ConfigDir, defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := telemetry.Init(cfg.ErrorReporting(), telemetry.Options{
		DSN:         cfg.ErrorReportingDSN(),
		Environment: cfg.ErrorReportingEnvironment(),
		AppVersion:  config.AppVersion,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg
}
