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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/padcompat/padcompat-core/internal/telemetry"
	"github.com/padcompat/padcompat-core/pkg/cli"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/helpers"
	"github.com/padcompat/padcompat-core/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()

	daemonMode := flag.Bool(
		"daemon",
		false,
		"log to the log file only, without console output",
	)
	dataDir := flag.String(
		"data",
		"",
		"directory for config, database and logs",
	)

	flags.Pre()

	dirs := helpers.DefaultDirs()
	if *dataDir != "" {
		dirs = helpers.Dirs{
			ConfigDir: *dataDir,
			DataDir:   *dataDir,
			LogDir:    filepath.Join(*dataDir, "logs"),
		}
	}

	var logWriters []io.Writer
	if !*daemonMode {
		logWriters = []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}

	cfg := cli.Setup(dirs, config.BaseDefaults, logWriters)
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	flags.Post(cfg, dirs)

	stopSvc, done, err := service.Start(cfg, dirs)
	if err != nil {
		log.Error().Msgf("error starting service: %s", err)
		return fmt.Errorf("error starting service: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
	case <-done:
	}

	if err := stopSvc(); err != nil {
		log.Error().Msgf("error stopping service: %s", err)
		return fmt.Errorf("error stopping service: %w", err)
	}
	return nil
}
