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

package helpers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Dirs are the directories the service reads and writes at runtime.
type Dirs struct {
	ConfigDir string
	DataDir   string
	LogDir    string
}

// DefaultDirs places everything under the user config directory, falling
// back to the working directory when it cannot be resolved.
func DefaultDirs() Dirs {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	root := filepath.Join(base, config.AppName)
	return Dirs{
		ConfigDir: root,
		DataDir:   root,
		LogDir:    filepath.Join(root, "logs"),
	}
}

// EnsureDirectories creates the data and log directories if missing.
func EnsureDirectories(dirs Dirs) error {
	if err := os.MkdirAll(dirs.DataDir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(dirs.LogDir, 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

var logWriter io.Writer = os.Stderr

// LogWriter returns the writer InitLogging set up, for callers that add
// their own outputs to the global logger.
func LogWriter() io.Writer {
	return logWriter
}

// InitLogging points the global logger at a rotating file in logDir plus
// any extra writers, such as a console writer in foreground mode.
func InitLogging(logDir string, writers []io.Writer) error {
	if logDir == "" {
		return errors.New("log directory not set")
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(logDir, config.LogFile),
		MaxSize:    5,
		MaxBackups: 3,
	}}
	logWriters = append(logWriters, writers...)

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logWriter = io.MultiWriter(logWriters...)
	log.Logger = log.Output(logWriter).
		With().Timestamp().Caller().Logger()

	return nil
}
