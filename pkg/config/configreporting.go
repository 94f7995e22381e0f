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

package config

const DefaultReportingEnvironment = "production"

// ErrorReporting sends error level logs to a Sentry project. It is off
// unless enabled with a DSN.
type ErrorReporting struct {
	DSN         string `toml:"dsn,omitempty"`
	Environment string `toml:"environment,omitempty"`
	Enabled     bool   `toml:"enabled"`
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ErrorReporting.Enabled && c.vals.ErrorReporting.DSN != ""
}

func (c *Instance) ErrorReportingDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ErrorReporting.DSN
}

func (c *Instance) ErrorReportingEnvironment() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.ErrorReporting.Environment == "" {
		return DefaultReportingEnvironment
	}
	return c.vals.ErrorReporting.Environment
}
