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

import (
	"fmt"
)

// DefaultDuplicateThreshold mirrors matcher.DefaultDuplicateThreshold. It is
// repeated here so config does not import the engine.
const DefaultDuplicateThreshold = 0.7

type Search struct {
	DuplicateThreshold *float64 `toml:"duplicate_threshold,omitempty"`
}

func (s Search) validate() error {
	if s.DuplicateThreshold == nil {
		return nil
	}
	if t := *s.DuplicateThreshold; t < 0 || t > 1 {
		return fmt.Errorf("search.duplicate_threshold must be between 0 and 1, got %v", t)
	}
	return nil
}

// DuplicateThreshold is the similarity above which a submitted name is
// reported as a likely duplicate of an approved game.
func (c *Instance) DuplicateThreshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Search.DuplicateThreshold == nil {
		return DefaultDuplicateThreshold
	}
	return *c.vals.Search.DuplicateThreshold
}

func (c *Instance) SetDuplicateThreshold(threshold float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Search.DuplicateThreshold = &threshold
}
