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

// Package search filters the game catalog by a free-text query and annotates
// each hit with its protocol compatibility.
package search

import (
	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/compat/matcher"
)

// Result is one game in a search response. When a controller was selected,
// Controlled is true and Compatibility holds the resolved protocols. Without
// a controller, Compatibility lists the game's declared protocols and
// Supported is true whenever any are declared.
type Result struct {
	Game          compat.Game   `json:"game"`
	Compatibility compat.Result `json:"compatibility"`
	Controlled    bool          `json:"controlled"`
}

// Search keeps the games whose name matches query, in their original order,
// and attaches compatibility for controller. A nil controller gives the
// browse view of raw declared protocols. Search has no side effects and
// returns equal results for equal inputs.
func Search(games []compat.Game, query string, controller *compat.ControllerCapability) []Result {
	results := make([]Result, 0, len(games))
	for i := range games {
		if !matcher.Matches(games[i].Name, query) {
			continue
		}
		results = append(results, annotate(&games[i], controller))
	}
	return results
}

func annotate(game *compat.Game, controller *compat.ControllerCapability) Result {
	if controller == nil {
		declared := compat.Declared(game.Profile)
		return Result{
			Game: *game,
			Compatibility: compat.Result{
				Protocols:         declared,
				Supported:         len(declared) > 0,
				ConnectivityModes: []compat.Connectivity{},
			},
		}
	}

	return Result{
		Game:          *game,
		Compatibility: compat.Resolve(game.Profile, *controller),
		Controlled:    true,
	}
}
