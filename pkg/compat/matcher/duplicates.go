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

package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDuplicateThreshold is the similarity a name must exceed before an
	// approved game is reported as a likely duplicate.
	DefaultDuplicateThreshold = 0.7

	// MinDuplicateNameLength is the shortest name, in runes, that is checked
	// for duplicates. Shorter names match too many unrelated titles.
	MinDuplicateNameLength = 3
)

// SimilarMatch is an approved game whose name is close to a candidate name.
type SimilarMatch struct {
	Game       compat.Game `json:"game"`
	Similarity float64     `json:"similarity"`
}

// FindSimilar returns the approved game in pool whose lowercased name is most
// similar to name, provided the score is strictly above threshold. Pending
// and rejected games are never reported. Ties keep the earliest entry in pool.
// It returns nil when name is too short or nothing qualifies.
func FindSimilar(name string, pool []compat.Game, threshold float64) *SimilarMatch {
	if utf8.RuneCountInString(name) < MinDuplicateNameLength {
		return nil
	}

	query := strings.ToLower(name)

	var best *SimilarMatch
	for i := range pool {
		if !pool[i].IsApproved() {
			continue
		}

		score := Similarity(query, strings.ToLower(pool[i].Name))
		if score <= threshold {
			continue
		}

		log.Debug().
			Str("name", name).
			Str("candidate", pool[i].Name).
			Float64("similarity", score).
			Msg("duplicate candidate above threshold")

		if best == nil || score > best.Similarity {
			best = &SimilarMatch{Game: pool[i], Similarity: score}
		}
	}

	return best
}
