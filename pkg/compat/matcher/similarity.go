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

// Package matcher implements the tolerant name matching used by catalog
// search and duplicate detection.
package matcher

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Distance returns the Levenshtein edit distance between a and b, counted in
// runes. Comparison is case-sensitive; callers normalise case first.
func Distance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}

// Similarity normalises Distance into [0, 1] using the longer of the two
// strings: (maxLen - distance) / maxLen. Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-Distance(a, b)) / float64(maxLen)
}
