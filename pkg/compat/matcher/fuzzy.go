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
)

// Matches reports whether query matches text. An empty query matches
// everything. Matching is case-insensitive: a contiguous substring always
// wins, otherwise the query characters must appear in text in the same order
// with any gaps between them.
func Matches(text, query string) bool {
	if query == "" {
		return true
	}

	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)

	if strings.Contains(textLower, queryLower) {
		return true
	}

	return isSubsequence(textLower, queryLower)
}

// isSubsequence walks text once, advancing through query only on equal runes.
func isSubsequence(text, query string) bool {
	q := []rune(query)
	qi := 0
	for _, r := range text {
		if qi == len(q) {
			break
		}
		if r == q[qi] {
			qi++
		}
	}
	return qi == len(q)
}
