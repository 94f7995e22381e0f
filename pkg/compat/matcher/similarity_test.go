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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "both empty", a: "", b: "", want: 0},
		{name: "one empty", a: "", b: "abc", want: 3},
		{name: "identical", a: "zelda", b: "zelda", want: 0},
		{name: "classic", a: "kitten", b: "sitting", want: 3},
		{name: "substitution", a: "flaw", b: "lawn", want: 2},
		{name: "case sensitive", a: "Mario", b: "mario", want: 1},
		{name: "multibyte runes count once", a: "pokémon", b: "pokemon", want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "", b: "abc", want: 0.0},
		{name: "identical", a: "mario kart tour", b: "mario kart tour", want: 1.0},
		{name: "kitten sitting", a: "kitten", b: "sitting", want: 4.0 / 7.0},
		{name: "flaw lawn", a: "flaw", b: "lawn", want: 0.5},
		{name: "multibyte", a: "pokémon", b: "pokemon", want: 6.0 / 7.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}
