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

package igdb

import "time"

// Game is the subset of an IGDB games record the lookup asks for.
type Game struct {
	Cover     *Cover      `json:"cover"`
	Name      string      `json:"name"`
	Summary   string      `json:"summary"`
	Platforms []NamedItem `json:"platforms"`
	Genres    []NamedItem `json:"genres"`
	ID        int         `json:"id"`
}

type Cover struct {
	URL string `json:"url"`
}

// NamedItem is an expanded platform or genre reference.
type NamedItem struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Result is a mobile game suggestion returned to the submission form.
type Result struct {
	ImageURL    string   `json:"imageUrl,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Platforms   []string `json:"platforms"`
	ID          int      `json:"id"`
}

// TokenResponse is the Twitch client-credentials token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type tokenInfo struct {
	expiresAt   time.Time
	accessToken string
}
