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

// Package models holds the JSON bodies of the HTTP API.
package models

import (
	"time"

	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/compat/matcher"
	"github.com/padcompat/padcompat-core/pkg/compat/search"
	"github.com/padcompat/padcompat-core/pkg/lookup/igdb"
)

// PlatformProfileParams maps protocol names to connectivity labels as
// submitted from the form. "Not Supported" or an empty value leaves the
// protocol out.
type PlatformProfileParams struct {
	Protocols map[string]string `json:"protocols" validate:"max=6,dive,keys,protocol,endkeys,connectivity"`
	Tested    bool              `json:"tested"`
}

type AddGameParams struct {
	IGDBID               *int                  `json:"igdbId" validate:"omitempty,gt=0"`
	Name                 string                `json:"name" validate:"notblank,max=200"`
	Description          string                `json:"description" validate:"max=4000"`
	ImageURL             string                `json:"imageUrl" validate:"omitempty,http_url"`
	TestingNotes         string                `json:"testingNotes" validate:"max=4000"`
	DiscordUsername      string                `json:"discordUsername" validate:"max=64"`
	TestingControllerIDs []string              `json:"testingControllerIds" validate:"max=20,dive,uuid"`
	Android              PlatformProfileParams `json:"android"`
	IOS                  PlatformProfileParams `json:"ios"`
}

type AddControllerParams struct {
	Name         string   `json:"name" validate:"notblank,max=200"`
	Manufacturer string   `json:"manufacturer" validate:"max=200"`
	Wired        []string `json:"wiredProtocols" validate:"max=6,dive,protocol"`
	Bluetooth    []string `json:"bluetoothProtocols" validate:"max=6,dive,protocol"`
}

// UpdateProfileParams replaces both platform profiles of a game.
type UpdateProfileParams struct {
	Android PlatformProfileParams `json:"android"`
	IOS     PlatformProfileParams `json:"ios"`
}

type RejectParams struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type SearchResponse struct {
	LoadedAt time.Time       `json:"loadedAt"`
	Results  []search.Result `json:"results"`
}

type SimilarResponse struct {
	Match *matcher.SimilarMatch `json:"match"`
}

type AddGameResponse struct {
	Duplicate *matcher.SimilarMatch `json:"duplicate"`
	Game      compat.Game           `json:"game"`
}

type GamesResponse struct {
	Games []compat.Game `json:"games"`
}

type ControllersResponse struct {
	Controllers []compat.Controller `json:"controllers"`
}

type LookupResponse struct {
	Results []igdb.Result `json:"results"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}
