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

package compat

import (
	"time"
)

// PlatformProfile is the protocol table a game declares for one platform.
// Protocols missing from the map are not used on that platform.
type PlatformProfile struct {
	Protocols map[Protocol]Connectivity `json:"protocols,omitempty"`
	Tested    bool                      `json:"tested"`
}

// GameProfile is the per-platform protocol table of a game.
type GameProfile struct {
	Android PlatformProfile `json:"android"`
	IOS     PlatformProfile `json:"ios"`
}

// Platform returns the profile for p. Unknown platforms get an empty,
// untested profile.
func (gp *GameProfile) Platform(p Platform) PlatformProfile {
	switch p {
	case PlatformAndroid:
		return gp.Android
	case PlatformIOS:
		return gp.IOS
	default:
		return PlatformProfile{}
	}
}

// Set records a declared connectivity for a protocol on a platform, creating
// the map when needed. It does not change the Tested flag.
func (gp *GameProfile) Set(p Platform, proto Protocol, conn Connectivity) {
	var target *PlatformProfile
	switch p {
	case PlatformAndroid:
		target = &gp.Android
	case PlatformIOS:
		target = &gp.IOS
	default:
		return
	}
	if target.Protocols == nil {
		target.Protocols = make(map[Protocol]Connectivity)
	}
	target.Protocols[proto] = conn
}

// ControllerCapability lists the protocols a controller can emit over each
// connection type. A protocol may appear in both lists.
type ControllerCapability struct {
	Wired     []Protocol `json:"wiredProtocols"`
	Bluetooth []Protocol `json:"bluetoothProtocols"`
}

// SupportsWired reports whether p is available over a wired or 2.4GHz link.
func (cc *ControllerCapability) SupportsWired(p Protocol) bool {
	return p.Known() && containsProtocol(cc.Wired, p)
}

// SupportsBluetooth reports whether p is available over Bluetooth.
func (cc *ControllerCapability) SupportsBluetooth(p Protocol) bool {
	return p.Known() && containsProtocol(cc.Bluetooth, p)
}

// Supported returns every protocol listed for any connection, deduplicated,
// in vocabulary order.
func (cc *ControllerCapability) Supported() []Protocol {
	out := make([]Protocol, 0, len(AllProtocols))
	for _, p := range AllProtocols {
		if containsProtocol(cc.Wired, p) || containsProtocol(cc.Bluetooth, p) {
			out = append(out, p)
		}
	}
	return out
}

func containsProtocol(list []Protocol, p Protocol) bool {
	for _, item := range list {
		if item == p {
			return true
		}
	}
	return false
}

// Status is the moderation state of a submitted game.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Game is a catalog entry together with its protocol profile.
type Game struct {
	CreatedAt            time.Time   `json:"createdAt"`
	ApprovedAt           *time.Time  `json:"approvedAt,omitempty"`
	IGDBID               *int        `json:"igdbId,omitempty"`
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	ImageURL             string      `json:"imageUrl,omitempty"`
	Status               Status      `json:"status"`
	TestingNotes         string      `json:"testingNotes,omitempty"`
	DiscordUsername      string      `json:"discordUsername,omitempty"`
	ApprovedBy           string      `json:"approvedBy,omitempty"`
	RejectionReason      string      `json:"rejectionReason,omitempty"`
	TestingControllerIDs []string    `json:"testingControllerIds,omitempty"`
	Profile              GameProfile `json:"profile"`
}

// IsApproved reports whether the game is publicly visible.
func (g *Game) IsApproved() bool {
	return g.Status == StatusApproved
}

// Controller is a catalog controller entry.
type Controller struct {
	CreatedAt    time.Time            `json:"createdAt"`
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Manufacturer string               `json:"manufacturer"`
	Capability   ControllerCapability `json:"capability"`
}
