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

package fixtures

import (
	"time"

	"github.com/padcompat/padcompat-core/pkg/compat"
)

// Common catalog fixtures for use in tests. Each call returns fresh values so
// tests can modify them freely.

// NewMarioKartTour is an approved game played over HID and XINPUT.
func NewMarioKartTour() compat.Game {
	g := compat.Game{
		ID:              "0a7c1f2e-0000-4000-8000-000000000001",
		Name:            "Mario Kart Tour",
		Description:     "Race around courses inspired by real-world cities.",
		Status:          compat.StatusApproved,
		DiscordUsername: "kartfan",
		ApprovedBy:      "moderator",
		CreatedAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	g.Profile.Android.Tested = true
	g.Profile.IOS.Tested = true
	g.Profile.Set(compat.PlatformAndroid, compat.ProtocolHID, compat.ConnectivityWired)
	g.Profile.Set(compat.PlatformIOS, compat.ProtocolHID, compat.ConnectivityBluetooth)
	g.Profile.Set(compat.PlatformAndroid, compat.ProtocolXInput, compat.ConnectivityWired)
	return g
}

// NewPokemonGo is an approved game tested on Android only.
func NewPokemonGo() compat.Game {
	g := compat.Game{
		ID:        "0a7c1f2e-0000-4000-8000-000000000002",
		Name:      "Pokemon Go",
		Status:    compat.StatusApproved,
		CreatedAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	g.Profile.Android.Tested = true
	g.Profile.Set(compat.PlatformAndroid, compat.ProtocolGTouch, compat.ConnectivityBluetooth)
	// Stale iOS data that must never be used.
	g.Profile.Set(compat.PlatformIOS, compat.ProtocolHID, compat.ConnectivityBoth)
	return g
}

// NewGenshinImpact is an approved game that needs NS over both links.
func NewGenshinImpact() compat.Game {
	g := compat.Game{
		ID:        "0a7c1f2e-0000-4000-8000-000000000003",
		Name:      "Genshin Impact",
		Status:    compat.StatusApproved,
		CreatedAt: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
	}
	g.Profile.Android.Tested = true
	g.Profile.IOS.Tested = true
	g.Profile.Set(compat.PlatformAndroid, compat.ProtocolNS, compat.ConnectivityBoth)
	g.Profile.Set(compat.PlatformIOS, compat.ProtocolDS4, compat.ConnectivityBluetooth)
	return g
}

// NewPendingSubmission is a game awaiting moderation.
func NewPendingSubmission() compat.Game {
	g := compat.Game{
		ID:        "0a7c1f2e-0000-4000-8000-000000000004",
		Name:      "Dead Cells",
		Status:    compat.StatusPending,
		CreatedAt: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
	}
	g.Profile.IOS.Tested = true
	g.Profile.Set(compat.PlatformIOS, compat.ProtocolXInput, compat.ConnectivityWired)
	return g
}

// NewCatalog returns the approved fixture games in name order.
func NewCatalog() []compat.Game {
	return []compat.Game{
		NewGenshinImpact(),
		NewMarioKartTour(),
		NewPokemonGo(),
	}
}

// NewHybridPad supports HID on both links, XINPUT wired and DS4 over
// Bluetooth.
func NewHybridPad() compat.Controller {
	return compat.Controller{
		ID:           "5b1d9c3a-0000-4000-8000-000000000001",
		Name:         "Hybrid Pad",
		Manufacturer: "PadWorks",
		Capability: compat.ControllerCapability{
			Wired:     []compat.Protocol{compat.ProtocolHID, compat.ProtocolXInput, compat.ProtocolNS},
			Bluetooth: []compat.Protocol{compat.ProtocolHID, compat.ProtocolDS4},
		},
		CreatedAt: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

// NewTouchMapper only speaks G-TOUCH over Bluetooth.
func NewTouchMapper() compat.Controller {
	return compat.Controller{
		ID:           "5b1d9c3a-0000-4000-8000-000000000002",
		Name:         "Touch Mapper",
		Manufacturer: "Tapster",
		Capability: compat.ControllerCapability{
			Bluetooth: []compat.Protocol{compat.ProtocolGTouch},
		},
		CreatedAt: time.Date(2025, 2, 2, 9, 0, 0, 0, time.UTC),
	}
}

// NewControllers returns the fixture controllers in name order.
func NewControllers() []compat.Controller {
	return []compat.Controller{
		NewHybridPad(),
		NewTouchMapper(),
	}
}
