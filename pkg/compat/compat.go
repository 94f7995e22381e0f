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

// Package compat holds the controller compatibility data model and the
// resolver that decides which protocols a game and a controller can share.
package compat

import (
	"strings"
)

// Protocol is an input emulation standard a controller emits and a game may
// understand. Values outside the known set never match anything.
type Protocol string

const (
	ProtocolHID    Protocol = "HID"
	ProtocolXInput Protocol = "XINPUT"
	ProtocolDS4    Protocol = "DS4"
	ProtocolNS     Protocol = "NS"
	ProtocolGIP    Protocol = "GIP"
	ProtocolGTouch Protocol = "G-TOUCH"
)

// AllProtocols is the fixed protocol vocabulary in display order.
var AllProtocols = []Protocol{
	ProtocolHID,
	ProtocolXInput,
	ProtocolDS4,
	ProtocolNS,
	ProtocolGIP,
	ProtocolGTouch,
}

// Known reports whether p is part of the fixed vocabulary.
func (p Protocol) Known() bool {
	for _, known := range AllProtocols {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProtocol converts a user or storage label into a Protocol. Matching is
// case-insensitive and accepts "GTOUCH" as an alias for "G-TOUCH".
func ParseProtocol(s string) (Protocol, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if norm == "GTOUCH" || norm == "G_TOUCH" {
		norm = string(ProtocolGTouch)
	}
	p := Protocol(norm)
	if !p.Known() {
		return "", false
	}
	return p, true
}

// Connectivity is the connection mode a protocol is usable over.
type Connectivity string

const (
	ConnectivityWired     Connectivity = "WIRED"
	ConnectivityBluetooth Connectivity = "BLUETOOTH"
	ConnectivityBoth      Connectivity = "BOTH"
)

// Labels used by the submission forms and the stored catalog.
const (
	LabelWired        = "Wired/2.4GHz"
	LabelBluetooth    = "Bluetooth"
	LabelBoth         = "Wired/2.4GHz/Bluetooth"
	LabelNotSupported = "Not Supported"
)

// Valid reports whether c is one of the three connectivity modes.
func (c Connectivity) Valid() bool {
	switch c {
	case ConnectivityWired, ConnectivityBluetooth, ConnectivityBoth:
		return true
	default:
		return false
	}
}

// Merge combines two observations of the same protocol. Equal modes stay as
// they are; WIRED with BLUETOOTH, or anything with BOTH, yields BOTH.
func (c Connectivity) Merge(other Connectivity) Connectivity {
	if c == other {
		return c
	}
	if !c.Valid() {
		return other
	}
	if !other.Valid() {
		return c
	}
	return ConnectivityBoth
}

// Label returns the human readable form of c.
func (c Connectivity) Label() string {
	switch c {
	case ConnectivityWired:
		return LabelWired
	case ConnectivityBluetooth:
		return LabelBluetooth
	case ConnectivityBoth:
		return LabelBoth
	default:
		return ""
	}
}

// ParseConnectivity accepts either the enum name or the form label. The empty
// string and "Not Supported" both mean the protocol is absent and return
// false, as does anything unrecognised.
func ParseConnectivity(s string) (Connectivity, bool) {
	trimmed := strings.TrimSpace(s)
	switch {
	case trimmed == "", strings.EqualFold(trimmed, LabelNotSupported):
		return "", false
	case strings.EqualFold(trimmed, LabelBoth), strings.EqualFold(trimmed, string(ConnectivityBoth)):
		return ConnectivityBoth, true
	case strings.EqualFold(trimmed, LabelWired), strings.EqualFold(trimmed, string(ConnectivityWired)):
		return ConnectivityWired, true
	case strings.EqualFold(trimmed, LabelBluetooth), strings.EqualFold(trimmed, string(ConnectivityBluetooth)):
		return ConnectivityBluetooth, true
	default:
		return "", false
	}
}

// Platform is a mobile operating system a game was tested on.
type Platform string

const (
	PlatformAndroid Platform = "ANDROID"
	PlatformIOS     Platform = "IOS"
)

// Platforms lists platforms in resolution order. Android entries are seen
// first, so they decide the position of a protocol in the result.
var Platforms = []Platform{PlatformAndroid, PlatformIOS}

// ParsePlatform is case-insensitive.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(strings.ToUpper(strings.TrimSpace(s))) {
	case PlatformAndroid:
		return PlatformAndroid, true
	case PlatformIOS:
		return PlatformIOS, true
	default:
		return "", false
	}
}

// Label returns the display name of the platform.
func (p Platform) Label() string {
	switch p {
	case PlatformAndroid:
		return "Android"
	case PlatformIOS:
		return "iOS"
	default:
		return string(p)
	}
}
