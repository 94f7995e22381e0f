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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProtocol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   Protocol
		wantOK bool
	}{
		{input: "HID", want: ProtocolHID, wantOK: true},
		{input: "xinput", want: ProtocolXInput, wantOK: true},
		{input: " ds4 ", want: ProtocolDS4, wantOK: true},
		{input: "NS", want: ProtocolNS, wantOK: true},
		{input: "gip", want: ProtocolGIP, wantOK: true},
		{input: "G-TOUCH", want: ProtocolGTouch, wantOK: true},
		{input: "gtouch", want: ProtocolGTouch, wantOK: true},
		{input: "", wantOK: false},
		{input: "SNES", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseProtocol(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConnectivity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   Connectivity
		wantOK bool
	}{
		{input: "Wired/2.4GHz", want: ConnectivityWired, wantOK: true},
		{input: "Bluetooth", want: ConnectivityBluetooth, wantOK: true},
		{input: "Wired/2.4GHz/Bluetooth", want: ConnectivityBoth, wantOK: true},
		{input: "wired", want: ConnectivityWired, wantOK: true},
		{input: "BOTH", want: ConnectivityBoth, wantOK: true},
		{input: "Not Supported", wantOK: false},
		{input: "", wantOK: false},
		{input: "USB", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseConnectivity(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectivityMerge(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ConnectivityWired, ConnectivityWired.Merge(ConnectivityWired))
	assert.Equal(t, ConnectivityBoth, ConnectivityWired.Merge(ConnectivityBluetooth))
	assert.Equal(t, ConnectivityBoth, ConnectivityBluetooth.Merge(ConnectivityWired))
	assert.Equal(t, ConnectivityBoth, ConnectivityBoth.Merge(ConnectivityWired))
	assert.Equal(t, ConnectivityBoth, ConnectivityBluetooth.Merge(ConnectivityBoth))
	assert.Equal(t, ConnectivityWired, Connectivity("").Merge(ConnectivityWired))
}

func TestConnectivityLabelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range []Connectivity{ConnectivityWired, ConnectivityBluetooth, ConnectivityBoth} {
		got, ok := ParseConnectivity(c.Label())
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
}

func TestControllerCapability(t *testing.T) {
	t.Parallel()

	cc := ControllerCapability{
		Wired:     []Protocol{ProtocolXInput, ProtocolHID},
		Bluetooth: []Protocol{ProtocolHID, Protocol("BOGUS")},
	}

	assert.True(t, cc.SupportsWired(ProtocolHID))
	assert.True(t, cc.SupportsBluetooth(ProtocolHID))
	assert.False(t, cc.SupportsBluetooth(ProtocolXInput))
	assert.False(t, cc.SupportsBluetooth(Protocol("BOGUS")))
	assert.Equal(t, []Protocol{ProtocolHID, ProtocolXInput}, cc.Supported())
}

func TestGameProfileSet(t *testing.T) {
	t.Parallel()

	var gp GameProfile
	gp.Set(PlatformIOS, ProtocolNS, ConnectivityBoth)
	gp.Set(Platform("WINDOWS"), ProtocolNS, ConnectivityBoth)

	assert.False(t, gp.IOS.Tested)
	assert.Equal(t, ConnectivityBoth, gp.Platform(PlatformIOS).Protocols[ProtocolNS])
	assert.Nil(t, gp.Android.Protocols)
	assert.Empty(t, gp.Platform(Platform("WINDOWS")).Protocols)
}
