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

// ProtocolSupport is one protocol together with the connectivity it is usable
// over.
type ProtocolSupport struct {
	Protocol     Protocol     `json:"protocol"`
	Connectivity Connectivity `json:"connectivity"`
}

// Result is the outcome of resolving a game against a controller.
type Result struct {
	Protocols         []ProtocolSupport `json:"supportedProtocols"`
	ConnectivityModes []Connectivity    `json:"connectivityModes"`
	Supported         bool              `json:"isSupported"`
}

// Has reports whether p is part of the result.
func (r *Result) Has(p Protocol) bool {
	for _, ps := range r.Protocols {
		if ps.Protocol == p {
			return true
		}
	}
	return false
}

// OnlyVia reports whether p is the single protocol that makes the pair
// playable, e.g. a game that only works through G-TOUCH.
func (r *Result) OnlyVia(p Protocol) bool {
	return len(r.Protocols) == 1 && r.Protocols[0].Protocol == p
}

// supportSet accumulates protocol entries keyed by protocol while keeping
// first insertion order.
type supportSet struct {
	index map[Protocol]int
	items []ProtocolSupport
}

func newSupportSet() *supportSet {
	return &supportSet{index: make(map[Protocol]int)}
}

// merge inserts a new protocol or folds a further observation of an existing
// one into it with Connectivity.Merge, so the entry can only move up to BOTH.
func (s *supportSet) merge(p Protocol, conn Connectivity) {
	i, ok := s.index[p]
	if !ok {
		s.index[p] = len(s.items)
		s.items = append(s.items, ProtocolSupport{Protocol: p, Connectivity: conn})
		return
	}
	s.items[i].Connectivity = s.items[i].Connectivity.Merge(conn)
}

func (s *supportSet) list() []ProtocolSupport {
	out := make([]ProtocolSupport, len(s.items))
	copy(out, s.items)
	return out
}

// declaredEntries walks the tested platforms in order and yields every known
// protocol with a valid declared connectivity. Protocols are visited in
// vocabulary order so results never depend on map iteration.
func declaredEntries(profile *GameProfile, fn func(Protocol, Connectivity)) {
	for _, platform := range Platforms {
		pp := profile.Platform(platform)
		if !pp.Tested || len(pp.Protocols) == 0 {
			continue
		}
		for _, proto := range AllProtocols {
			conn, ok := pp.Protocols[proto]
			if !ok || !conn.Valid() {
				continue
			}
			fn(proto, conn)
		}
	}
}

// achievable returns the connectivity a controller can actually provide for
// a declared requirement. A BOTH requirement needs both links; there is no
// partial credit.
func achievable(declared Connectivity, wired, bluetooth bool) (Connectivity, bool) {
	switch declared {
	case ConnectivityBoth:
		if wired && bluetooth {
			return ConnectivityBoth, true
		}
	case ConnectivityWired:
		if wired {
			return ConnectivityWired, true
		}
	case ConnectivityBluetooth:
		if bluetooth {
			return ConnectivityBluetooth, true
		}
	}
	return "", false
}

// Resolve computes the protocols a game and controller can use together.
// Untested platforms contribute nothing, and a protocol appears at most once
// even when both platforms declare it.
//
//nolint:gocritic // profile and capability are read-only values
func Resolve(profile GameProfile, capability ControllerCapability) Result {
	set := newSupportSet()
	declaredEntries(&profile, func(proto Protocol, declared Connectivity) {
		conn, ok := achievable(
			declared,
			capability.SupportsWired(proto),
			capability.SupportsBluetooth(proto),
		)
		if !ok {
			return
		}
		set.merge(proto, conn)
	})
	return newResult(set.list())
}

// Declared returns the raw protocol table of a game, merged across tested
// platforms with the same upgrade rule as Resolve but without any controller
// gating.
//
//nolint:gocritic // profile is a read-only value
func Declared(profile GameProfile) []ProtocolSupport {
	set := newSupportSet()
	declaredEntries(&profile, set.merge)
	return set.list()
}

func newResult(protocols []ProtocolSupport) Result {
	return Result{
		Protocols:         protocols,
		Supported:         len(protocols) > 0,
		ConnectivityModes: distinctModes(protocols),
	}
}

func distinctModes(protocols []ProtocolSupport) []Connectivity {
	modes := make([]Connectivity, 0, 3)
	seen := make(map[Connectivity]struct{}, 3)
	for _, ps := range protocols {
		if _, ok := seen[ps.Connectivity]; ok {
			continue
		}
		seen[ps.Connectivity] = struct{}{}
		modes = append(modes, ps.Connectivity)
	}
	return modes
}
