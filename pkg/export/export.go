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

// Package export renders the approved catalog, the controller list and the
// contributor credits as CSV.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/padcompat/padcompat-core/pkg/compat"
)

const (
	dateLayout = "2006-01-02"
	none       = "None"
)

type GameRow struct {
	Name               string `csv:"Game Name"`
	Description        string `csv:"Description"`
	IGDBID             string `csv:"IGDB ID"`
	AndroidTested      string `csv:"Android Tested"`
	AndroidProtocols   string `csv:"Android Protocols"`
	IOSTested          string `csv:"iOS Tested"`
	IOSProtocols       string `csv:"iOS Protocols"`
	TestingControllers string `csv:"Testing Controllers"`
	TestingNotes       string `csv:"Testing Notes"`
	DiscordUsername    string `csv:"Discord Username"`
	ApprovedBy         string `csv:"Approved By"`
	ApprovedAt         string `csv:"Approved At"`
	CreatedAt          string `csv:"Created At"`
}

type ControllerRow struct {
	Name         string `csv:"Controller Name"`
	Manufacturer string `csv:"Manufacturer"`
	Wired        string `csv:"Wired/2.4GHz Protocols"`
	Bluetooth    string `csv:"Bluetooth Protocols"`
	All          string `csv:"All Supported Protocols"`
	CreatedAt    string `csv:"Created At"`
}

type CreditRow struct {
	DiscordName string `csv:"Discord Name"`
	Count       int    `csv:"Number of Games Contributed"`
	Games       string `csv:"List of Game Names Contributed"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orNone(items []string) string {
	if len(items) == 0 {
		return none
	}
	return strings.Join(items, ", ")
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// platformProtocols lists "PROTO (Label)" entries in vocabulary order. An
// untested platform lists nothing.
func platformProtocols(pp compat.PlatformProfile) []string {
	if !pp.Tested {
		return nil
	}
	out := make([]string, 0, len(pp.Protocols))
	for _, p := range compat.AllProtocols {
		conn, ok := pp.Protocols[p]
		if !ok || !conn.Valid() {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s)", p, conn.Label()))
	}
	return out
}

func protocolNames(list []compat.Protocol) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, string(p))
	}
	return out
}

// GameRows builds one row per approved game. controllers resolves testing
// controller IDs to names; unknown IDs are left out.
func GameRows(games []compat.Game, controllers []compat.Controller) []GameRow {
	names := make(map[string]string, len(controllers))
	for i := range controllers {
		names[controllers[i].ID] = controllers[i].Name
	}

	rows := make([]GameRow, 0, len(games))
	for i := range games {
		g := &games[i]
		if !g.IsApproved() {
			continue
		}

		testers := make([]string, 0, len(g.TestingControllerIDs))
		for _, id := range g.TestingControllerIDs {
			if name, ok := names[id]; ok {
				testers = append(testers, name)
			}
		}

		row := GameRow{
			Name:               g.Name,
			Description:        g.Description,
			AndroidTested:      yesNo(g.Profile.Android.Tested),
			AndroidProtocols:   orNone(platformProtocols(g.Profile.Android)),
			IOSTested:          yesNo(g.Profile.IOS.Tested),
			IOSProtocols:       orNone(platformProtocols(g.Profile.IOS)),
			TestingControllers: orNone(testers),
			TestingNotes:       g.TestingNotes,
			DiscordUsername:    g.DiscordUsername,
			ApprovedBy:         g.ApprovedBy,
			ApprovedAt:         formatDate(g.ApprovedAt),
			CreatedAt:          formatDate(&g.CreatedAt),
		}
		if g.IGDBID != nil {
			row.IGDBID = fmt.Sprint(*g.IGDBID)
		}
		rows = append(rows, row)
	}
	return rows
}

func ControllerRows(controllers []compat.Controller) []ControllerRow {
	rows := make([]ControllerRow, 0, len(controllers))
	for i := range controllers {
		c := &controllers[i]
		rows = append(rows, ControllerRow{
			Name:         c.Name,
			Manufacturer: c.Manufacturer,
			Wired:        orNone(protocolNames(c.Capability.Wired)),
			Bluetooth:    orNone(protocolNames(c.Capability.Bluetooth)),
			All:          orNone(protocolNames(c.Capability.Supported())),
			CreatedAt:    formatDate(&c.CreatedAt),
		})
	}
	return rows
}

// CreditRows counts approved games per contributor. A DiscordUsername may
// name several people separated by commas. Rows are ordered by count, most
// first; equal counts keep first-seen order.
func CreditRows(games []compat.Game) []CreditRow {
	index := make(map[string]int)
	rows := make([]CreditRow, 0)
	contributed := make([][]string, 0)

	for i := range games {
		g := &games[i]
		if !g.IsApproved() || g.DiscordUsername == "" {
			continue
		}
		for _, raw := range strings.Split(g.DiscordUsername, ",") {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			j, ok := index[name]
			if !ok {
				j = len(rows)
				index[name] = j
				rows = append(rows, CreditRow{DiscordName: name})
				contributed = append(contributed, nil)
			}
			contributed[j] = append(contributed[j], g.Name)
		}
	}

	for j := range rows {
		rows[j].Count = len(contributed[j])
		rows[j].Games = strings.Join(contributed[j], ", ")
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Count > rows[b].Count })
	return rows
}

func WriteGames(w io.Writer, games []compat.Game, controllers []compat.Controller) error {
	rows := GameRows(games, controllers)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write games csv: %w", err)
	}
	return nil
}

func WriteControllers(w io.Writer, controllers []compat.Controller) error {
	rows := ControllerRows(controllers)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write controllers csv: %w", err)
	}
	return nil
}

func WriteCredits(w io.Writer, games []compat.Game) error {
	rows := CreditRows(games)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write credits csv: %w", err)
	}
	return nil
}
