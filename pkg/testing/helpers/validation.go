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

package helpers

import (
	"testing"

	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/stretchr/testify/require"
)

// AssertValidStoredGame checks the fields the catalog database must always
// populate on a game it returns.
func AssertValidStoredGame(t *testing.T, g *compat.Game) {
	t.Helper()

	require.NotNil(t, g, "game should not be nil")
	require.NotEmpty(t, g.ID, "game ID is required")
	require.NotEmpty(t, g.Name, "game name is required")
	require.False(t, g.CreatedAt.IsZero(), "game CreatedAt must be set")

	switch g.Status {
	case compat.StatusApproved:
		require.NotNil(t, g.ApprovedAt, "approved game must have ApprovedAt")
		require.NotEmpty(t, g.ApprovedBy, "approved game must have ApprovedBy")
	case compat.StatusPending:
		require.Nil(t, g.ApprovedAt, "pending game must not have ApprovedAt")
	case compat.StatusRejected:
		require.NotEmpty(t, g.ApprovedBy, "rejected game must record who rejected it")
	default:
		require.Failf(t, "unknown status", "status %q", g.Status)
	}
}
