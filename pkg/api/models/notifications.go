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

package models

import (
	"encoding/json"

	"github.com/padcompat/padcompat-core/pkg/compat"
)

const (
	NotificationGameSubmitted   = "games.submitted"
	NotificationGameApproved    = "games.approved"
	NotificationGameRejected    = "games.rejected"
	NotificationGameUpdated     = "games.updated"
	NotificationControllerAdded = "controllers.added"
)

// Notification is a catalog change pushed to moderators and publishers.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type GameNotification struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Status            compat.Status `json:"status"`
	By                string        `json:"by,omitempty"`
	Reason            string        `json:"reason,omitempty"`
	PossibleDuplicate string        `json:"possibleDuplicate,omitempty"`
}

type ControllerNotification struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer,omitempty"`
}
