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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no username in path", input: "/usr/local/bin/padcompat", expected: "/usr/local/bin/padcompat"},
		{
			name:     "linux home path",
			input:    "/home/sam/.config/padcompat/catalog.db",
			expected: "/home/<user>/.config/padcompat/catalog.db",
		},
		{
			name:     "macos users path lowercase",
			input:    "/users/sam/Library/Application Support/padcompat/padcompat.toml",
			expected: "/Users/<user>/Library/Application Support/padcompat/padcompat.toml",
		},
		{
			name:     "windows path",
			input:    "D:\\Users\\admin\\AppData\\Roaming\\padcompat",
			expected: "C:\\Users\\<user>\\AppData\\Roaming\\padcompat",
		},
		{
			name:     "bearer token",
			input:    "request failed: Authorization: Bearer 1b2c3d4e",
			expected: "request failed: Authorization: Bearer <token>",
		},
		{
			name:     "multiple paths in message",
			input:    "copying /home/alice/src to /home/bob/dst",
			expected: "copying /home/<user>/src to /home/<user>/dst",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitize(tt.input))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "moderator-laptop",
		Message:    "failed to open /home/sam/catalog.db",
		User:       sentry.User{ID: "42", IPAddress: "192.0.2.10"},
		Request:    &sentry.Request{URL: "http://localhost/api/games"},
		Extra: map[string]any{
			"discord_username": "racer#1234",
			"path":             "/home/sam/x",
			"count":            3,
		},
		Exception: []sentry.Exception{{
			Value: "open /home/sam/catalog.db: denied",
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{
				{AbsPath: "/home/sam/src/padcompat/main.go", Filename: "main.go"},
			}},
		}},
	}

	got := sanitizeEvent(event)
	require.NotNil(t, got)

	assert.Empty(t, got.ServerName)
	assert.Equal(t, sentry.User{}, got.User)
	assert.Nil(t, got.Request)
	assert.Equal(t, "failed to open /home/<user>/catalog.db", got.Message)
	assert.Equal(t, "<redacted>", got.Extra["discord_username"])
	assert.Equal(t, "/home/<user>/x", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Equal(t, "open /home/<user>/catalog.db: denied", got.Exception[0].Value)
	assert.Equal(t, "/home/<user>/src/padcompat/main.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(false, Options{DSN: "https://key@sentry.example/1"}))
	assert.False(t, Enabled())

	// Safe when reporting never started.
	Close()
}
