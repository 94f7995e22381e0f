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

// Package helpers provides test setup shared across packages.
package helpers

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
)

// TestEpoch is the start time of the fake clock used by test databases.
var TestEpoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// NewInMemoryCatalogDB opens a migrated catalog database in a temp directory.
// The returned clock drives every timestamp the database writes. The
// database is closed when the test ends.
func NewInMemoryCatalogDB(t *testing.T) (*catalogdb.CatalogDB, *clockwork.FakeClock) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog_test.db")

	// A file keeps the schema visible to every pooled connection, which an
	// in-memory database would not.
	sqlDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	clock := clockwork.NewFakeClockAt(TestEpoch)
	db := &catalogdb.CatalogDB{}
	if err := db.SetSQLForTesting(sqlDB, clock, true); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			t.Errorf("Failed to close SQL database after setup error: %v", closeErr)
		}
		t.Fatalf("Failed to set up CatalogDB for testing: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close CatalogDB: %v", err)
		}
	})

	return db, clock
}
