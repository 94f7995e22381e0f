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

// Package catalogdb stores the game catalog, the controller list and the
// people allowed to moderate submissions.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/padcompat/padcompat-core/pkg/compat"
)

var (
	ErrNullSQL        = errors.New("CatalogDB is not connected")
	ErrNotFound       = errors.New("record not found")
	ErrNotPending     = errors.New("game is not pending review")
	ErrNoApprover     = errors.New("approver is required")
	ErrInvalidProfile = errors.New("invalid protocol profile")
)

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_foreign_keys=ON"

// Approver is a moderator allowed to approve or reject submissions. It is
// resolved from a bearer token and passed explicitly to each moderation call.
type Approver struct {
	Name string `json:"name"`
}

type CatalogDB struct {
	sql   *sql.DB
	clock clockwork.Clock
	path  string
}

// Open opens or creates the catalog database at path and applies any
// pending migrations.
func Open(ctx context.Context, path string) (*CatalogDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	sqlInstance, err := sql.Open("sqlite3", path+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlInstance.PingContext(ctx); err != nil {
		_ = sqlInstance.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &CatalogDB{sql: sqlInstance, clock: clockwork.NewRealClock(), path: path}
	if err := db.MigrateUp(); err != nil {
		_ = sqlInstance.Close()
		return nil, err
	}
	return db, nil
}

func (db *CatalogDB) Path() string {
	return db.path
}

func (db *CatalogDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *CatalogDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *CatalogDB) SchemaVersion() (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlSchemaVersion(db.sql)
}

func (db *CatalogDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting injects a connection and clock for tests. When migrate
// is set the schema is created on the connection.
func (db *CatalogDB) SetSQLForTesting(sqlDB *sql.DB, clock clockwork.Clock, migrate bool) error {
	db.sql = sqlDB
	db.clock = clock
	if !migrate {
		return nil
	}
	return db.MigrateUp()
}

func (db *CatalogDB) now() int64 {
	if db.clock == nil {
		db.clock = clockwork.NewRealClock()
	}
	return db.clock.Now().Unix()
}

// AddGame stores a new submission. The ID, creation time and pending status
// are assigned here; any moderation fields on g are discarded.
func (db *CatalogDB) AddGame(ctx context.Context, g *compat.Game) (compat.Game, error) {
	if db.sql == nil {
		return compat.Game{}, ErrNullSQL
	}
	if err := validateProfile(&g.Profile); err != nil {
		return compat.Game{}, err
	}

	stored := *g
	stored.ID = uuid.NewString()
	stored.Status = compat.StatusPending
	stored.CreatedAt = unixTime(db.now())
	stored.ApprovedAt = nil
	stored.ApprovedBy = ""
	stored.RejectionReason = ""

	if err := sqlInsertGame(ctx, db.sql, &stored); err != nil {
		return compat.Game{}, err
	}
	return stored, nil
}

func (db *CatalogDB) GetGame(ctx context.Context, id string) (*compat.Game, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	games, err := sqlSelectGames(ctx, db.sql, "where g.ID = ?", id)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrNotFound
	}
	return &games[0], nil
}

// ListGames returns games with the given status ordered by name. An empty
// status lists every game.
func (db *CatalogDB) ListGames(ctx context.Context, status compat.Status) ([]compat.Game, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	if status == "" {
		return sqlSelectGames(ctx, db.sql, "")
	}
	return sqlSelectGames(ctx, db.sql, "where g.Status = ?", string(status))
}

// ApproveGame publishes a pending game on behalf of approver.
func (db *CatalogDB) ApproveGame(ctx context.Context, approver Approver, id string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if approver.Name == "" {
		return ErrNoApprover
	}
	n, err := sqlApproveGame(ctx, db.sql, id, approver.Name, db.now())
	if err != nil {
		return err
	}
	if n == 0 {
		return db.moderationMiss(ctx, id)
	}
	return nil
}

// RejectGame declines a pending game, keeping the reason for the submitter.
func (db *CatalogDB) RejectGame(ctx context.Context, approver Approver, id, reason string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if approver.Name == "" {
		return ErrNoApprover
	}
	n, err := sqlRejectGame(ctx, db.sql, id, approver.Name, reason)
	if err != nil {
		return err
	}
	if n == 0 {
		return db.moderationMiss(ctx, id)
	}
	return nil
}

func (db *CatalogDB) moderationMiss(ctx context.Context, id string) error {
	_, err := db.GetGame(ctx, id)
	if err != nil {
		return err
	}
	return ErrNotPending
}

// UpdateGameProfile replaces the protocol table and tested flags of a game.
func (db *CatalogDB) UpdateGameProfile(ctx context.Context, id string, profile *compat.GameProfile) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if err := validateProfile(profile); err != nil {
		return err
	}
	return sqlUpdateGameProfile(ctx, db.sql, id, profile)
}

// ApprovedIGDBIDs lists the IGDB IDs already linked to approved games.
func (db *CatalogDB) ApprovedIGDBIDs(ctx context.Context) ([]int, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlApprovedIGDBIDs(ctx, db.sql)
}

// AddController stores a controller with a new ID.
func (db *CatalogDB) AddController(ctx context.Context, c *compat.Controller) (compat.Controller, error) {
	if db.sql == nil {
		return compat.Controller{}, ErrNullSQL
	}
	for _, p := range c.Capability.Wired {
		if !p.Known() {
			return compat.Controller{}, fmt.Errorf("%w: unknown protocol %q", ErrInvalidProfile, p)
		}
	}
	for _, p := range c.Capability.Bluetooth {
		if !p.Known() {
			return compat.Controller{}, fmt.Errorf("%w: unknown protocol %q", ErrInvalidProfile, p)
		}
	}

	stored := *c
	stored.ID = uuid.NewString()
	stored.CreatedAt = unixTime(db.now())
	if err := sqlInsertController(ctx, db.sql, &stored); err != nil {
		return compat.Controller{}, err
	}
	return stored, nil
}

func (db *CatalogDB) GetController(ctx context.Context, id string) (*compat.Controller, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	controllers, err := sqlSelectControllers(ctx, db.sql, "where c.ID = ?", id)
	if err != nil {
		return nil, err
	}
	if len(controllers) == 0 {
		return nil, ErrNotFound
	}
	return &controllers[0], nil
}

// ListControllers returns every controller ordered by name.
func (db *CatalogDB) ListControllers(ctx context.Context) ([]compat.Controller, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlSelectControllers(ctx, db.sql, "")
}

// AddApprover registers a moderator. Only a hash of the token is stored.
func (db *CatalogDB) AddApprover(ctx context.Context, name, token string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if name == "" || token == "" {
		return errors.New("approver name and token are required")
	}
	return sqlInsertApprover(ctx, db.sql, name, hashToken(token), db.now())
}

// ApproverByToken resolves a bearer token to its approver.
func (db *CatalogDB) ApproverByToken(ctx context.Context, token string) (*Approver, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	if token == "" {
		return nil, ErrNotFound
	}
	return sqlSelectApprover(ctx, db.sql, hashToken(token))
}

func validateProfile(profile *compat.GameProfile) error {
	for _, platform := range compat.Platforms {
		for proto, conn := range profile.Platform(platform).Protocols {
			if !proto.Known() {
				return fmt.Errorf("%w: unknown protocol %q", ErrInvalidProfile, proto)
			}
			if !conn.Valid() {
				return fmt.Errorf("%w: invalid connectivity %q for %s", ErrInvalidProfile, conn, proto)
			}
		}
	}
	return nil
}
