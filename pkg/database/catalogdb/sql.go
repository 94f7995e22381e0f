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

package catalogdb

import (
	"cmp"
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run catalog database migrations: %w", err)
	}
	return nil
}

func sqlSchemaVersion(db *sql.DB) (int64, error) {
	v, err := database.SchemaVersion(db, migrationFiles)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog schema version: %w", err)
	}
	return v, nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func closeStmt(stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql statement")
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql rows")
	}
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Warn().Err(err).Msg("failed to roll back transaction")
	}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func insertProtocols(ctx context.Context, tx *sql.Tx, gameID string, profile *compat.GameProfile) error {
	stmt, err := tx.PrepareContext(ctx, `
		insert into GameProtocols(GameID, Platform, Protocol, Connectivity)
		values (?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare protocol insert statement: %w", err)
	}
	defer closeStmt(stmt)

	for _, platform := range compat.Platforms {
		for proto, conn := range profile.Platform(platform).Protocols {
			_, err := stmt.ExecContext(ctx, gameID, string(platform), string(proto), string(conn))
			if err != nil {
				return fmt.Errorf("failed to insert protocol %s for %s: %w", proto, platform, err)
			}
		}
	}
	return nil
}

func sqlInsertGame(ctx context.Context, db *sql.DB, g *compat.Game) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, `
		insert into Games(
			ID, Name, Description, ImageURL, IGDBID, Status, TestingNotes,
			DiscordUsername, AndroidTested, IOSTested, CreatedAt
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		g.ID,
		g.Name,
		g.Description,
		g.ImageURL,
		nullableInt(g.IGDBID),
		string(g.Status),
		g.TestingNotes,
		g.DiscordUsername,
		g.Profile.Android.Tested,
		g.Profile.IOS.Tested,
		g.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	if err := insertProtocols(ctx, tx, g.ID, &g.Profile); err != nil {
		return err
	}

	if len(g.TestingControllerIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			insert or ignore into GameTestingControllers(GameID, ControllerID) values (?, ?);
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare testing controller insert statement: %w", err)
		}
		defer closeStmt(stmt)
		for _, cid := range g.TestingControllerIDs {
			if _, err := stmt.ExecContext(ctx, g.ID, cid); err != nil {
				return fmt.Errorf("failed to link testing controller %s: %w", cid, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game insert: %w", err)
	}
	return nil
}

// sqlSelectGames loads games and their child rows. where is appended to
// each query against the Games table aliased as g.
func sqlSelectGames(ctx context.Context, db *sql.DB, where string, args ...any) ([]compat.Game, error) {
	rows, err := db.QueryContext(ctx, `
		select
		g.ID, g.Name, g.Description, g.ImageURL, g.IGDBID, g.Status, g.TestingNotes,
		g.DiscordUsername, g.ApprovedBy, g.RejectionReason, g.AndroidTested,
		g.IOSTested, g.CreatedAt, g.ApprovedAt
		from Games g
		`+where+`
		order by g.Name collate nocase, g.ID;
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer closeRows(rows)

	games := make([]compat.Game, 0, 32)
	index := make(map[string]int)
	for rows.Next() {
		var (
			g          compat.Game
			status     string
			igdbID     sql.NullInt64
			createdAt  int64
			approvedAt sql.NullInt64
		)
		err := rows.Scan(
			&g.ID,
			&g.Name,
			&g.Description,
			&g.ImageURL,
			&igdbID,
			&status,
			&g.TestingNotes,
			&g.DiscordUsername,
			&g.ApprovedBy,
			&g.RejectionReason,
			&g.Profile.Android.Tested,
			&g.Profile.IOS.Tested,
			&createdAt,
			&approvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		g.Status = compat.Status(status)
		g.CreatedAt = unixTime(createdAt)
		if igdbID.Valid {
			id := int(igdbID.Int64)
			g.IGDBID = &id
		}
		if approvedAt.Valid {
			t := unixTime(approvedAt.Int64)
			g.ApprovedAt = &t
		}
		index[g.ID] = len(games)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game rows: %w", err)
	}
	if len(games) == 0 {
		return games, nil
	}

	if err := sqlLoadGameProtocols(ctx, db, games, index, where, args...); err != nil {
		return nil, err
	}
	if err := sqlLoadTestingControllers(ctx, db, games, index, where, args...); err != nil {
		return nil, err
	}
	return games, nil
}

func sqlLoadGameProtocols(
	ctx context.Context,
	db *sql.DB,
	games []compat.Game,
	index map[string]int,
	where string,
	args ...any,
) error {
	rows, err := db.QueryContext(ctx, `
		select gp.GameID, gp.Platform, gp.Protocol, gp.Connectivity
		from GameProtocols gp
		join Games g on g.ID = gp.GameID
		`+where+`;
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query game protocols: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var gameID, platform, proto, conn string
		if err := rows.Scan(&gameID, &platform, &proto, &conn); err != nil {
			return fmt.Errorf("failed to scan game protocol row: %w", err)
		}
		i, ok := index[gameID]
		if !ok {
			continue
		}
		games[i].Profile.Set(compat.Platform(platform), compat.Protocol(proto), compat.Connectivity(conn))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate game protocol rows: %w", err)
	}
	return nil
}

func sqlLoadTestingControllers(
	ctx context.Context,
	db *sql.DB,
	games []compat.Game,
	index map[string]int,
	where string,
	args ...any,
) error {
	rows, err := db.QueryContext(ctx, `
		select t.GameID, t.ControllerID
		from GameTestingControllers t
		join Games g on g.ID = t.GameID
		`+where+`
		order by t.ControllerID;
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query testing controllers: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var gameID, controllerID string
		if err := rows.Scan(&gameID, &controllerID); err != nil {
			return fmt.Errorf("failed to scan testing controller row: %w", err)
		}
		if i, ok := index[gameID]; ok {
			games[i].TestingControllerIDs = append(games[i].TestingControllerIDs, controllerID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate testing controller rows: %w", err)
	}
	return nil
}

func sqlApproveGame(ctx context.Context, db *sql.DB, id, approver string, now int64) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `
		update Games
		set Status = 'approved', ApprovedBy = ?, ApprovedAt = ?, RejectionReason = ''
		where ID = ? and Status = 'pending';
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare approve statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, approver, now, id)
	if err != nil {
		return 0, fmt.Errorf("failed to approve game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func sqlRejectGame(ctx context.Context, db *sql.DB, id, approver, reason string) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `
		update Games
		set Status = 'rejected', ApprovedBy = ?, RejectionReason = ?
		where ID = ? and Status = 'pending';
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare reject statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, approver, reason, id)
	if err != nil {
		return 0, fmt.Errorf("failed to reject game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func sqlUpdateGameProfile(ctx context.Context, db *sql.DB, id string, profile *compat.GameProfile) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`update Games set AndroidTested = ?, IOSTested = ? where ID = ?;`,
		profile.Android.Tested, profile.IOS.Tested, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update tested flags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `delete from GameProtocols where GameID = ?;`, id); err != nil {
		return fmt.Errorf("failed to clear game protocols: %w", err)
	}
	if err := insertProtocols(ctx, tx, id, profile); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile update: %w", err)
	}
	return nil
}

func sqlApprovedIGDBIDs(ctx context.Context, db *sql.DB) ([]int, error) {
	rows, err := db.QueryContext(ctx, `
		select distinct IGDBID from Games
		where Status = 'approved' and IGDBID is not null
		order by IGDBID;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query igdb ids: %w", err)
	}
	defer closeRows(rows)

	ids := make([]int, 0, 16)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan igdb id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate igdb ids: %w", err)
	}
	return ids, nil
}

func sqlInsertController(ctx context.Context, db *sql.DB, c *compat.Controller) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, `
		insert into Controllers(ID, Name, Manufacturer, CreatedAt) values (?, ?, ?, ?);
	`, c.ID, c.Name, c.Manufacturer, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert controller: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		insert or ignore into ControllerProtocols(ControllerID, Mode, Protocol) values (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare controller protocol statement: %w", err)
	}
	defer closeStmt(stmt)

	modes := []struct {
		mode   compat.Connectivity
		protos []compat.Protocol
	}{
		{mode: compat.ConnectivityWired, protos: c.Capability.Wired},
		{mode: compat.ConnectivityBluetooth, protos: c.Capability.Bluetooth},
	}
	for _, m := range modes {
		for _, p := range m.protos {
			if _, err := stmt.ExecContext(ctx, c.ID, string(m.mode), string(p)); err != nil {
				return fmt.Errorf("failed to insert controller protocol %s: %w", p, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit controller insert: %w", err)
	}
	return nil
}

func sqlSelectControllers(ctx context.Context, db *sql.DB, where string, args ...any) ([]compat.Controller, error) {
	rows, err := db.QueryContext(ctx, `
		select c.ID, c.Name, c.Manufacturer, c.CreatedAt
		from Controllers c
		`+where+`
		order by c.Name collate nocase, c.ID;
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer closeRows(rows)

	controllers := make([]compat.Controller, 0, 16)
	index := make(map[string]int)
	for rows.Next() {
		var (
			c         compat.Controller
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Manufacturer, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}
		c.CreatedAt = unixTime(createdAt)
		index[c.ID] = len(controllers)
		controllers = append(controllers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate controller rows: %w", err)
	}
	if len(controllers) == 0 {
		return controllers, nil
	}

	protoRows, err := db.QueryContext(ctx, `
		select cp.ControllerID, cp.Mode, cp.Protocol
		from ControllerProtocols cp
		join Controllers c on c.ID = cp.ControllerID
		`+where+`;
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query controller protocols: %w", err)
	}
	defer closeRows(protoRows)

	for protoRows.Next() {
		var controllerID, mode, proto string
		if err := protoRows.Scan(&controllerID, &mode, &proto); err != nil {
			return nil, fmt.Errorf("failed to scan controller protocol row: %w", err)
		}
		i, ok := index[controllerID]
		if !ok {
			continue
		}
		capability := &controllers[i].Capability
		switch compat.Connectivity(mode) {
		case compat.ConnectivityWired:
			capability.Wired = append(capability.Wired, compat.Protocol(proto))
		case compat.ConnectivityBluetooth:
			capability.Bluetooth = append(capability.Bluetooth, compat.Protocol(proto))
		default:
			log.Warn().Str("controller", controllerID).Str("mode", mode).Msg("unknown controller mode")
		}
	}
	if err := protoRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate controller protocol rows: %w", err)
	}

	for i := range controllers {
		sortProtocols(controllers[i].Capability.Wired)
		sortProtocols(controllers[i].Capability.Bluetooth)
	}
	return controllers, nil
}

// sortProtocols orders a capability list by the protocol vocabulary.
func sortProtocols(list []compat.Protocol) {
	slices.SortStableFunc(list, func(a, b compat.Protocol) int {
		return cmp.Compare(protocolRank(a), protocolRank(b))
	})
}

func protocolRank(p compat.Protocol) int {
	if i := slices.Index(compat.AllProtocols, p); i >= 0 {
		return i
	}
	return len(compat.AllProtocols)
}

func sqlInsertApprover(ctx context.Context, db *sql.DB, name, tokenHash string, now int64) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into Approvers(Name, TokenHash, CreatedAt) values (?, ?, ?)
		on conflict(Name) do update set TokenHash = excluded.TokenHash;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare approver insert statement: %w", err)
	}
	defer closeStmt(stmt)

	if _, err := stmt.ExecContext(ctx, name, tokenHash, now); err != nil {
		return fmt.Errorf("failed to insert approver: %w", err)
	}
	return nil
}

func sqlSelectApprover(ctx context.Context, db *sql.DB, tokenHash string) (*Approver, error) {
	var a Approver
	err := db.QueryRowContext(ctx,
		`select Name from Approvers where TokenHash = ?;`, tokenHash,
	).Scan(&a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query approver: %w", err)
	}
	return &a, nil
}
