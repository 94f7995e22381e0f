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

package service

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/padcompat/padcompat-core/pkg/helpers"
	"github.com/padcompat/padcompat-core/pkg/service/broker"
	"github.com/padcompat/padcompat-core/pkg/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testDirs(t *testing.T) helpers.Dirs {
	t.Helper()
	root := t.TempDir()
	dirs := helpers.Dirs{
		ConfigDir: root,
		DataDir:   filepath.Join(root, "data"),
		LogDir:    filepath.Join(root, "logs"),
	}
	require.NoError(t, helpers.EnsureDirectories(dirs))
	return dirs
}

func testConfig(t *testing.T, dirs helpers.Dirs, listen string) *config.Instance {
	t.Helper()
	data := []byte("config_schema = 1\n[service]\napi_listen = \"" + listen + "\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dirs.ConfigDir, config.CfgFile), data, 0o600))
	cfg, err := config.NewConfig(dirs.ConfigDir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func TestOpenCatalog_LoadsApprovedGames(t *testing.T) {
	t.Parallel()

	dirs := testDirs(t)
	cfg := testConfig(t, dirs, "127.0.0.1:0")
	ctx := context.Background()

	db, _, err := OpenCatalog(ctx, cfg, dirs, clockwork.NewRealClock())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dirs.DataDir, config.CatalogDBFile))

	g := fixtures.NewMarioKartTour()
	stored, err := db.AddGame(ctx, &g)
	require.NoError(t, err)
	require.NoError(t, db.ApproveGame(ctx, catalogdb.Approver{Name: "moderator"}, stored.ID))
	require.NoError(t, db.Close())

	db, p, err := OpenCatalog(ctx, cfg, dirs, clockwork.NewRealClock())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.Len(t, p.Snapshot().Games, 1)
	assert.Equal(t, "Mario Kart Tour", p.Snapshot().Games[0].Name)
}

func TestStart_StopsCleanly(t *testing.T) {
	t.Parallel()

	dirs := testDirs(t)
	cfg := testConfig(t, dirs, "127.0.0.1:0")

	stop, done, err := Start(cfg, dirs)
	require.NoError(t, err)

	select {
	case <-done:
		t.Fatal("service exited before stop")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, stop())
	select {
	case <-done:
	default:
		t.Fatal("done not closed after stop")
	}
}

func TestStart_PortInUse(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	dirs := testDirs(t)
	cfg := testConfig(t, dirs, listener.Addr().String())

	stop, done, err := Start(cfg, dirs)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("service did not exit on listen failure")
	}

	err = stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestStartPublishers_NoPublishers(t *testing.T) {
	t.Parallel()

	dirs := testDirs(t)
	cfg := testConfig(t, dirs, "127.0.0.1:0")
	b := broker.New()
	defer b.Close()

	assert.Empty(t, startPublishers(cfg, b))
	assert.Equal(t, 0, b.Len())
}

func TestStartPublishers_DisabledPublisher(t *testing.T) {
	t.Parallel()

	dirs := testDirs(t)
	data := []byte(`config_schema = 1

[[service.publishers.mqtt]]
enabled = false
broker = "localhost:1883"
topic = "padcompat/events"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dirs.ConfigDir, config.CfgFile), data, 0o600))
	cfg, err := config.NewConfig(dirs.ConfigDir, config.BaseDefaults)
	require.NoError(t, err)

	b := broker.New()
	defer b.Close()

	assert.Empty(t, startPublishers(cfg, b))
	assert.Equal(t, 0, b.Len(), "disabled publishers do not subscribe")
}
