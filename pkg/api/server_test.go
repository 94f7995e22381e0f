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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	apimiddleware "github.com/padcompat/padcompat-core/pkg/api/middleware"
	"github.com/padcompat/padcompat-core/pkg/api/models"
	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/padcompat/padcompat-core/pkg/lookup/igdb"
	"github.com/padcompat/padcompat-core/pkg/service/broker"
	"github.com/padcompat/padcompat-core/pkg/service/pool"
	"github.com/padcompat/padcompat-core/pkg/testing/fixtures"
	"github.com/padcompat/padcompat-core/pkg/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const approverToken = "mod-token"

type fakeLookup struct {
	err     error
	query   string
	exclude []int
}

func (f *fakeLookup) Search(_ context.Context, query string, exclude []int) ([]igdb.Result, error) {
	f.query = query
	f.exclude = exclude
	if f.err != nil {
		return nil, f.err
	}
	return []igdb.Result{{ID: 42, Name: "Asphalt 9"}}, nil
}

type testEnv struct {
	db          *catalogdb.CatalogDB
	broker      *broker.Broker
	pool        *pool.Pool
	server      *Server
	handler     http.Handler
	clock       *clockwork.FakeClock
	controllers map[string]compat.Controller
	games       map[string]compat.Game
}

func newTestEnv(t *testing.T, lookup Lookup) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, clock := helpers.NewInMemoryCatalogDB(t)
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	env := &testEnv{
		db:          db,
		broker:      broker.New(),
		clock:       clock,
		controllers: make(map[string]compat.Controller),
		games:       make(map[string]compat.Game),
	}

	for _, c := range fixtures.NewControllers() {
		stored, err := db.AddController(ctx, &c)
		require.NoError(t, err)
		env.controllers[stored.Name] = stored
	}

	require.NoError(t, db.AddApprover(ctx, "moderator", approverToken))
	for _, g := range fixtures.NewCatalog() {
		stored, err := db.AddGame(ctx, &g)
		require.NoError(t, err)
		require.NoError(t, db.ApproveGame(ctx, catalogdb.Approver{Name: "moderator"}, stored.ID))
		env.games[stored.Name] = stored
	}
	pending := fixtures.NewPendingSubmission()
	stored, err := db.AddGame(ctx, &pending)
	require.NoError(t, err)
	env.games[stored.Name] = stored

	env.pool = pool.New(db, clock, config.DefaultDuplicateThreshold)
	require.NoError(t, env.pool.Refresh(ctx))

	opts := Options{
		Config: cfg,
		DB:     db,
		Pool:   env.pool,
		Lookup: lookup,
		Clock:  clock,
		Broker: env.broker,
		Limiter: apimiddleware.NewIPRateLimiter(
			clock,
			apimiddleware.SubmissionsPerMinute,
			apimiddleware.SubmissionBurst,
		),
	}
	t.Cleanup(env.broker.Close)
	env.server = NewServer(opts)
	t.Cleanup(env.server.closeEvents)
	env.handler = env.server.Router()
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSearch_BrowseView(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/games?q=mario", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[models.SearchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Mario Kart Tour", resp.Results[0].Game.Name)
	assert.False(t, resp.Results[0].Controlled)
	assert.Equal(t, "no-cache, no-store, no-transform, must-revalidate, private, max-age=0",
		rec.Header().Get("Cache-Control"))
}

func TestSearch_ExcludesPendingGames(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/games?q=dead", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.SearchResponse](t, rec).Results)
}

func TestSearch_WithController(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	pad := env.controllers["Hybrid Pad"]
	rec := env.do(t, http.MethodGet, "/api/games?q=mario&controller="+pad.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[models.SearchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Controlled)
	assert.Contains(t, resp.Results[0].Compatibility.Protocols,
		compat.ProtocolSupport{Protocol: compat.ProtocolHID, Connectivity: compat.ConnectivityBoth})
}

func TestSearch_UnknownController(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/games?controller=missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	notifications, _ := env.broker.Subscribe(10)

	next := func() (string, models.GameNotification) {
		t.Helper()
		select {
		case notif := <-notifications:
			var params models.GameNotification
			require.NoError(t, json.Unmarshal(notif.Params, &params))
			return notif.Method, params
		default:
			require.FailNow(t, "expected a notification")
			return "", models.GameNotification{}
		}
	}

	rec := env.do(t, http.MethodPost, "/api/games", `{"name":"Mario Kart Tours"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[models.AddGameResponse](t, rec).Game.ID

	method, params := next()
	assert.Equal(t, models.NotificationGameSubmitted, method)
	assert.Equal(t, id, params.ID)
	assert.Equal(t, compat.StatusPending, params.Status)
	assert.Equal(t, "Mario Kart Tour", params.PossibleDuplicate)

	rec = env.do(t, http.MethodPost, "/api/admin/games/"+id+"/approve", "", approverToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	method, params = next()
	assert.Equal(t, models.NotificationGameApproved, method)
	assert.Equal(t, compat.StatusApproved, params.Status)
	assert.Equal(t, "moderator", params.By)

	pending := env.games["Dead Cells"]
	rec = env.do(t, http.MethodPost, "/api/admin/games/"+pending.ID+"/reject", `{"reason":" spam "}`, approverToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	method, params = next()
	assert.Equal(t, models.NotificationGameRejected, method)
	assert.Equal(t, "spam", params.Reason)

	// Failed moderation publishes nothing.
	rec = env.do(t, http.MethodPost, "/api/admin/games/"+pending.ID+"/approve", "", approverToken)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, notifications)
}

func TestSimilar(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/games/similar?name=Mario+Kart+Tours", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.SimilarResponse](t, rec)
	require.NotNil(t, resp.Match)
	assert.Equal(t, "Mario Kart Tour", resp.Match.Game.Name)

	rec = env.do(t, http.MethodGet, "/api/games/similar?name=Chess", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[models.SimilarResponse](t, rec).Match)

	rec = env.do(t, http.MethodGet, "/api/games/similar?name=++", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddGame_StoresPendingSubmission(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	pad := env.controllers["Hybrid Pad"]
	body := `{
		"name": "  Mario Kart Tours ",
		"discordUsername": "racer",
		"testingControllerIds": ["` + pad.ID + `"],
		"android": {"tested": true, "protocols": {"hid": "Wired/2.4GHz", "XINPUT": "Not Supported"}},
		"ios": {"tested": false, "protocols": {"DS4": ""}}
	}`
	rec := env.do(t, http.MethodPost, "/api/games", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[models.AddGameResponse](t, rec)
	assert.Equal(t, "Mario Kart Tours", resp.Game.Name)
	assert.Equal(t, compat.StatusPending, resp.Game.Status)
	require.NotNil(t, resp.Duplicate)
	assert.Equal(t, "Mario Kart Tour", resp.Duplicate.Game.Name)

	stored, err := env.db.GetGame(context.Background(), resp.Game.ID)
	require.NoError(t, err)
	helpers.AssertValidStoredGame(t, stored)
	assert.Equal(t, map[compat.Protocol]compat.Connectivity{
		compat.ProtocolHID: compat.ConnectivityWired,
	}, stored.Profile.Android.Protocols)
	assert.Empty(t, stored.Profile.IOS.Protocols)
	assert.Equal(t, []string{pad.ID}, stored.TestingControllerIDs)

	// Pending games stay out of public search.
	rec = env.do(t, http.MethodGet, "/api/games?q=mario", "", "")
	assert.Len(t, decode[models.SearchResponse](t, rec).Results, 1)
}

func TestAddGame_NormalizesName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	// Decomposed e plus combining acute accent.
	rec := env.do(t, http.MethodPost, "/api/games", `{"name": "Poke\u0301mon Unite"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Pok\u00e9mon Unite", decode[models.AddGameResponse](t, rec).Game.Name)
}

func TestAddGame_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
		wantCode  int
	}{
		{name: "empty body", body: "", wantCode: http.StatusBadRequest},
		{name: "malformed", body: `{"name":`, wantCode: http.StatusBadRequest},
		{name: "unknown field", body: `{"name":"X","rating":5}`, wantCode: http.StatusBadRequest},
		{name: "blank name", body: `{"name":"   "}`, wantCode: http.StatusBadRequest, wantField: "name"},
		{
			name:      "unknown protocol",
			body:      `{"name":"X","android":{"protocols":{"PS9":"Bluetooth"}}}`,
			wantCode:  http.StatusBadRequest,
			wantField: "protocols",
		},
		{
			name:      "bad connectivity",
			body:      `{"name":"X","ios":{"protocols":{"HID":"USB-C"}}}`,
			wantCode:  http.StatusBadRequest,
			wantField: "protocols",
		},
		{
			name:     "unknown testing controller",
			body:     `{"name":"X","testingControllerIds":["7f0e8c1a-0000-4000-8000-00000000abcd"]}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)

			rec := env.do(t, http.MethodPost, "/api/games", tt.body, "")
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			resp := decode[models.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			if tt.wantField != "" {
				assert.Contains(t, resp.Error, tt.wantField)
				assert.NotNil(t, resp.Fields)
			}

			games, err := env.db.ListGames(context.Background(), compat.StatusPending)
			require.NoError(t, err)
			assert.Len(t, games, 1)
		})
	}
}

func TestAddGame_RateLimited(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	codes := make([]int, 0, apimiddleware.SubmissionBurst+1)
	for i := 0; i < apimiddleware.SubmissionBurst+1; i++ {
		rec := env.do(t, http.MethodPost, "/api/games", `{"name":"Spam"}`, "")
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusCreated, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
}

func TestControllers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/controllers", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.ControllersResponse](t, rec)
	require.Len(t, resp.Controllers, 2)
	assert.Equal(t, "Hybrid Pad", resp.Controllers[0].Name)
}

func TestAddController_RequiresApprover(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	body := `{"name":"Arcade Stick","manufacturer":"Sticks Inc","wiredProtocols":["xinput","XINPUT"],"bluetoothProtocols":["gtouch"]}`
	rec := env.do(t, http.MethodPost, "/api/controllers", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/controllers", body, approverToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[compat.Controller](t, rec)
	assert.Equal(t, []compat.Protocol{compat.ProtocolXInput}, created.Capability.Wired)
	assert.Equal(t, []compat.Protocol{compat.ProtocolGTouch}, created.Capability.Bluetooth)

	// The pool is refreshed so the new controller is searchable at once.
	rec = env.do(t, http.MethodGet, "/api/games?controller="+created.ID, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_ListApproveReject(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	pending := env.games["Dead Cells"]

	rec := env.do(t, http.MethodGet, "/api/admin/games", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/games", "", approverToken)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[models.GamesResponse](t, rec)
	require.Len(t, list.Games, 1)
	assert.Equal(t, pending.ID, list.Games[0].ID)

	rec = env.do(t, http.MethodGet, "/api/admin/games?status=all", "", approverToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.GamesResponse](t, rec).Games, 4)

	rec = env.do(t, http.MethodGet, "/api/admin/games?status=archived", "", approverToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/games/"+pending.ID+"/approve", "", approverToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[compat.Game](t, rec)
	assert.Equal(t, compat.StatusApproved, approved.Status)
	assert.Equal(t, "moderator", approved.ApprovedBy)

	// Approval refreshes the pool.
	rec = env.do(t, http.MethodGet, "/api/games?q=dead", "", "")
	assert.Len(t, decode[models.SearchResponse](t, rec).Results, 1)

	rec = env.do(t, http.MethodPost, "/api/admin/games/"+pending.ID+"/reject", `{"reason":"dup"}`, approverToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/games/missing/approve", "", approverToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Reject(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	pending := env.games["Dead Cells"]

	rec := env.do(t, http.MethodPost, "/api/admin/games/"+pending.ID+"/reject",
		`{"reason":"  Duplicate of an existing entry "}`, approverToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rejected := decode[compat.Game](t, rec)
	assert.Equal(t, compat.StatusRejected, rejected.Status)
	assert.Equal(t, "Duplicate of an existing entry", rejected.RejectionReason)
}

func TestAdmin_RejectWithoutBody(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	pending := env.games["Dead Cells"]

	rec := env.do(t, http.MethodPost, "/api/admin/games/"+pending.ID+"/reject", "", approverToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, compat.StatusRejected, decode[compat.Game](t, rec).Status)
}

func TestAdmin_UpdateProfile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	mario := env.games["Mario Kart Tour"]
	body := `{"android":{"tested":true,"protocols":{"GIP":"wired"}},"ios":{"tested":false}}`

	rec := env.do(t, http.MethodPut, "/api/admin/games/"+mario.ID+"/profile", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/admin/games/"+mario.ID+"/profile", body, approverToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[compat.Game](t, rec)
	assert.False(t, updated.Profile.IOS.Tested)
	assert.Equal(t, map[compat.Protocol]compat.Connectivity{
		compat.ProtocolGIP: compat.ConnectivityWired,
	}, updated.Profile.Android.Protocols)

	// The pool is refreshed so search reflects the edit.
	rec = env.do(t, http.MethodGet, "/api/games?q=mario", "", "")
	resp := decode[models.SearchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []compat.ProtocolSupport{
		{Protocol: compat.ProtocolGIP, Connectivity: compat.ConnectivityWired},
	}, resp.Results[0].Compatibility.Protocols)

	rec = env.do(t, http.MethodPut, "/api/admin/games/missing/profile", body, approverToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/admin/games/"+mario.ID+"/profile",
		`{"ios":{"protocols":{"PS9":"Bluetooth"}}}`, approverToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	tests := []struct {
		path       string
		filename   string
		wantHeader string
		wantRows   int
	}{
		{path: "/api/export/games.csv", filename: "padcompat-games-2026-01-15.csv", wantRows: 3},
		{path: "/api/export/controllers.csv", filename: "padcompat-controllers-2026-01-15.csv", wantRows: 2},
		{
			path:       "/api/export/credits.csv",
			filename:   "padcompat-credits-2026-01-15.csv",
			wantHeader: "Discord Name,Number of Games Contributed,List of Game Names Contributed",
			wantRows:   1,
		},
	}

	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, tt.path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.filename)

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, tt.wantRows+1, tt.path)
		if tt.wantHeader != "" {
			assert.Equal(t, tt.wantHeader, lines[0])
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodGet, "/api/lookup?q=asphalt", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("excludes linked games", func(t *testing.T) {
		t.Parallel()
		lookup := &fakeLookup{}
		env := newTestEnv(t, lookup)

		igdbID := 1234
		g := fixtures.NewPendingSubmission()
		g.Name = "Linked"
		g.IGDBID = &igdbID
		stored, err := env.db.AddGame(context.Background(), &g)
		require.NoError(t, err)
		require.NoError(t, env.db.ApproveGame(context.Background(), catalogdb.Approver{Name: "m"}, stored.ID))

		rec := env.do(t, http.MethodGet, "/api/lookup?q=asphalt", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[models.LookupResponse](t, rec)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, 42, resp.Results[0].ID)
		assert.Equal(t, "asphalt", lookup.query)
		assert.Equal(t, []int{igdbID}, lookup.exclude)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &fakeLookup{err: igdb.ErrMissingCredentials})
		rec := env.do(t, http.MethodGet, "/api/lookup?q=asphalt", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, &fakeLookup{err: errors.New("boom")})
		rec := env.do(t, http.MethodGet, "/api/lookup?q=asphalt", "", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", resp["status"])
	assert.InDelta(t, 3, resp["games"], 0)
}
