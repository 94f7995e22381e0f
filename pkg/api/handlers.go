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
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	apimiddleware "github.com/padcompat/padcompat-core/pkg/api/middleware"
	"github.com/padcompat/padcompat-core/pkg/api/models"
	"github.com/padcompat/padcompat-core/pkg/api/validation"
	"github.com/padcompat/padcompat-core/pkg/compat"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/padcompat/padcompat-core/pkg/export"
	"github.com/padcompat/padcompat-core/pkg/lookup/igdb"
	"github.com/padcompat/padcompat-core/pkg/service/pool"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.pool.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"loadedAt":    snap.LoadedAt,
		"games":       len(snap.Games),
		"controllers": len(snap.Controllers),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	controllerID := strings.TrimSpace(r.URL.Query().Get("controller"))

	results, err := s.pool.Search(query, controllerID)
	if errors.Is(err, pool.ErrUnknownController) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	} else if err != nil {
		log.Error().Err(err).Msg("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{
		LoadedAt: s.pool.Snapshot().LoadedAt,
		Results:  results,
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	name := normalizeName(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	writeJSON(w, http.StatusOK, models.SimilarResponse{Match: s.pool.FindSimilar(name)})
}

func (s *Server) handleAddGame(w http.ResponseWriter, r *http.Request) {
	var params models.AddGameParams
	if !decodeParams(w, r, &params) {
		return
	}

	for _, id := range params.TestingControllerIDs {
		_, err := s.db.GetController(r.Context(), id)
		if errors.Is(err, catalogdb.ErrNotFound) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown testing controller: %s", id))
			return
		} else if err != nil {
			log.Error().Err(err).Msg("failed to look up testing controller")
			writeError(w, http.StatusInternalServerError, "failed to store submission")
			return
		}
	}

	game := gameFromParams(&params)
	duplicate := s.pool.FindSimilar(game.Name)

	stored, err := s.db.AddGame(r.Context(), &game)
	if errors.Is(err, catalogdb.ErrInvalidProfile) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		log.Error().Err(err).Msg("failed to store submission")
		writeError(w, http.StatusInternalServerError, "failed to store submission")
		return
	}

	log.Info().
		Str("id", stored.ID).
		Str("name", stored.Name).
		Bool("possible_duplicate", duplicate != nil).
		Msg("game submitted for review")

	s.metrics.submission(duplicate != nil)
	notif := models.GameNotification{ID: stored.ID, Name: stored.Name, Status: stored.Status}
	if duplicate != nil {
		notif.PossibleDuplicate = duplicate.Game.Name
	}
	s.notify(models.NotificationGameSubmitted, notif)

	writeJSON(w, http.StatusCreated, models.AddGameResponse{Duplicate: duplicate, Game: stored})
}

func (s *Server) handleControllers(w http.ResponseWriter, _ *http.Request) {
	controllers := s.pool.Snapshot().Controllers
	if controllers == nil {
		controllers = []compat.Controller{}
	}
	writeJSON(w, http.StatusOK, models.ControllersResponse{Controllers: controllers})
}

func (s *Server) handleAddController(w http.ResponseWriter, r *http.Request) {
	var params models.AddControllerParams
	if !decodeParams(w, r, &params) {
		return
	}

	c := compat.Controller{
		Name:         normalizeName(params.Name),
		Manufacturer: strings.TrimSpace(params.Manufacturer),
		Capability: compat.ControllerCapability{
			Wired:     parseProtocols(params.Wired),
			Bluetooth: parseProtocols(params.Bluetooth),
		},
	}

	stored, err := s.db.AddController(r.Context(), &c)
	if errors.Is(err, catalogdb.ErrInvalidProfile) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		log.Error().Err(err).Msg("failed to store controller")
		writeError(w, http.StatusInternalServerError, "failed to store controller")
		return
	}

	approver, _ := apimiddleware.ApproverFromContext(r.Context())
	log.Info().Str("id", stored.ID).Str("name", stored.Name).Str("by", approver.Name).Msg("controller added")

	s.notify(models.NotificationControllerAdded, models.ControllerNotification{
		ID:           stored.ID,
		Name:         stored.Name,
		Manufacturer: stored.Manufacturer,
	})
	s.refreshPool(r.Context())
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if s.lookup == nil {
		writeError(w, http.StatusServiceUnavailable, "game lookup is not enabled")
		return
	}

	exclude, err := s.db.ApprovedIGDBIDs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load linked IGDB ids")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	results, err := s.lookup.Search(r.Context(), r.URL.Query().Get("q"), exclude)
	if errors.Is(err, igdb.ErrMissingCredentials) {
		writeError(w, http.StatusServiceUnavailable, "game lookup is not configured")
		return
	} else if err != nil {
		log.Warn().Err(err).Msg("game lookup failed")
		writeError(w, http.StatusBadGateway, "lookup failed")
		return
	}
	if results == nil {
		results = []igdb.Result{}
	}

	writeJSON(w, http.StatusOK, models.LookupResponse{Results: results})
}

func (s *Server) handleAdminGames(w http.ResponseWriter, r *http.Request) {
	status := compat.Status(strings.ToLower(r.URL.Query().Get("status")))
	switch status {
	case "":
		status = compat.StatusPending
	case "all":
		status = ""
	case compat.StatusPending, compat.StatusApproved, compat.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status: %s", status))
		return
	}

	games, err := s.db.ListGames(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("failed to list games")
		writeError(w, http.StatusInternalServerError, "failed to list games")
		return
	}
	if games == nil {
		games = []compat.Game{}
	}
	writeJSON(w, http.StatusOK, models.GamesResponse{Games: games})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	approver, _ := apimiddleware.ApproverFromContext(r.Context())

	if err := s.db.ApproveGame(r.Context(), approver, id); err != nil {
		writeModerationError(w, err)
		return
	}
	log.Info().Str("id", id).Str("by", approver.Name).Msg("game approved")
	s.metrics.decision(resultApproved)

	s.refreshPool(r.Context())
	if game := s.writeGame(w, r, id); game != nil {
		s.notify(models.NotificationGameApproved, models.GameNotification{
			ID:     game.ID,
			Name:   game.Name,
			Status: game.Status,
			By:     approver.Name,
		})
	}
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	approver, _ := apimiddleware.ApproverFromContext(r.Context())

	var params models.RejectParams
	err := validation.DecodeAndValidate(r.Body, &params)
	if err != nil && !errors.Is(err, validation.ErrMissingBody) {
		writeDecodeError(w, err)
		return
	}

	reason := strings.TrimSpace(params.Reason)
	if err := s.db.RejectGame(r.Context(), approver, id, reason); err != nil {
		writeModerationError(w, err)
		return
	}
	log.Info().Str("id", id).Str("by", approver.Name).Msg("game rejected")
	s.metrics.decision(resultRejected)

	if game := s.writeGame(w, r, id); game != nil {
		s.notify(models.NotificationGameRejected, models.GameNotification{
			ID:     game.ID,
			Name:   game.Name,
			Status: game.Status,
			By:     approver.Name,
			Reason: reason,
		})
	}
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	approver, _ := apimiddleware.ApproverFromContext(r.Context())

	var params models.UpdateProfileParams
	if !decodeParams(w, r, &params) {
		return
	}

	profile := profileFromParams(params.Android, params.IOS)
	err := s.db.UpdateGameProfile(r.Context(), id, &profile)
	switch {
	case errors.Is(err, catalogdb.ErrNotFound):
		writeError(w, http.StatusNotFound, "game not found")
		return
	case errors.Is(err, catalogdb.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("id", id).Msg("failed to update game profile")
		writeError(w, http.StatusInternalServerError, "failed to update game")
		return
	}
	log.Info().Str("id", id).Str("by", approver.Name).Msg("game profile updated")
	s.metrics.decision(resultUpdated)

	s.refreshPool(r.Context())
	if game := s.writeGame(w, r, id); game != nil {
		s.notify(models.NotificationGameUpdated, models.GameNotification{
			ID:     game.ID,
			Name:   game.Name,
			Status: game.Status,
			By:     approver.Name,
		})
	}
}

// writeGame responds with the stored game and returns it, or nil when the
// reload failed and an error was written instead.
func (s *Server) writeGame(w http.ResponseWriter, r *http.Request, id string) *compat.Game {
	game, err := s.db.GetGame(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to reload game")
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return nil
	}
	writeJSON(w, http.StatusOK, game)
	return game
}

func writeModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogdb.ErrNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, catalogdb.ErrNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalogdb.ErrNoApprover):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error().Err(err).Msg("moderation failed")
		writeError(w, http.StatusInternalServerError, "moderation failed")
	}
}

func (s *Server) handleExportGames(w http.ResponseWriter, r *http.Request) {
	games, controllers, ok := s.exportSource(w, r)
	if !ok {
		return
	}
	s.setCSVHeaders(w, "games")
	if err := export.WriteGames(w, games, controllers); err != nil {
		log.Error().Err(err).Msg("failed to write games export")
	}
}

func (s *Server) handleExportControllers(w http.ResponseWriter, r *http.Request) {
	_, controllers, ok := s.exportSource(w, r)
	if !ok {
		return
	}
	s.setCSVHeaders(w, "controllers")
	if err := export.WriteControllers(w, controllers); err != nil {
		log.Error().Err(err).Msg("failed to write controllers export")
	}
}

func (s *Server) handleExportCredits(w http.ResponseWriter, r *http.Request) {
	games, _, ok := s.exportSource(w, r)
	if !ok {
		return
	}
	s.setCSVHeaders(w, "credits")
	if err := export.WriteCredits(w, games); err != nil {
		log.Error().Err(err).Msg("failed to write credits export")
	}
}

// exportSource reads straight from storage so exports never lag behind a
// moderation decision.
func (s *Server) exportSource(
	w http.ResponseWriter,
	r *http.Request,
) ([]compat.Game, []compat.Controller, bool) {
	games, err := s.db.ListGames(r.Context(), compat.StatusApproved)
	if err != nil {
		log.Error().Err(err).Msg("failed to load games for export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return nil, nil, false
	}
	controllers, err := s.db.ListControllers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load controllers for export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return nil, nil, false
	}
	return games, controllers, true
}

func (s *Server) setCSVHeaders(w http.ResponseWriter, kind string) {
	filename := fmt.Sprintf("padcompat-%s-%s.csv", kind, s.clock.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func decodeParams[T any](w http.ResponseWriter, r *http.Request, dest *T) bool {
	if err := validation.DecodeAndValidate(r.Body, dest); err != nil {
		writeDecodeError(w, err)
		return false
	}
	return true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var ve *validation.Error
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: ve.Error(), Fields: ve.Fields})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// normalizeName trims a submitted name and puts it in NFC so visually equal
// names compare equal in storage and in the matcher.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func parseProtocols(labels []string) []compat.Protocol {
	out := make([]compat.Protocol, 0, len(labels))
	for _, label := range labels {
		p, ok := compat.ParseProtocol(label)
		if !ok {
			continue
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func platformFromParams(gp *compat.GameProfile, platform compat.Platform, params models.PlatformProfileParams) {
	for label, connLabel := range params.Protocols {
		proto, ok := compat.ParseProtocol(label)
		if !ok {
			continue
		}
		conn, ok := compat.ParseConnectivity(connLabel)
		if !ok {
			continue
		}
		gp.Set(platform, proto, conn)
	}
}

func gameFromParams(params *models.AddGameParams) compat.Game {
	g := compat.Game{
		IGDBID:               params.IGDBID,
		Name:                 normalizeName(params.Name),
		Description:          strings.TrimSpace(params.Description),
		ImageURL:             strings.TrimSpace(params.ImageURL),
		TestingNotes:         strings.TrimSpace(params.TestingNotes),
		DiscordUsername:      strings.TrimSpace(params.DiscordUsername),
		TestingControllerIDs: params.TestingControllerIDs,
	}
	g.Profile = profileFromParams(params.Android, params.IOS)
	return g
}

func profileFromParams(android, ios models.PlatformProfileParams) compat.GameProfile {
	var gp compat.GameProfile
	gp.Android.Tested = android.Tested
	gp.IOS.Tested = ios.Tested
	platformFromParams(&gp, compat.PlatformAndroid, android)
	platformFromParams(&gp, compat.PlatformIOS, ios)
	return gp
}
