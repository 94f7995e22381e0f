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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/olahol/melody"
	apimiddleware "github.com/padcompat/padcompat-core/pkg/api/middleware"
	"github.com/rs/zerolog/log"
)

const eventBufferSize = 64

func newEventHub(checkOrigin func(*http.Request) bool) *melody.Melody {
	m := melody.New()
	m.Upgrader.CheckOrigin = checkOrigin

	m.HandleConnect(func(session *melody.Session) {
		name, _ := session.Get("approver")
		log.Debug().Interface("approver", name).Msg("moderator subscribed to events")
	})

	// ping command for heartbeat operation
	m.HandleMessage(func(session *melody.Session, msg []byte) {
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
		}
	})

	return m
}

// checkOrigin applies the CORS origin list to websocket upgrades.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	origins := s.cfg.AllowedOrigins()
	if origin == "" || len(origins) == 0 || slices.Contains(origins, "*") {
		return true
	}
	return slices.Contains(origins, origin)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	approver, _ := apimiddleware.ApproverFromContext(r.Context())
	err := s.events.HandleRequestWithKeys(w, r, map[string]any{"approver": approver.Name})
	if err != nil {
		log.Error().Err(err).Msg("handling events websocket request")
	}
}

// closeEvents disconnects every session and stops the hub. Only the first
// call has any effect.
func (s *Server) closeEvents() {
	s.closeEventsOnce.Do(func() {
		if err := s.events.Close(); err != nil {
			log.Debug().Err(err).Msg("closing events hub")
		}
	})
}

// RunEvents forwards broker notifications to connected moderators until ctx
// is cancelled, then closes every websocket session.
func (s *Server) RunEvents(ctx context.Context) {
	defer s.closeEvents()

	if s.broker == nil {
		<-ctx.Done()
		return
	}

	notifications, id := s.broker.Subscribe(eventBufferSize)
	defer s.broker.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(notif)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.events.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}
