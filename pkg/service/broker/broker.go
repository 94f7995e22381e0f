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

// Package broker fans catalog notifications out to in-process subscribers
// without letting a slow subscriber block the caller.
package broker

import (
	"encoding/json"

	"github.com/padcompat/padcompat-core/pkg/api/models"
	"github.com/padcompat/padcompat-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

type Broker struct {
	subscribers map[int]chan models.Notification
	nextID      int
	closed      bool
	mu          syncutil.RWMutex
}

func New() *Broker {
	return &Broker{
		subscribers: make(map[int]chan models.Notification),
	}
}

// Notify encodes params and broadcasts the notification. Subscribers with a
// full buffer miss it.
func (b *Broker) Notify(method string, params any) {
	payload, err := json.Marshal(params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("failed to encode notification")
		return
	}
	b.broadcast(models.Notification{Method: method, Params: payload})
}

func (b *Broker) broadcast(notif models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- notif:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("method", notif.Method).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

// Subscribe registers a subscriber with room for bufferSize pending
// notifications. After Close the returned channel is already closed.
func (b *Broker) Subscribe(bufferSize int) (notifChan <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Notification, bufferSize)
	if b.closed {
		close(ch)
		return ch, -1
	}

	id = b.nextID
	b.nextID++
	b.subscribers[id] = ch

	log.Debug().Int("subscriber_id", id).Int("buffer_size", bufferSize).Msg("new subscriber registered")
	return ch, id
}

// Unsubscribe removes a subscriber and closes its channel. Unknown IDs are
// ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Close closes every subscriber channel. Later notifications are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Len reports the number of active subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
