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

// Package publishers forwards catalog notifications to external systems.
package publishers

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/padcompat/padcompat-core/pkg/api/models"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes catalog notifications to an MQTT broker. Each
// notification goes to a subtopic built from its method, so
// "games.approved" on topic "padcompat" is sent to "padcompat/games/approved".
type MQTTPublisher struct {
	client    mqtt.Client
	newClient func(*mqtt.ClientOptions) mqtt.Client
	stopCh    chan struct{}
	broker    string
	topic     string
	filter    []string
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewMQTTPublisher creates a publisher. An empty filter publishes every
// notification, otherwise only the listed methods.
func NewMQTTPublisher(broker, topic string, filter []string) *MQTTPublisher {
	return &MQTTPublisher{
		broker:    broker,
		topic:     strings.TrimSuffix(topic, "/"),
		filter:    filter,
		newClient: mqtt.NewClient,
		stopCh:    make(chan struct{}),
	}
}

// Start connects to the broker and publishes from notifications until Stop
// is called or the channel closes.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker("tcp://" + p.broker)
	opts.SetClientID("padcompat-publisher-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = p.newClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Msgf("mqtt publisher: %s not reachable yet, retrying in background", p.broker)
	} else if token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	p.wg.Add(1)
	go p.publishNotifications(notifications)
	return nil
}

// Stop ends publishing and disconnects. Safe to call more than once.
func (p *MQTTPublisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		if p.client != nil && p.client.IsConnected() {
			log.Debug().Msg("mqtt publisher: disconnecting")
			p.client.Disconnect(250)
		}
	})
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(notif.Method) {
				continue
			}
			if err := p.publish(notif); err != nil {
				log.Error().Err(err).Str("method", notif.Method).Msg("mqtt publisher: failed to publish")
			}
		}
	}
}

func (p *MQTTPublisher) publish(notif models.Notification) error {
	token := p.client.Publish(p.subtopic(notif.Method), 0, false, []byte(notif.Params))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing %s", notif.Method)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", notif.Method, err)
	}
	log.Debug().Msgf("mqtt publisher: published %s notification", notif.Method)
	return nil
}

func (p *MQTTPublisher) subtopic(method string) string {
	return p.topic + "/" + strings.ReplaceAll(method, ".", "/")
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}
