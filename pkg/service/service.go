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

// Package service wires the catalog database, the search pool and the API
// server into a running process.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/padcompat/padcompat-core/pkg/api"
	apimiddleware "github.com/padcompat/padcompat-core/pkg/api/middleware"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/padcompat/padcompat-core/pkg/helpers"
	"github.com/padcompat/padcompat-core/pkg/lookup/igdb"
	"github.com/padcompat/padcompat-core/pkg/service/broker"
	"github.com/padcompat/padcompat-core/pkg/service/pool"
	"github.com/padcompat/padcompat-core/pkg/service/publishers"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const publisherBufferSize = 100

// OpenCatalog opens the catalog database and loads a first pool snapshot.
// A failed first load is logged and leaves the pool empty until the next
// refresh.
func OpenCatalog(
	ctx context.Context,
	cfg *config.Instance,
	dirs helpers.Dirs,
	clock clockwork.Clock,
) (*catalogdb.CatalogDB, *pool.Pool, error) {
	log.Info().Msg("opening catalog database")
	db, err := catalogdb.Open(ctx, cfg.DatabasePath(dirs.DataDir))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	p := pool.New(db, clock, cfg.DuplicateThreshold())
	if err := p.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("initial catalog load failed")
	}
	return db, p, nil
}

// Start runs the service in the background. The returned stop function
// shuts everything down and closes the database. done is closed if the
// service exits on its own, such as when the API port is unavailable.
func Start(cfg *config.Instance, dirs helpers.Dirs) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	ctx, cancel := context.WithCancel(context.Background())
	clock := clockwork.NewRealClock()

	db, p, err := OpenCatalog(ctx, cfg, dirs, clock)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	var lookup api.Lookup
	if cfg.IGDBEnabled() {
		log.Info().Msg("IGDB lookup enabled")
		lookup = igdb.New(igdb.Options{Clock: clock})
	}

	notifications := broker.New()
	activePublishers := startPublishers(cfg, notifications)

	limiter := apimiddleware.NewIPRateLimiter(
		clock,
		apimiddleware.SubmissionsPerMinute,
		apimiddleware.SubmissionBurst,
	)
	limiter.StartCleanup(ctx)

	srv := api.NewServer(api.Options{
		Config:  cfg,
		DB:      db,
		Pool:    p,
		Lookup:  lookup,
		Limiter: limiter,
		Clock:   clock,
		Broker:  notifications,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		interval := cfg.RefreshInterval()
		log.Info().Dur("interval", interval).Msg("starting catalog refresh loop")
		p.Run(gctx, interval)
		return nil
	})
	g.Go(func() error {
		log.Info().Msg("starting API service")
		return srv.Start(gctx)
	})

	var runErr error
	exited := make(chan struct{})
	go func() {
		runErr = g.Wait()
		if runErr != nil {
			log.Error().Err(runErr).Msg("service stopped with error")
		}
		close(exited)
	}()

	return func() error {
		log.Info().Msg("stopping service")
		cancel()
		<-exited
		for _, pub := range activePublishers {
			pub.Stop()
		}
		notifications.Close()
		if closeErr := db.Close(); closeErr != nil {
			return errors.Join(runErr, closeErr)
		}
		return runErr
	}, exited, nil
}

// startPublishers starts every enabled MQTT publisher, each with its own
// broker subscription. Publishers that fail to connect are skipped.
func startPublishers(cfg *config.Instance, b *broker.Broker) []*publishers.MQTTPublisher {
	active := make([]*publishers.MQTTPublisher, 0)
	for _, pubCfg := range cfg.MQTTPublishers() {
		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", pubCfg.Broker, pubCfg.Topic)

		notifs, id := b.Subscribe(publisherBufferSize)
		pub := publishers.NewMQTTPublisher(pubCfg.Broker, pubCfg.Topic, pubCfg.Filter)
		if err := pub.Start(notifs); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", pubCfg.Broker)
			b.Unsubscribe(id)
			continue
		}
		active = append(active, pub)
	}

	if len(active) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(active))
	}
	return active
}
