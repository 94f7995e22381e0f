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

// Package igdb looks up mobile games on IGDB to prefill game submissions.
package igdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/padcompat/padcompat-core/pkg/config"
	"github.com/padcompat/padcompat-core/pkg/helpers/syncutil"
	"github.com/padcompat/padcompat-core/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.igdb.com/v4"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token" // #nosec G101 - public OAuth endpoint

	// MinQueryLength is the shortest query sent upstream.
	MinQueryLength = 2
	// MaxResults is the number of suggestions returned.
	MaxResults = 10

	// IGDB allows four requests per second.
	requestsPerSecond = 4
	// Refresh the token a minute before it expires.
	tokenSlack = time.Minute
)

var ErrMissingCredentials = errors.New(
	"IGDB requires Twitch client credentials in auth.toml: " +
		"set username=client_id and password=client_secret for https://api.igdb.com")

// mobilePlatformIDs are the IGDB platform IDs for phones, tablets and their
// stores.
const mobilePlatformIDs = "34,39,130,131,166,167,169,170,471,472,473,474"

// mobilePlatformNames are matched case-insensitively as substrings of the
// platform names IGDB returns.
var mobilePlatformNames = []string{
	"ios", "android", "iphone", "ipad", "ipod touch", "google play", "app store",
}

type Options struct {
	Client       *httpclient.Client
	Clock        clockwork.Clock
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type Client struct {
	http     *httpclient.Client
	clock    clockwork.Clock
	limiter  *rate.Limiter
	token    *tokenInfo
	baseURL  string
	tokenURL string
	clientID string
	secret   string
	mu       syncutil.Mutex
}

// New creates a lookup client. Credentials not given in opts are read from
// auth.toml on first use.
func New(opts Options) *Client {
	c := &Client{
		http:     opts.Client,
		clock:    opts.Clock,
		baseURL:  opts.BaseURL,
		tokenURL: opts.TokenURL,
		clientID: opts.ClientID,
		secret:   opts.ClientSecret,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	if c.http == nil {
		c.http = httpclient.NewClient()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.tokenURL == "" {
		c.tokenURL = DefaultTokenURL
	}
	return c
}

func (c *Client) credentials() (id, secret string, err error) {
	if c.clientID != "" && c.secret != "" {
		return c.clientID, c.secret, nil
	}
	creds := config.LookupAuth(config.GetAuthCfg(), DefaultBaseURL)
	if creds == nil || creds.Username == "" || creds.Password == "" {
		return "", "", ErrMissingCredentials
	}
	return creds.Username, creds.Password, nil
}

// accessToken returns a cached token or fetches a new one. Caller must
// hold mu.
func (c *Client) accessToken(ctx context.Context, clientID, secret string) (string, error) {
	if c.token != nil && c.clock.Now().Before(c.token.expiresAt) {
		return c.token.accessToken, nil
	}

	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("client_secret", secret)
	params.Set("grant_type", "client_credentials")

	req, err := httpclient.NewRequest(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(params.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if err != nil {
		return "", err
	}

	var resp TokenResponse
	if err := c.http.DoJSON(req, &resp); err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("no access token in token response")
	}

	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenSlack
	c.token = &tokenInfo{
		accessToken: resp.AccessToken,
		expiresAt:   c.clock.Now().Add(ttl),
	}
	log.Info().Msg("obtained IGDB access token")
	return resp.AccessToken, nil
}

func buildSearchQuery(query string) string {
	// The query language has no escape for quotes.
	cleaned := strings.ReplaceAll(query, `"`, "")
	return fmt.Sprintf(`search "%s";
fields name,summary,cover.url,platforms.name,genres.name;
where platforms = (%s) & category = 0;
limit 20;`, cleaned, mobilePlatformIDs)
}

// Search returns up to MaxResults mobile games matching query, leaving out
// the IGDB IDs in exclude. Queries shorter than MinQueryLength return nil.
func (c *Client) Search(ctx context.Context, query string, exclude []int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, nil
	}

	clientID, secret, err := c.credentials()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	token, err := c.accessToken(ctx, clientID, secret)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body := buildSearchQuery(query)
	log.Debug().Str("query", body).Msg("IGDB search request")

	req, err := httpclient.NewRequest(ctx, http.MethodPost, c.baseURL+"/games",
		strings.NewReader(body),
		map[string]string{
			"Client-ID":     clientID,
			"Authorization": "Bearer " + token,
			"Content-Type":  "text/plain",
		})
	if err != nil {
		return nil, err
	}

	var games []Game
	if err := c.http.DoJSON(req, &games); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			c.mu.Lock()
			c.token = nil
			c.mu.Unlock()
		}
		return nil, fmt.Errorf("IGDB search failed: %w", err)
	}

	return filterMobile(games, exclude), nil
}

func filterMobile(games []Game, exclude []int) []Result {
	results := make([]Result, 0, MaxResults)
	for i := range games {
		if len(results) == MaxResults {
			break
		}
		g := &games[i]
		if slices.Contains(exclude, g.ID) || !hasMobilePlatform(g.Platforms) {
			continue
		}
		results = append(results, toResult(g))
	}
	return results
}

func hasMobilePlatform(platforms []NamedItem) bool {
	for _, p := range platforms {
		name := strings.ToLower(p.Name)
		for _, mobile := range mobilePlatformNames {
			if strings.Contains(name, mobile) {
				return true
			}
		}
	}
	return false
}

func toResult(g *Game) Result {
	r := Result{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Summary,
		Genres:      make([]string, 0, len(g.Genres)),
		Platforms:   make([]string, 0, len(g.Platforms)),
	}
	if r.Description == "" {
		r.Description = "No description available"
	}
	if g.Cover != nil && g.Cover.URL != "" {
		r.ImageURL = coverURL(g.Cover.URL)
	}
	for _, genre := range g.Genres {
		r.Genres = append(r.Genres, genre.Name)
	}
	for _, p := range g.Platforms {
		r.Platforms = append(r.Platforms, p.Name)
	}
	return r
}

// coverURL upgrades a thumbnail URL to the large cover size and adds a
// scheme to protocol-relative URLs.
func coverURL(raw string) string {
	u := strings.Replace(raw, "t_thumb", "t_cover_big", 1)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}
