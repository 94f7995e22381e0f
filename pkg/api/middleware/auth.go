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

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/rs/zerolog/log"
)

var ErrUnauthorized = errors.New("unauthorized")

// ApproverStore resolves bearer tokens to moderators.
type ApproverStore interface {
	ApproverByToken(ctx context.Context, token string) (*catalogdb.Approver, error)
}

type approverKey struct{}

// ApproverFromContext returns the moderator attached by RequireApprover.
func ApproverFromContext(ctx context.Context) (catalogdb.Approver, bool) {
	a, ok := ctx.Value(approverKey{}).(catalogdb.Approver)
	return a, ok
}

// WithApprover attaches a moderator to ctx.
func WithApprover(ctx context.Context, a catalogdb.Approver) context.Context {
	return context.WithValue(ctx, approverKey{}, a)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireApprover only lets requests through that carry the bearer token of
// a registered moderator.
func RequireApprover(store ApproverStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			approver, err := store.ApproverByToken(r.Context(), token)
			if errors.Is(err, catalogdb.ErrNotFound) {
				log.Warn().Str("remote_addr", r.RemoteAddr).Msg("invalid approver token")
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("failed to resolve approver")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithApprover(r.Context(), *approver)))
		})
	}
}
