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
	"net/http/httptest"
	"testing"

	"github.com/padcompat/padcompat-core/pkg/database/catalogdb"
	"github.com/stretchr/testify/assert"
)

type stubStore struct {
	err    error
	tokens map[string]string
}

func (s *stubStore) ApproverByToken(_ context.Context, token string) (*catalogdb.Approver, error) {
	if s.err != nil {
		return nil, s.err
	}
	name, ok := s.tokens[token]
	if !ok {
		return nil, catalogdb.ErrNotFound
	}
	return &catalogdb.Approver{Name: name}, nil
}

func TestRequireApprover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		store    *stubStore
		name     string
		header   string
		wantName string
		wantCode int
	}{
		{
			name:     "valid token",
			store:    &stubStore{tokens: map[string]string{"s3cret": "alice"}},
			header:   "Bearer s3cret",
			wantCode: http.StatusOK,
			wantName: "alice",
		},
		{
			name:     "scheme is case insensitive",
			store:    &stubStore{tokens: map[string]string{"s3cret": "alice"}},
			header:   "bearer s3cret",
			wantCode: http.StatusOK,
			wantName: "alice",
		},
		{
			name:     "missing header",
			store:    &stubStore{},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "basic auth is not accepted",
			store:    &stubStore{tokens: map[string]string{"s3cret": "alice"}},
			header:   "Basic s3cret",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown token",
			store:    &stubStore{tokens: map[string]string{}},
			header:   "Bearer nope",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "store failure",
			store:    &stubStore{err: errors.New("database is locked")},
			header:   "Bearer s3cret",
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotName string
			handler := RequireApprover(tt.store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				a, ok := ApproverFromContext(r.Context())
				if ok {
					gotName = a.Name
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/admin/games/x/approve", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantName, gotName)
		})
	}
}
