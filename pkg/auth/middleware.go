// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Middleware authenticates HTTP requests with a TokenValidator.
type Middleware struct {
	validator   TokenValidator
	excluded    []string
	requireAuth bool
}

type MiddlewareOption func(*Middleware)

// WithExcludedPaths lets requests under the given path prefixes through
// without a token.
func WithExcludedPaths(paths ...string) MiddlewareOption {
	return func(m *Middleware) {
		m.excluded = append(m.excluded, paths...)
	}
}

// WithRequireAuth controls whether requests without a token are rejected.
// When false, anonymous requests proceed without claims; a token that is
// present must still be valid.
func WithRequireAuth(required bool) MiddlewareOption {
	return func(m *Middleware) {
		m.requireAuth = required
	}
}

func NewMiddleware(validator TokenValidator, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{validator: validator, requireAuth: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.isExcluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.requireAuth {
				writeError(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			writeError(w, http.StatusUnauthorized, "Invalid Authorization format, expected: Bearer <token>")
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			msg := ErrInvalidToken.Error()
			if errors.Is(err, ErrTokenExpired) {
				msg = ErrTokenExpired.Error()
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func (m *Middleware) isExcluded(path string) bool {
	for _, p := range m.excluded {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

// RequireRole rejects authenticated requests whose role is not allowed.
// It must run after Middleware.Handler.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !claims.HasAnyRole(allowedRoles...) {
				writeError(w, http.StatusForbidden, "Forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
