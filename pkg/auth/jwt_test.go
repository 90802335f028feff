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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/config"
)

func TestNewJWTValidator(t *testing.T) {
	idp := newTestIdP(t)

	tests := []struct {
		name    string
		cfg     JWTValidatorConfig
		wantErr bool
	}{
		{"valid", JWTValidatorConfig{JWKSURL: idp.jwksURL, Issuer: testIssuer}, false},
		{"no issuer or audience", JWTValidatorConfig{JWKSURL: idp.jwksURL}, false},
		{"empty url", JWTValidatorConfig{}, true},
		{"unreachable", JWTValidatorConfig{JWKSURL: idp.jwksURL + ".missing"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewJWTValidator(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			defer v.Close()
			assert.Equal(t, tt.cfg.JWKSURL, v.jwksURL)
		})
	}
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	idp := newTestIdP(t)
	v := idp.validator(t)
	ctx := context.Background()

	t.Run("claims", func(t *testing.T) {
		token := idp.sign(t, tokenOpts{subject: "user-1", claims: map[string]any{
			"email":     "ada@example.com",
			"role":      "editor",
			"tenant_id": "acme",
			"team":      "platform",
		}})
		claims, err := v.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "editor", claims.Role)
		assert.Equal(t, "acme", claims.TenantID)
		assert.Equal(t, "platform", claims.GetStringClaim("team"))
		assert.NotContains(t, claims.Custom, "email")
	})

	t.Run("expired", func(t *testing.T) {
		token := idp.sign(t, tokenOpts{subject: "user-1", expires: time.Now().Add(-time.Hour)})
		_, err := v.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := idp.sign(t, tokenOpts{subject: "user-1", issuer: "https://evil.example.com"})
		_, err := v.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		token := idp.sign(t, tokenOpts{subject: "user-1", audience: "someone-else"})
		_, err := v.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign key", func(t *testing.T) {
		other := newTestIdP(t)
		token := other.sign(t, tokenOpts{subject: "user-1"})
		_, err := v.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		token := idp.sign(t, tokenOpts{})
		_, err := v.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrMissingClaims)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.ValidateToken(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewValidatorFromConfig(t *testing.T) {
	v, err := NewValidatorFromConfig(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewValidatorFromConfig(&config.AuthConfig{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = NewValidatorFromConfig(&config.AuthConfig{Enabled: true})
	assert.Error(t, err)

	idp := newTestIdP(t)
	v, err = NewValidatorFromConfig(&config.AuthConfig{Enabled: true, JWKSURL: idp.jwksURL, Issuer: testIssuer, Audience: testAudience})
	require.NoError(t, err)
	defer v.Close()

	claims, err := v.ValidateToken(context.Background(), idp.sign(t, tokenOpts{subject: "user-2"}))
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.Subject)
}

func TestClaims_Owner(t *testing.T) {
	c := &Claims{Subject: "u1", Email: "u1@example.com", TenantID: "t1", Custom: map[string]any{"org": "o1", "n": 3}}
	assert.Equal(t, "u1", c.Owner(""))
	assert.Equal(t, "u1", c.Owner("sub"))
	assert.Equal(t, "u1@example.com", c.Owner("email"))
	assert.Equal(t, "t1", c.Owner("tenant_id"))
	assert.Equal(t, "o1", c.Owner("org"))
	assert.Equal(t, "", c.Owner("n"))
	assert.Equal(t, "", c.Owner("missing"))
}
