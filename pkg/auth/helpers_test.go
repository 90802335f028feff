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
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://test-issuer.com"
	testAudience = "hector-studio"
	testKeyID    = "test-key-id"
)

type testIdP struct {
	key     *rsa.PrivateKey
	jwksURL string
}

// newTestIdP serves a one-key JWKS and signs tokens with the matching
// private key.
func newTestIdP(t testing.TB) *testIdP {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := jwk.FromRaw(&privateKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, testKeyID))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256))
	keyset := jwk.NewSet()
	require.NoError(t, keyset.AddKey(pub))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(keyset)
	}))
	t.Cleanup(server.Close)

	return &testIdP{key: privateKey, jwksURL: server.URL + "/.well-known/jwks.json"}
}

func (p *testIdP) validator(t testing.TB) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTValidatorConfig{
		JWKSURL:  p.jwksURL,
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

type tokenOpts struct {
	issuer   string
	audience string
	subject  string
	expires  time.Time
	claims   map[string]any
}

func (p *testIdP) sign(t testing.TB, o tokenOpts) string {
	t.Helper()
	if o.issuer == "" {
		o.issuer = testIssuer
	}
	if o.audience == "" {
		o.audience = testAudience
	}
	if o.expires.IsZero() {
		o.expires = time.Now().Add(time.Hour)
	}

	token := jwt.New()
	require.NoError(t, token.Set(jwt.IssuerKey, o.issuer))
	require.NoError(t, token.Set(jwt.AudienceKey, o.audience))
	if o.subject != "" {
		require.NoError(t, token.Set(jwt.SubjectKey, o.subject))
	}
	require.NoError(t, token.Set(jwt.IssuedAtKey, time.Now().Add(-2*time.Hour)))
	require.NoError(t, token.Set(jwt.ExpirationKey, o.expires))
	for k, v := range o.claims {
		require.NoError(t, token.Set(k, v))
	}

	key, err := jwk.FromRaw(p.key)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, testKeyID))

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)
	return string(signed)
}
