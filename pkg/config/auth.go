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

package config

import (
	"fmt"
	"time"
)

// AuthConfig turns on JWT bearer authentication for the studio API.
// Agents and editing sessions are then scoped to the token's owner claim;
// without auth every caller shares the anonymous owner.
//
//	server:
//	  auth:
//	    enabled: true
//	    jwks_url: https://auth.example.com/.well-known/jwks.json
//	    issuer: https://auth.example.com
//	    audience: hector-studio
type AuthConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	JWKSURL  string `yaml:"jwks_url,omitempty"`
	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`

	// RefreshInterval is the minimum time between JWKS fetches.
	// Default: 15m
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`

	// ExcludedPaths are served without a token.
	// Default: [/health, /metrics]
	ExcludedPaths []string `yaml:"excluded_paths,omitempty"`

	// RequireAuth set to false lets anonymous requests through; a token that
	// is present must still be valid.
	// Default: true
	RequireAuth *bool `yaml:"require_auth,omitempty"`

	// OwnerClaim names the claim stamped as ownerId on saved agents.
	// Default: sub
	OwnerClaim string `yaml:"owner_claim,omitempty"`
}

// SetDefaults applies default values to AuthConfig.
func (c *AuthConfig) SetDefaults() {
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 15 * time.Minute
	}
	if len(c.ExcludedPaths) == 0 {
		c.ExcludedPaths = []string{"/health", "/metrics"}
	}
	if c.OwnerClaim == "" {
		c.OwnerClaim = "sub"
	}
}

// Validate checks the auth configuration. A disabled section is always
// valid.
func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	for _, f := range []struct{ name, value string }{
		{"jwks_url", c.JWKSURL},
		{"issuer", c.Issuer},
		{"audience", c.Audience},
	} {
		if f.value == "" {
			return fmt.Errorf("%s is required when auth is enabled", f.name)
		}
	}
	if c.RefreshInterval < time.Minute {
		return fmt.Errorf("refresh_interval must be at least 1m, got %s", c.RefreshInterval)
	}
	return nil
}

// IsEnabled reports whether tokens should be validated.
func (c *AuthConfig) IsEnabled() bool {
	return c != nil && c.Enabled && c.JWKSURL != ""
}

// IsRequireAuth reports whether requests without a token are rejected.
func (c *AuthConfig) IsRequireAuth() bool {
	return c.RequireAuth == nil || *c.RequireAuth
}
