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

// Package auth validates bearer tokens issued by an external identity
// provider and scopes studio requests to the token's owner.
//
// Configure it under server.auth:
//
//	server:
//	  auth:
//	    enabled: true
//	    jwks_url: "https://auth.example.com/.well-known/jwks.json"
//	    issuer: "https://auth.example.com"
//	    audience: "hector-studio"
//	    owner_claim: sub
package auth

import (
	"context"
)

type contextKey string

const claimsContextKey contextKey = "hector_studio_claims"

// Claims represents the validated claims from a JWT token.
type Claims struct {
	// Subject is the unique identifier for the user (sub claim).
	Subject string `json:"sub"`

	Email string `json:"email,omitempty"`

	Role string `json:"role,omitempty"`

	TenantID string `json:"tenant_id,omitempty"`

	// Custom contains any additional claims not mapped to struct fields.
	Custom map[string]any `json:"-"`
}

// GetStringClaim retrieves a custom claim as a string.
func (c *Claims) GetStringClaim(key string) string {
	if c.Custom == nil {
		return ""
	}
	s, _ := c.Custom[key].(string)
	return s
}

// HasAnyRole checks if the user has any of the specified roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}

// Owner returns the value of the claim that identifies agent ownership.
// An empty claim name means the subject.
func (c *Claims) Owner(claim string) string {
	switch claim {
	case "", "sub":
		return c.Subject
	case "email":
		return c.Email
	case "tenant_id":
		return c.TenantID
	default:
		return c.GetStringClaim(claim)
	}
}

// ClaimsFromContext returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
