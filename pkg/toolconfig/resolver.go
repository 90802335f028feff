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

package toolconfig

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
)

// CredentialField is the Missing entry reported for an absent or invalid
// credential reference.
const CredentialField = "credentialRef"

var (
	angleBracketPattern = regexp.MustCompile(`^<[^<>]*>$`)
	envRefPattern       = regexp.MustCompile(`\$\{[^}]*\}`)
)

// IsPlaceholder reports whether value is a stand-in rather than a real
// setting: blank, the field's declared placeholder, an <angle-bracketed>
// hint, or an unexpanded ${VAR} reference.
func IsPlaceholder(value, declared string) bool {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return true
	case declared != "" && strings.EqualFold(v, strings.TrimSpace(declared)):
		return true
	case angleBracketPattern.MatchString(v):
		return true
	case envRefPattern.MatchString(v):
		return true
	}
	return false
}

// ResolvedField is the state of one declared field. Value is always empty
// for secret fields.
type ResolvedField struct {
	ConfigField
	Value     string `json:"value"`
	Satisfied bool   `json:"satisfied"`
	Problem   string `json:"problem,omitempty"`
}

// ResolvedConfig is what a selected tool needs and how much of it is set.
type ResolvedConfig struct {
	ToolID          string          `json:"toolId"`
	Fields          []ResolvedField `json:"fields"`
	RequiresAuth    bool            `json:"requiresAuth"`
	CredentialRef   string          `json:"credentialRef"`
	CredentialValid bool            `json:"credentialValid"`
	Credential      *keystore.Entry `json:"credential,omitempty"`
	Missing         []string        `json:"missing"`
	Configured      bool            `json:"configured"`
}

// Resolver checks tool configurations against the key store.
type Resolver struct {
	keys keystore.Store
}

// NewResolver returns a resolver. A nil key store makes every credential
// reference invalid.
func NewResolver(keys keystore.Store) *Resolver {
	return &Resolver{keys: keys}
}

// Resolve reports the configuration state of toolID. Errors are key store
// failures; an unknown or mismatched reference is reported through
// CredentialValid instead.
func (r *Resolver) Resolve(ctx context.Context, toolID string, tool AvailableTool, current agentconfig.ToolConfigData) (*ResolvedConfig, error) {
	entry, valid, err := r.checkCredential(ctx, tool, current.CredentialRef)
	if err != nil {
		return nil, err
	}

	rc := &ResolvedConfig{
		ToolID:          toolID,
		Fields:          resolveFields(tool, current.Values, valid),
		RequiresAuth:    tool.RequiresAuth,
		CredentialRef:   current.CredentialRef,
		CredentialValid: valid,
		Credential:      entry,
		Missing:         []string{},
	}
	if tool.RequiresAuth && !valid {
		rc.Missing = append(rc.Missing, CredentialField)
	}
	for _, f := range rc.Fields {
		if !f.Satisfied {
			rc.Missing = append(rc.Missing, f.Key)
		}
	}
	rc.Configured = len(rc.Missing) == 0
	return rc, nil
}

func (r *Resolver) checkCredential(ctx context.Context, tool AvailableTool, ref string) (*keystore.Entry, bool, error) {
	if strings.TrimSpace(ref) == "" || r.keys == nil {
		return nil, false, nil
	}
	e, err := r.keys.Resolve(ctx, ref)
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve credential for tool %s: %w", tool.ID, err)
	}
	if tool.ServiceType != "" && e.ServiceType != tool.ServiceType {
		return &e, false, nil
	}
	return &e, true, nil
}

// IsConfigured is the pure form of Resolve for callers that already know
// whether the credential reference is valid.
func IsConfigured(tool AvailableTool, current agentconfig.ToolConfigData, credentialValid bool) bool {
	if tool.RequiresAuth && !credentialValid {
		return false
	}
	for _, f := range resolveFields(tool, current.Values, credentialValid) {
		if !f.Satisfied {
			return false
		}
	}
	return true
}

func resolveFields(tool AvailableTool, values map[string]string, credentialValid bool) []ResolvedField {
	out := make([]ResolvedField, 0, len(tool.ConfigFields))
	for _, f := range tool.ConfigFields {
		rf := ResolvedField{ConfigField: f}
		if f.FieldType == FieldSecret {
			rf.Satisfied = credentialValid || !f.Required
			if !rf.Satisfied {
				rf.Problem = "requires a key store credential"
			}
			out = append(out, rf)
			continue
		}

		v := values[f.Key]
		rf.Value = v
		switch {
		case IsPlaceholder(v, f.Placeholder):
			if f.Required {
				rf.Problem = "is required"
			}
		default:
			rf.Problem = checkValue(f, strings.TrimSpace(v))
		}
		rf.Satisfied = rf.Problem == ""
		out = append(out, rf)
	}
	return out
}

func checkValue(f ConfigField, v string) string {
	switch f.FieldType {
	case FieldNumber:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "must be a number"
		}
	case FieldBoolean:
		if _, err := strconv.ParseBool(v); err != nil {
			return "must be true or false"
		}
	case FieldSelect:
		if !slices.Contains(f.Options, v) {
			return fmt.Sprintf("must be one of %s", strings.Join(f.Options, ", "))
		}
	case FieldURL:
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "must be an absolute URL"
		}
	}
	return ""
}
