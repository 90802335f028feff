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

// Package agentcard derives the A2A agent card an exported agent would
// publish.
package agentcard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/gosimple/slug"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// ErrA2ADisabled is returned for records that do not expose A2A.
var ErrA2ADisabled = errors.New("agent does not expose A2A")

const (
	bearerSchemeName = "BearerAuth"
	apiKeySchemeName = "ApiKeyAuth"
)

var formatModes = map[agentconfig.MessageFormat]string{
	agentconfig.FormatJSON:     "application/json",
	agentconfig.FormatText:     "text/plain",
	agentconfig.FormatProtobuf: "application/x-protobuf",
}

// URL returns the endpoint an agent is served on under baseURL.
func URL(baseURL string, r *agentconfig.Record) string {
	return strings.TrimRight(baseURL, "/") + "/agents/" + url.PathEscape(r.OriginalAgentID)
}

// Build returns the card for r. Skills come from inbound channels, with a
// single default skill when there are none.
func Build(r *agentconfig.Record, baseURL string) (*a2a.AgentCard, error) {
	if r == nil {
		return nil, errors.New("record is required")
	}
	cfg := r.Config.A2A
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrA2ADisabled, r.Name)
	}

	inputModes, outputModes := modes(cfg)
	card := &a2a.AgentCard{
		Name:               r.Name,
		Description:        r.Description,
		URL:                URL(baseURL, r),
		Version:            r.Version,
		ProtocolVersion:    "1.0",
		DefaultInputModes:  inputModes,
		DefaultOutputModes: outputModes,
		Skills:             skills(r),
		Capabilities: a2a.AgentCapabilities{
			Streaming: true,
		},
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Provider: &a2a.AgentProvider{
			Org: "Hector",
			URL: "https://github.com/kadirpekel/hector",
		},
	}

	switch cfg.SecurityPolicy {
	case agentconfig.SecurityJWT:
		card.SecuritySchemes = a2a.NamedSecuritySchemes{
			bearerSchemeName: a2a.HTTPAuthSecurityScheme{
				Scheme:       "bearer",
				BearerFormat: "JWT",
				Description:  "JWT Bearer token authentication",
			},
		}
		card.Security = []a2a.SecurityRequirements{{bearerSchemeName: a2a.SecuritySchemeScopes{}}}
	case agentconfig.SecurityAPIKey:
		card.SecuritySchemes = a2a.NamedSecuritySchemes{
			apiKeySchemeName: a2a.APIKeySecurityScheme{
				In:          a2a.APIKeySecuritySchemeInHeader,
				Name:        cfg.APIKeyHeaderName,
				Description: "API key authentication",
			},
		}
		card.Security = []a2a.SecurityRequirements{{apiKeySchemeName: a2a.SecuritySchemeScopes{}}}
	}
	return card, nil
}

// modes collects the MIME types of inbound channels for input and of the
// default response format plus inbound channels for output.
func modes(cfg agentconfig.A2AConfig) (in, out []string) {
	seenIn := map[string]bool{}
	seenOut := map[string]bool{}
	add := func(list *[]string, seen map[string]bool, f agentconfig.MessageFormat) {
		if m, ok := formatModes[f]; ok && !seen[m] {
			seen[m] = true
			*list = append(*list, m)
		}
	}

	add(&out, seenOut, cfg.DefaultResponseFormat)
	for _, ch := range cfg.Channels {
		if ch.Direction != agentconfig.DirectionInbound {
			continue
		}
		add(&in, seenIn, ch.MessageFormat)
		add(&out, seenOut, ch.MessageFormat)
	}
	if len(in) == 0 {
		in = []string{"text/plain"}
	}
	if len(out) == 0 {
		out = []string{"text/plain"}
	}
	return in, out
}

func skills(r *agentconfig.Record) []a2a.AgentSkill {
	tags := append([]string{string(r.Config.Type())}, r.Tags...)

	var out []a2a.AgentSkill
	for _, ch := range r.Config.A2A.Channels {
		if ch.Direction != agentconfig.DirectionInbound {
			continue
		}
		mode := formatModes[ch.MessageFormat]
		skill := a2a.AgentSkill{
			ID:          slug.Make(ch.Name),
			Name:        ch.Name,
			Description: fmt.Sprintf("%s (%s, %s)", ch.Name, ch.SyncMode, ch.MessageFormat),
			Tags:        tags,
		}
		if mode != "" {
			skill.InputModes = []string{mode}
			skill.OutputModes = []string{mode}
		}
		out = append(out, skill)
	}
	if len(out) == 0 {
		id := slug.Make(r.Name)
		if id == "" {
			id = r.OriginalAgentID
		}
		out = []a2a.AgentSkill{{
			ID:          id,
			Name:        r.Name,
			Description: r.Description,
			Tags:        tags,
		}}
	}
	return out
}
