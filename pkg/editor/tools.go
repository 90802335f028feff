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

package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
)

func (s *Session) catalogTool(toolID string) (toolconfig.AvailableTool, error) {
	tool, ok := s.deps.Catalog.Get(toolID)
	if !ok {
		return toolconfig.AvailableTool{}, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
	return tool, nil
}

// SelectTool adds a catalog tool to the draft together with its display
// summary. Selecting a tool twice is a no-op.
func (s *Session) SelectTool(toolID string) (ViewState, error) {
	tool, err := s.catalogTool(toolID)
	if err != nil {
		return ViewState{}, err
	}
	return s.Update(func(r *agentconfig.Record) error {
		if r.IsToolSelected(toolID) {
			return nil
		}
		r.SelectedToolIDs = append(r.SelectedToolIDs, toolID)
		r.ToolSummaries = append(r.ToolSummaries, tool.Summary())
		if _, ok := r.ToolConfigurations[toolID]; !ok {
			r.ToolConfigurations[toolID] = agentconfig.ToolConfigData{Values: map[string]string{}}
		}
		return nil
	})
}

// DeselectTool drops the tool, its settings and its summary.
func (s *Session) DeselectTool(toolID string) (ViewState, error) {
	v, err := s.Update(func(r *agentconfig.Record) error {
		if !r.IsToolSelected(toolID) {
			return fmt.Errorf("%w: %s", ErrToolNotSelected, toolID)
		}
		r.SelectedToolIDs = removeString(r.SelectedToolIDs, toolID)
		delete(r.ToolConfigurations, toolID)
		kept := r.ToolSummaries[:0]
		for _, ts := range r.ToolSummaries {
			if ts.ToolID != toolID {
				kept = append(kept, ts)
			}
		}
		r.ToolSummaries = kept
		return nil
	})
	if err != nil {
		return v, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, toolID)
	s.rederive()
	return s.viewLocked(), nil
}

// SetToolValue sets one declared, non-secret field of a selected tool. An
// empty value clears the field.
func (s *Session) SetToolValue(toolID, key, value string) (ViewState, error) {
	tool, err := s.catalogTool(toolID)
	if err != nil {
		return ViewState{}, err
	}
	f, ok := tool.Field(key)
	if !ok {
		return ViewState{}, fmt.Errorf("%w: %s.%s", ErrUnknownToolField, toolID, key)
	}
	if f.FieldType == toolconfig.FieldSecret {
		return ViewState{}, fmt.Errorf("%w: %s.%s", ErrSecretValue, toolID, key)
	}
	return s.Update(func(r *agentconfig.Record) error {
		if !r.IsToolSelected(toolID) {
			return fmt.Errorf("%w: %s", ErrToolNotSelected, toolID)
		}
		tc := r.ToolConfigurations[toolID]
		if tc.Values == nil {
			tc.Values = map[string]string{}
		}
		if strings.TrimSpace(value) == "" {
			delete(tc.Values, key)
		} else {
			tc.Values[key] = value
		}
		r.ToolConfigurations[toolID] = tc
		return nil
	})
}

// SetToolCredential points a selected tool at a key store entry and checks
// the reference. An empty ref clears it.
func (s *Session) SetToolCredential(ctx context.Context, toolID, ref string) (ViewState, error) {
	tool, err := s.catalogTool(toolID)
	if err != nil {
		return ViewState{}, err
	}

	valid := false
	if ref != "" {
		rc, err := s.resolver.Resolve(ctx, toolID, tool, agentconfig.ToolConfigData{CredentialRef: ref})
		if err != nil {
			return ViewState{}, err
		}
		valid = rc.CredentialValid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ViewState{}, ErrSessionClosed
	}
	if !s.draft.IsToolSelected(toolID) {
		return s.viewLocked(), fmt.Errorf("%w: %s", ErrToolNotSelected, toolID)
	}
	tc := s.draft.ToolConfigurations[toolID]
	tc.CredentialRef = ref
	if tc.Values == nil {
		tc.Values = map[string]string{}
	}
	s.draft.ToolConfigurations[toolID] = tc
	if ref == "" {
		delete(s.credentials, toolID)
	} else {
		s.credentials[toolID] = valid
	}
	s.revision++
	s.rederive()
	return s.viewLocked(), nil
}

// Credentials lists the key store entries a tool may reference.
func (s *Session) Credentials(ctx context.Context, toolID string) ([]keystore.Entry, error) {
	tool, err := s.catalogTool(toolID)
	if err != nil {
		return nil, err
	}
	if s.deps.Keys == nil {
		return []keystore.Entry{}, nil
	}
	entries, err := s.deps.Keys.List(ctx, tool.ServiceType)
	if err != nil {
		s.logger.Warn("Failed to list credentials", "tool", toolID, "error", err)
		return nil, fmt.Errorf("failed to list credentials for %s: %w", toolID, err)
	}
	return entries, nil
}

// ResolveTool reports what a selected tool still needs.
func (s *Session) ResolveTool(ctx context.Context, toolID string) (*toolconfig.ResolvedConfig, error) {
	tool, err := s.catalogTool(toolID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if !s.draft.IsToolSelected(toolID) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrToolNotSelected, toolID)
	}
	current := s.draft.ToolConfigurations[toolID]
	current.Values = cloneValues(current.Values)
	s.mu.Unlock()

	return s.resolver.Resolve(ctx, toolID, tool, current)
}

func cloneValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
