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

package agentconfig

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mohae/deepcopy"
)

// DefaultVersion is the semantic version of a freshly created record.
const DefaultVersion = "1.0.0"

// Record is a persisted agent with identity, metadata and configuration.
//
// Identity: OriginalAgentID is stable across versions, ID names one
// version, InternalVersion orders versions and IsLatest marks the head.
type Record struct {
	ID              string `json:"id" jsonschema:"title=ID"`
	OriginalAgentID string `json:"originalAgentId" jsonschema:"title=Original Agent ID"`
	InternalVersion int    `json:"internalVersion" jsonschema:"title=Internal Version,minimum=1"`
	IsLatest        bool   `json:"isLatest" jsonschema:"title=Is Latest"`

	Name        string   `json:"name" jsonschema:"title=Name,minLength=1,required"`
	Description string   `json:"description" jsonschema:"title=Description"`
	Version     string   `json:"semanticVersion" jsonschema:"title=Semantic Version,description=Semantic version MAJOR.MINOR.PATCH"`
	Icon        string   `json:"icon" jsonschema:"title=Icon"`
	Tags        []string `json:"tags" jsonschema:"title=Tags,uniqueItems=true"`
	IsTemplate  bool     `json:"isTemplate"`
	IsFavorite  bool     `json:"isFavorite"`
	OwnerID     string   `json:"ownerId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Config AgentConfig `json:"config" jsonschema:"required"`

	SelectedToolIDs    []string                  `json:"selectedToolIds" jsonschema:"uniqueItems=true"`
	ToolConfigurations map[string]ToolConfigData `json:"toolConfigurations"`
	ToolSummaries      []ToolSummary             `json:"toolSummaries"`

	Deployment Deployment `json:"deployment"`
}

// ToolConfigData holds user-entered values for one tool. CredentialRef
// names a key-store entry; secret material is never stored here.
type ToolConfigData struct {
	Values        map[string]string `json:"values"`
	CredentialRef string            `json:"credentialRef"`
}

// ToolSummary is derived from the tool catalog for display purposes.
type ToolSummary struct {
	ToolID       string `json:"toolId"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	FunctionName string `json:"functionName"`
}

// NewRecord creates a draft of the given type with every subsystem disabled.
func NewRecord(t AgentType, now time.Time) (*Record, error) {
	variant, err := NewVariant(t)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now = now.UTC()
	return &Record{
		ID:              id,
		OriginalAgentID: id,
		InternalVersion: 1,
		IsLatest:        true,
		Version:         DefaultVersion,
		Tags:            []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
		Config: AgentConfig{
			Base: Base{
				Framework:        FrameworkADK,
				SubAgentIDs:      []string{},
				StatePersistence: DefaultStatePersistence(),
				RagMemory:        DefaultRagMemory(),
				Artifacts:        DefaultArtifacts(),
				A2A:              DefaultA2A(),
			},
			Variant: variant,
		},
		SelectedToolIDs:    []string{},
		ToolConfigurations: map[string]ToolConfigData{},
		ToolSummaries:      []ToolSummary{},
		Deployment:         DefaultDeployment(),
	}, nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return deepcopy.Copy(r).(*Record)
}

// Touch sets UpdatedAt, keeping it no earlier than CreatedAt.
func (r *Record) Touch(now time.Time) {
	now = now.UTC()
	if now.Before(r.CreatedAt) {
		now = r.CreatedAt
	}
	r.UpdatedAt = now
}

// ChangeType swaps the variant. Base fields are kept; the previous
// variant's values are discarded.
func (r *Record) ChangeType(t AgentType) error {
	if r.Config.Type() == t {
		return nil
	}
	v, err := NewVariant(t)
	if err != nil {
		return err
	}
	r.Config.Variant = v
	return nil
}

// IsToolSelected reports whether id is in the selected tool set.
func (r *Record) IsToolSelected(id string) bool {
	return slices.Contains(r.SelectedToolIDs, id)
}

// Normalize replaces nil collections with empty ones so that records built
// in code compare equal to records read back from a document.
func (r *Record) Normalize() {
	r.Tags = emptyIfNil(r.Tags)
	r.SelectedToolIDs = emptyIfNil(r.SelectedToolIDs)
	r.ToolSummaries = emptyIfNil(r.ToolSummaries)
	if r.ToolConfigurations == nil {
		r.ToolConfigurations = map[string]ToolConfigData{}
	}
	for id, tc := range r.ToolConfigurations {
		if tc.Values == nil {
			tc.Values = map[string]string{}
			r.ToolConfigurations[id] = tc
		}
	}
	r.Deployment.EnvironmentVariables = emptyIfNil(r.Deployment.EnvironmentVariables)

	b := &r.Config.Base
	b.SubAgentIDs = emptyIfNil(b.SubAgentIDs)
	b.StatePersistence.InitialState = emptyIfNil(b.StatePersistence.InitialState)
	b.StatePersistence.ValidationRules = emptyIfNil(b.StatePersistence.ValidationRules)
	b.RagMemory.KnowledgeSources = emptyIfNil(b.RagMemory.KnowledgeSources)
	b.Artifacts.Definitions = emptyIfNil(b.Artifacts.Definitions)
	b.A2A.Channels = emptyIfNil(b.A2A.Channels)

	if s, ok := r.Config.LLM(); ok {
		s.Restrictions = emptyIfNil(s.Restrictions)
		s.Tasks = emptyIfNil(s.Tasks)
		s.SystemPromptHistory = emptyIfNil(s.SystemPromptHistory)
	}
}

// String identifies the record in logs.
func (r *Record) String() string {
	return fmt.Sprintf("%s (%s v%d)", r.Name, r.ID, r.InternalVersion)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
