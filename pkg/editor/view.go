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
	"slices"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
	"github.com/kadirpekel/hector-studio/pkg/validation"
	"github.com/kadirpekel/hector-studio/pkg/wizard"
)

// Visibility keys for conditional sections and fields.
const (
	ShowLLM                = "behavior.llm"
	ShowWorkflow           = "behavior.workflow"
	ShowCustom             = "behavior.custom"
	ShowMaxIterations      = "behavior.maxIterations"
	ShowGeneratedPrompt    = "behavior.systemPrompt"
	ShowManualPrompt       = "behavior.manualSystemPrompt"
	ShowStatePersistence   = "memory.statePersistence"
	ShowStateTTL           = "memory.statePersistence.ttlSeconds"
	ShowRagMemory          = "memory.ragMemory"
	ShowPersistentMemory   = "memory.ragMemory.persistentMemory"
	ShowArtifacts          = "artifacts"
	ShowArtifactBucket     = "artifacts.bucketName"
	ShowArtifactLocalPath  = "artifacts.localPath"
	ShowA2A                = "a2a"
	ShowA2AAPIKeyHeader    = "a2a.apiKeyHeaderName"
	ShowSubAgents          = "multiAgent.subAgentIds"
	ShowDeploymentResource = "deploy.resources"
)

// StepState describes one wizard tab.
type StepState struct {
	Step    wizard.Step `json:"step"`
	Title   string      `json:"title"`
	Enabled bool        `json:"enabled"`
	Active  bool        `json:"active"`
	Errors  int         `json:"errors"`
}

// ViewState is everything a front end needs to render the editor. It is
// derived from the draft and never edited directly.
type ViewState struct {
	Mode        wizard.Mode           `json:"mode"`
	CurrentStep wizard.Step           `json:"currentStep"`
	Steps       []StepState           `json:"steps"`
	AgentType   agentconfig.AgentType `json:"agentType"`
	Visible     map[string]bool       `json:"visible"`

	Errors     map[string][]string `json:"errors"`
	ErrorCount int                 `json:"errorCount"`
	Valid      bool                `json:"valid"`

	SaveVisible bool `json:"saveVisible"`
	SaveEnabled bool `json:"saveEnabled"`

	SelectedTools     []string `json:"selectedTools"`
	ConfiguredTools   []string `json:"configuredTools"`
	UnconfiguredTools []string `json:"unconfiguredTools"`

	// Session activity, filled in by Session.View.
	Importing  bool     `json:"importing"`
	Suggesting []string `json:"suggesting"`
	Pending    bool     `json:"pending"`
}

// stepPrefixes maps error paths to the tab that edits them.
var stepPrefixes = []struct {
	prefix string
	step   wizard.Step
}{
	{"config.statePersistence", wizard.StepMemoryKnowledge},
	{"config.ragMemory", wizard.StepMemoryKnowledge},
	{"config.artifacts", wizard.StepArtifacts},
	{"config.a2a", wizard.StepA2A},
	{"config.subAgentIds", wizard.StepMultiAgentAdvanced},
	{"config.isRootAgent", wizard.StepMultiAgentAdvanced},
	{"config.globalInstruction", wizard.StepAdvanced},
	{"config.framework", wizard.StepAdvanced},
	{"config", wizard.StepBehavior},
	{"selectedToolIds", wizard.StepTools},
	{"toolConfigurations", wizard.StepTools},
	{"toolSummaries", wizard.StepTools},
	{"deployment", wizard.StepDeploy},
}

// StepFor returns the tab on which the field at path is edited.
func StepFor(path string) wizard.Step {
	for _, p := range stepPrefixes {
		if path == p.prefix || hasPathPrefix(path, p.prefix) {
			return p.step
		}
	}
	return wizard.StepGeneral
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	c := path[len(prefix)]
	return c == '.' || c == '['
}

// DeriveViewState computes the view of draft. credentials reports, per
// tool id, whether the tool's key store reference resolved. It has no side
// effects.
func DeriveViewState(draft *agentconfig.Record, m *wizard.Machine, catalog *toolconfig.Catalog, credentials map[string]bool) ViewState {
	errs := validation.ValidateRecord(draft)
	perStep := map[wizard.Step]int{}
	for _, e := range errs {
		perStep[StepFor(e.Path)]++
	}

	v := ViewState{
		Mode:        m.Mode(),
		CurrentStep: m.Current(),
		Steps:       make([]StepState, 0, len(wizard.Steps)),
		AgentType:   draft.Config.Type(),
		Visible:     visibility(draft),
		Errors:      errs.ByPath(),
		ErrorCount:  len(errs),
		Valid:       len(errs) == 0,
		SaveVisible: m.SaveVisible(),
		SaveEnabled: m.CanSave(len(errs) == 0),
		Suggesting:  []string{},
	}
	for _, s := range wizard.Steps {
		v.Steps = append(v.Steps, StepState{
			Step:    s,
			Title:   s.Title(),
			Enabled: m.IsEnabled(s),
			Active:  s == m.Current(),
			Errors:  perStep[s],
		})
	}
	v.SelectedTools, v.ConfiguredTools, v.UnconfiguredTools = toolStates(draft, catalog, credentials)
	return v
}

func visibility(r *agentconfig.Record) map[string]bool {
	b := r.Config.Base
	vis := map[string]bool{
		ShowStatePersistence:   b.StatePersistence.Enabled,
		ShowStateTTL:           b.StatePersistence.Enabled && b.StatePersistence.DefaultScope == agentconfig.ScopeTemporary,
		ShowRagMemory:          b.RagMemory.Enabled,
		ShowPersistentMemory:   b.RagMemory.Enabled && b.RagMemory.PersistentMemory != nil && b.RagMemory.PersistentMemory.Enabled,
		ShowArtifacts:          b.Artifacts.Enabled,
		ShowArtifactBucket:     b.Artifacts.Enabled && b.Artifacts.Storage == agentconfig.StorageCloud,
		ShowArtifactLocalPath:  b.Artifacts.Enabled && b.Artifacts.Storage == agentconfig.StorageFilesystem,
		ShowA2A:                b.A2A.Enabled,
		ShowA2AAPIKeyHeader:    b.A2A.Enabled && b.A2A.SecurityPolicy == agentconfig.SecurityAPIKey,
		ShowSubAgents:          b.IsRootAgent,
		ShowDeploymentResource: r.Deployment.Platform != agentconfig.PlatformLocal,
		ShowLLM:                false,
		ShowWorkflow:           false,
		ShowCustom:             false,
		ShowMaxIterations:      false,
		ShowGeneratedPrompt:    false,
		ShowManualPrompt:       false,
	}

	switch v := r.Config.Variant.(type) {
	case *agentconfig.LLMSettings:
		vis[ShowLLM] = true
		vis[ShowGeneratedPrompt] = !v.ManualPromptOverride
		vis[ShowManualPrompt] = v.ManualPromptOverride
	case *agentconfig.WorkflowSettings:
		vis[ShowWorkflow] = true
		vis[ShowMaxIterations] = v.WorkflowType == agentconfig.WorkflowLoop
	case *agentconfig.CustomSettings:
		vis[ShowCustom] = true
	}
	return vis
}

// toolStates splits the selection into configured and unconfigured tools.
// Selected ids missing from the catalog count as unconfigured.
func toolStates(r *agentconfig.Record, catalog *toolconfig.Catalog, credentials map[string]bool) (selected, configured, unconfigured []string) {
	selected = slices.Clone(r.SelectedToolIDs)
	if selected == nil {
		selected = []string{}
	}
	configured, unconfigured = []string{}, []string{}
	for _, id := range selected {
		tool, ok := catalog.Get(id)
		if ok && toolconfig.IsConfigured(tool, r.ToolConfigurations[id], credentials[id]) {
			configured = append(configured, id)
		} else {
			unconfigured = append(unconfigured, id)
		}
	}
	return selected, configured, unconfigured
}
