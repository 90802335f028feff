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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
	"github.com/kadirpekel/hector-studio/pkg/wizard"
)

func TestStepFor(t *testing.T) {
	tests := map[string]wizard.Step{
		"name":                                 wizard.StepGeneral,
		"semanticVersion":                      wizard.StepGeneral,
		"config.agentModel":                    wizard.StepBehavior,
		"config.type":                          wizard.StepBehavior,
		"config.ragMemory.knowledgeSources[0]": wizard.StepMemoryKnowledge,
		"config.statePersistence.ttlSeconds":   wizard.StepMemoryKnowledge,
		"config.artifacts.bucketName":          wizard.StepArtifacts,
		"config.a2a.apiKeyHeaderName":          wizard.StepA2A,
		"config.subAgentIds[1]":                wizard.StepMultiAgentAdvanced,
		"config.globalInstruction":             wizard.StepAdvanced,
		"toolConfigurations":                   wizard.StepTools,
		"deployment.resources.cpu":             wizard.StepDeploy,
		"configuration":                        wizard.StepGeneral,
	}
	for path, want := range tests {
		assert.Equal(t, want, StepFor(path), path)
	}
}

func TestDeriveViewState_CountsErrorsPerStep(t *testing.T) {
	r, err := agentconfig.NewRecord(agentconfig.TypeLLM, t0)
	require.NoError(t, err)
	r.Config.A2A.Enabled = true
	r.Config.A2A.SecurityPolicy = agentconfig.SecurityAPIKey

	v := DeriveViewState(r, wizard.New(wizard.ModeCreate), nil, nil)
	assert.False(t, v.Valid)
	assert.Equal(t, len(v.Errors), v.ErrorCount)
	assert.Contains(t, v.Errors, "name")
	assert.Contains(t, v.Errors, "config.a2a.apiKeyHeaderName")

	perStep := map[wizard.Step]int{}
	for _, s := range v.Steps {
		perStep[s.Step] = s.Errors
	}
	assert.Equal(t, 1, perStep[wizard.StepGeneral])
	assert.Equal(t, 3, perStep[wizard.StepBehavior])
	assert.Equal(t, 1, perStep[wizard.StepA2A])
	assert.True(t, v.Visible[ShowA2AAPIKeyHeader])
	assert.False(t, v.SaveEnabled)
}

func TestDeriveViewState_Visibility(t *testing.T) {
	tests := []struct {
		name    string
		typ     agentconfig.AgentType
		edit    func(r *agentconfig.Record)
		visible []string
		hidden  []string
	}{
		{
			name:    "fresh llm",
			typ:     agentconfig.TypeLLM,
			visible: []string{ShowLLM, ShowGeneratedPrompt},
			hidden:  []string{ShowWorkflow, ShowManualPrompt, ShowStatePersistence, ShowRagMemory, ShowArtifacts, ShowA2A, ShowSubAgents},
		},
		{
			name: "manual prompt",
			typ:  agentconfig.TypeLLM,
			edit: func(r *agentconfig.Record) {
				llm, _ := r.Config.LLM()
				llm.ManualPromptOverride = true
			},
			visible: []string{ShowManualPrompt},
			hidden:  []string{ShowGeneratedPrompt},
		},
		{
			name: "loop workflow",
			typ:  agentconfig.TypeWorkflow,
			edit: func(r *agentconfig.Record) {
				wf, _ := r.Config.Workflow()
				wf.WorkflowType = agentconfig.WorkflowLoop
			},
			visible: []string{ShowWorkflow, ShowMaxIterations},
			hidden:  []string{ShowLLM, ShowCustom},
		},
		{
			name: "cloud artifacts and root agent",
			typ:  agentconfig.TypeCustom,
			edit: func(r *agentconfig.Record) {
				r.Config.Artifacts.Enabled = true
				r.Config.Artifacts.Storage = agentconfig.StorageCloud
				r.Config.IsRootAgent = true
			},
			visible: []string{ShowCustom, ShowArtifacts, ShowArtifactBucket, ShowSubAgents},
			hidden:  []string{ShowArtifactLocalPath},
		},
		{
			name: "temporary state",
			typ:  agentconfig.TypeSpecialist,
			edit: func(r *agentconfig.Record) {
				r.Config.StatePersistence.Enabled = true
				r.Config.StatePersistence.DefaultScope = agentconfig.ScopeTemporary
			},
			visible: []string{ShowStatePersistence, ShowStateTTL},
			hidden:  []string{ShowLLM, ShowWorkflow, ShowCustom},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := agentconfig.NewRecord(tt.typ, t0)
			require.NoError(t, err)
			if tt.edit != nil {
				tt.edit(r)
			}
			v := DeriveViewState(r, wizard.New(wizard.ModeEdit), nil, nil)
			for _, k := range tt.visible {
				assert.True(t, v.Visible[k], k)
			}
			for _, k := range tt.hidden {
				assert.False(t, v.Visible[k], k)
			}
		})
	}
}

func TestDeriveViewState_DoesNotMutateDraft(t *testing.T) {
	r := validRecord(t)
	r.SelectedToolIDs = []string{"weather"}
	before := r.Clone()

	catalog, err := toolconfig.NewCatalog(toolconfig.DefaultTools())
	require.NoError(t, err)
	v := DeriveViewState(r, wizard.New(wizard.ModeEdit), catalog, map[string]bool{})

	assert.Equal(t, before, r)
	assert.True(t, v.Valid)
	assert.True(t, v.SaveEnabled)
	assert.Equal(t, []string{"weather"}, v.UnconfiguredTools)
	assert.Empty(t, v.ConfiguredTools)
}
