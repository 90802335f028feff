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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_Defaults(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, typ := range AgentTypes {
		t.Run(string(typ), func(t *testing.T) {
			r, err := NewRecord(typ, now)
			require.NoError(t, err)

			assert.NotEmpty(t, r.ID)
			assert.Equal(t, r.ID, r.OriginalAgentID)
			assert.Equal(t, 1, r.InternalVersion)
			assert.True(t, r.IsLatest)
			assert.Equal(t, typ, r.Config.Type())
			assert.Equal(t, now, r.CreatedAt)
			assert.Equal(t, now, r.UpdatedAt)

			assert.False(t, r.Config.StatePersistence.Enabled)
			assert.False(t, r.Config.RagMemory.Enabled)
			assert.False(t, r.Config.Artifacts.Enabled)
			assert.False(t, r.Config.A2A.Enabled)
		})
	}
}

func TestNewRecord_UnknownType(t *testing.T) {
	_, err := NewRecord("robot", time.Now())
	assert.Error(t, err)
}

func TestAgentConfig_JSONIsFlat(t *testing.T) {
	r, err := NewRecord(TypeLLM, time.Now())
	require.NoError(t, err)
	llm, _ := r.Config.LLM()
	llm.Model = "model-x"

	data, err := json.Marshal(r.Config)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "llm", flat["type"])
	assert.Equal(t, "model-x", flat["agentModel"])
	assert.Contains(t, flat, "statePersistence")
	assert.NotContains(t, flat, "workflowType")
}

func TestAgentConfig_UnmarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
	}{
		{"llm", &LLMSettings{Model: "m", Temperature: 0.2, Restrictions: []string{}, Tasks: []string{"a"}, SystemPromptHistory: []string{}}},
		{"workflow", &WorkflowSettings{WorkflowType: WorkflowLoop, MaxIterations: intPtr(3)}},
		{"custom", &CustomSettings{LogicDescription: "does things"}},
		{"a2a-specialist", &SpecialistSettings{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := AgentConfig{Base: Base{Framework: FrameworkADK}, Variant: tt.variant}
			data, err := json.Marshal(in)
			require.NoError(t, err)

			var out AgentConfig
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, in.Type(), out.Type())
			assert.Equal(t, tt.variant, out.Variant)
		})
	}
}

func TestAgentConfig_UnmarshalUnknownType(t *testing.T) {
	var c AgentConfig
	err := json.Unmarshal([]byte(`{"type":"robot"}`), &c)
	assert.Error(t, err)
}

func TestAgentConfig_MarshalWithoutVariant(t *testing.T) {
	_, err := json.Marshal(AgentConfig{})
	assert.Error(t, err)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r, err := NewRecord(TypeLLM, time.Now())
	require.NoError(t, err)
	r.Tags = append(r.Tags, "a")

	c := r.Clone()
	c.Tags[0] = "b"
	llm, _ := c.Config.LLM()
	llm.Model = "changed"

	assert.Equal(t, "a", r.Tags[0])
	orig, _ := r.Config.LLM()
	assert.Empty(t, orig.Model)
}

func TestRecord_Touch(t *testing.T) {
	created := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	r := &Record{CreatedAt: created}

	r.Touch(created.Add(-time.Hour))
	assert.Equal(t, created, r.UpdatedAt, "updatedAt never precedes createdAt")

	later := created.Add(time.Hour)
	r.Touch(later)
	assert.Equal(t, later, r.UpdatedAt)
}

func TestRecord_ChangeType(t *testing.T) {
	r, err := NewRecord(TypeLLM, time.Now())
	require.NoError(t, err)
	r.Config.GlobalInstruction = "keep me"

	require.NoError(t, r.ChangeType(TypeWorkflow))
	assert.Equal(t, TypeWorkflow, r.Config.Type())
	assert.Equal(t, "keep me", r.Config.GlobalInstruction)
	assert.Error(t, r.ChangeType("robot"))
}

func TestRecord_Normalize(t *testing.T) {
	r := &Record{
		Config:             AgentConfig{Variant: &LLMSettings{}},
		ToolConfigurations: map[string]ToolConfigData{"search": {}},
	}
	r.Normalize()

	assert.NotNil(t, r.Tags)
	assert.NotNil(t, r.Config.SubAgentIDs)
	assert.NotNil(t, r.ToolConfigurations["search"].Values)
	llm, _ := r.Config.LLM()
	assert.NotNil(t, llm.Tasks)
}

func TestLLMSettings_EffectivePrompt(t *testing.T) {
	s := &LLMSettings{SystemPrompt: "generated", ManualSystemPrompt: "manual"}
	assert.Equal(t, "generated", s.EffectivePrompt())

	s.ManualPromptOverride = true
	assert.Equal(t, "manual", s.EffectivePrompt())
}

func TestLLMSettings_ReplaceGeneratedPrompt(t *testing.T) {
	s := &LLMSettings{}
	for i := 0; i < 5; i++ {
		s.ReplaceGeneratedPrompt(strings.Repeat("p", i+1), 3)
	}
	assert.Equal(t, "ppppp", s.SystemPrompt)
	assert.Equal(t, []string{"pp", "ppp", "pppp"}, s.SystemPromptHistory)

	s.ReplaceGeneratedPrompt("ppppp", 3)
	assert.Len(t, s.SystemPromptHistory, 3, "same prompt is not pushed")
}

func TestComposeSystemPrompt(t *testing.T) {
	s := &LLMSettings{
		Personality:  "friendly",
		Goal:         "Answer billing questions",
		Tasks:        []string{"look up invoices", " ", "explain charges"},
		Restrictions: []string{"never share card numbers"},
	}

	got := ComposeSystemPrompt("Billing Bot", "Be concise", s)
	assert.Contains(t, got, "You are Billing Bot. Your personality: friendly.")
	assert.Contains(t, got, "1. look up invoices\n2. explain charges")
	assert.Contains(t, got, "- never share card numbers")
	assert.True(t, strings.HasSuffix(got, "Be concise"))
	assert.Equal(t, got, ComposeSystemPrompt("Billing Bot", "Be concise", s))
}

func TestKnowledgeSource_Payload(t *testing.T) {
	field, value := KnowledgeSource{Type: SourceURL, URL: "https://x"}.Payload()
	assert.Equal(t, "url", field)
	assert.Equal(t, "https://x", value)
}

func intPtr(v int) *int { return &v }
