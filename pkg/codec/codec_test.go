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

package codec

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/validation"
)

var created = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

func intPtr(v int) *int { return &v }

// fullRecord builds a valid record of type t with every subsystem
// populated, some enabled and some carrying residual values while disabled.
func fullRecord(t *testing.T, typ agentconfig.AgentType) *agentconfig.Record {
	t.Helper()
	r, err := agentconfig.NewRecord(typ, created)
	require.NoError(t, err)

	r.Name = "Support Agent"
	r.Description = "Answers billing questions"
	r.Version = "2.1.0"
	r.Icon = "headset"
	r.Tags = []string{"support", "billing"}
	r.IsFavorite = true
	r.OwnerID = "user-42"
	r.UpdatedAt = created.Add(90 * time.Minute)
	r.SelectedToolIDs = []string{"web-search", "calendar"}
	r.ToolConfigurations = map[string]agentconfig.ToolConfigData{
		"web-search": {Values: map[string]string{"region": "eu"}, CredentialRef: "key-1"},
		"calendar":   {Values: map[string]string{}},
	}
	r.ToolSummaries = []agentconfig.ToolSummary{
		{ToolID: "web-search", Name: "Web Search", Icon: "globe", FunctionName: "web_search"},
	}

	b := &r.Config.Base
	b.Framework = agentconfig.FrameworkLangGraph
	b.IsRootAgent = true
	b.SubAgentIDs = []string{"child-1"}
	b.GlobalInstruction = "Be concise."

	b.StatePersistence.Enabled = true
	b.StatePersistence.DefaultScope = agentconfig.ScopeTemporary
	b.StatePersistence.TTLSeconds = intPtr(3600)
	b.StatePersistence.InitialState = []agentconfig.StateEntry{{Key: "tier", Value: "gold", Scope: agentconfig.ScopeGlobal}}
	b.StatePersistence.ValidationRules = []agentconfig.StateValidationRule{
		{Name: "tier", Type: agentconfig.RuleRegex, Rule: "^(gold|silver)$"},
	}

	// Disabled, with residual values.
	b.RagMemory.Backend = agentconfig.RagBackendVectorDB
	b.RagMemory.KnowledgeSources = []agentconfig.KnowledgeSource{
		{Type: agentconfig.SourceURL, Name: "docs", URL: "https://example.com/docs"},
		{Type: agentconfig.SourceTextChunk, Content: "Refunds take 5 days."},
	}
	b.RagMemory.Retrieval.TopK = 8
	b.RagMemory.Retrieval.SimilarityThreshold = 0.55
	b.RagMemory.PersistentMemory = &agentconfig.PersistentMemory{Enabled: true, Backend: agentconfig.MemoryBackendDatabase, Namespace: "support"}

	b.Artifacts.Storage = agentconfig.StorageCloud
	b.Artifacts.BucketName = "agent-artifacts"
	b.Artifacts.Definitions = []agentconfig.ArtifactDefinition{
		{Name: "report", MimeType: "application/pdf", Required: true, Permission: agentconfig.PermissionRead, Versioning: true},
	}

	b.A2A.Enabled = true
	b.A2A.SecurityPolicy = agentconfig.SecurityAPIKey
	b.A2A.APIKeyHeaderName = "X-API-Key"
	b.A2A.EnableLogging = true
	b.A2A.Channels = []agentconfig.A2AChannel{
		{Name: "requests", Direction: agentconfig.DirectionInbound, MessageFormat: agentconfig.FormatJSON, SyncMode: agentconfig.SyncModeSync},
		{Name: "escalations", Direction: agentconfig.DirectionOutbound, MessageFormat: agentconfig.FormatText, SyncMode: agentconfig.SyncModeAsync, TimeoutSeconds: intPtr(30), TargetAgentID: "human-desk"},
	}

	r.Deployment.Platform = agentconfig.PlatformCloudRun
	r.Deployment.EnvironmentVariables = []agentconfig.EnvVar{{Key: "LOG_LEVEL", Value: "debug"}}
	r.Deployment.Resources = agentconfig.Resources{CPU: "500m", Memory: "1Gi", MinInstances: 1, MaxInstances: 3}

	switch typ {
	case agentconfig.TypeLLM:
		s, _ := r.Config.LLM()
		s.Model = "gemini-2.0-flash"
		s.Temperature = 0.35
		s.Personality = "friendly"
		s.Restrictions = []string{"no legal advice"}
		s.Goal = "Resolve billing questions"
		s.Tasks = []string{"look up invoices", "explain charges"}
		s.SystemPrompt = "You are Support Agent.\n\nGoal: Resolve billing questions"
		s.SystemPromptHistory = []string{"older prompt"}
	case agentconfig.TypeWorkflow:
		s, _ := r.Config.Workflow()
		s.WorkflowType = agentconfig.WorkflowLoop
		s.Description = "retry until resolved"
		s.MaxIterations = intPtr(5)
	case agentconfig.TypeCustom:
		s, _ := r.Config.Custom()
		s.LogicDescription = "routes by keyword"
		s.EntryPoint = "main.handle"
	}
	return r
}

func TestRoundTrip(t *testing.T) {
	for _, typ := range agentconfig.AgentTypes {
		t.Run(string(typ), func(t *testing.T) {
			r := fullRecord(t, typ)
			require.Empty(t, validation.ValidateRecord(r))

			data, err := Serialize(r)
			require.NoError(t, err)

			got, err := Deserialize(data)
			require.NoError(t, err)
			assert.Equal(t, r, got)
		})
	}
}

func TestRoundTrip_FreshRecord(t *testing.T) {
	r, err := agentconfig.NewRecord(agentconfig.TypeSpecialist, created)
	require.NoError(t, err)
	r.Name = "Specialist"

	data, err := Serialize(r)
	require.NoError(t, err)
	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestRoundTrip_ZeroValuedEnums(t *testing.T) {
	r := fullRecord(t, agentconfig.TypeLLM)
	r.Config.StatePersistence.InitialState = []agentconfig.StateEntry{{Key: "k"}}
	r.Config.A2A.Channels = []agentconfig.A2AChannel{{Name: "c", Direction: agentconfig.DirectionInbound}}

	wantPaths := []string{
		"config.a2a.channels[0].messageFormat",
		"config.a2a.channels[0].syncMode",
		"config.statePersistence.initialState[0].scope",
	}
	errs := validation.ValidateRecord(r)
	var got []string
	for _, e := range errs {
		got = append(got, e.Path)
	}
	assert.Equal(t, wantPaths, got)

	data, err := Serialize(r)
	require.NoError(t, err)
	_, err = Deserialize(data)
	var list validation.ErrorList
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, len(wantPaths))

	// Filled in, the same record round-trips unchanged.
	r.Config.StatePersistence.InitialState[0].Scope = agentconfig.ScopeAgent
	r.Config.A2A.Channels[0].MessageFormat = agentconfig.FormatJSON
	r.Config.A2A.Channels[0].SyncMode = agentconfig.SyncModeSync
	require.Empty(t, validation.ValidateRecord(r))

	data, err = Serialize(r)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestRoundTrip_YAML(t *testing.T) {
	for _, typ := range agentconfig.AgentTypes {
		t.Run(string(typ), func(t *testing.T) {
			r := fullRecord(t, typ)

			data, err := SerializeYAML(r)
			require.NoError(t, err)
			assert.Contains(t, string(data), "name: Support Agent")

			got, err := DeserializeYAML(data)
			require.NoError(t, err)
			assert.Equal(t, r, got)
		})
	}
}

func TestSerialize_EmitsDisabledSubsystems(t *testing.T) {
	r := fullRecord(t, agentconfig.TypeLLM)

	data, err := Serialize(r)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	cfg := doc["config"].(map[string]any)

	rag := cfg["ragMemory"].(map[string]any)
	assert.Equal(t, false, rag["enabled"])
	assert.Len(t, rag["knowledgeSources"], 2)

	artifacts := cfg["artifacts"].(map[string]any)
	assert.Equal(t, false, artifacts["enabled"])
	assert.Equal(t, "agent-artifacts", artifacts["bucketName"])

	assert.Contains(t, cfg, "manualSystemPrompt")
	assert.Equal(t, "llm", cfg["type"])
}

func TestSerialize_NilCollectionsBecomeEmpty(t *testing.T) {
	r := fullRecord(t, agentconfig.TypeCustom)
	r.Tags = nil
	r.ToolConfigurations = nil

	data, err := Serialize(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags": []`)
	assert.Contains(t, string(data), `"toolConfigurations": {}`)
	assert.Nil(t, r.Tags, "serialize must not mutate its input")
}

func TestDeserialize_DropsUnknownKeys(t *testing.T) {
	doc := `{
		"name": "extra",
		"favouriteColour": "teal",
		"config": {"type": "a2a-specialist", "framework": "adk", "legacyFlag": true}
	}`

	r, err := Deserialize([]byte(doc))
	require.NoError(t, err)

	out, err := Serialize(r)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "favouriteColour")
	assert.NotContains(t, string(out), "legacyFlag")
}

func TestDeserialize_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantImport bool
	}{
		{"malformed", `{"name": `, true},
		{"array", `[1, 2, 3]`, true},
		{"trailing data", `{"name":"a"} {"name":"b"}`, true},
		{"empty", ``, true},
		{"invalid record", `{"name": "x", "config": {"type": "llm", "framework": "adk"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Deserialize([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, r)

			var importErr *ImportError
			var errs validation.ErrorList
			if tt.wantImport {
				assert.True(t, errors.As(err, &importErr))
				assert.Equal(t, FormatJSON, importErr.Format)
			} else {
				require.True(t, errors.As(err, &errs))
				assert.Len(t, errs, 3)
			}
		})
	}
}

func TestImportAsNew(t *testing.T) {
	r := fullRecord(t, agentconfig.TypeLLM)
	r.InternalVersion = 4
	r.IsLatest = false
	data, err := Serialize(r)
	require.NoError(t, err)

	now := created.Add(48 * time.Hour)
	got, err := ImportAsNew(data, now)
	require.NoError(t, err)

	assert.NotEqual(t, r.ID, got.ID)
	assert.Equal(t, got.ID, got.OriginalAgentID)
	assert.Equal(t, 1, got.InternalVersion)
	assert.True(t, got.IsLatest)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)

	// Everything else survives unchanged.
	got.ID, got.OriginalAgentID = r.ID, r.OriginalAgentID
	got.InternalVersion, got.IsLatest = r.InternalVersion, r.IsLatest
	got.CreatedAt, got.UpdatedAt = r.CreatedAt, r.UpdatedAt
	assert.Equal(t, r, got)
}

func TestDeserializeYAML_Rejections(t *testing.T) {
	_, err := DeserializeYAML([]byte("- just\n- a list\n"))
	var importErr *ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, FormatYAML, importErr.Format)

	_, err = DeserializeYAML([]byte("name: [unterminated"))
	assert.True(t, errors.As(err, &importErr))
}

func TestDeserializeYAML_HandWritten(t *testing.T) {
	doc := `
name: Nightly Sync
createdAt: 2025-01-01T00:00:00Z
updatedAt: 2025-01-02T00:00:00Z
config:
  type: workflow
  framework: adk
  workflowType: loop
  maxIterations: 3
deployment:
  resources:
    memory: 256Mi
`
	r, err := DeserializeYAML([]byte(doc))
	require.NoError(t, err)

	wf, ok := r.Config.Workflow()
	require.True(t, ok)
	assert.Equal(t, 3, *wf.MaxIterations)
	assert.Equal(t, "256Mi", r.Deployment.Resources.Memory)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), r.UpdatedAt)
}

func TestToMap(t *testing.T) {
	r := fullRecord(t, agentconfig.TypeLLM)
	m, err := ToMap(r)
	require.NoError(t, err)

	cfg := m["config"].(map[string]any)
	assert.Equal(t, json.Number("0.35"), cfg["agentTemperature"])

	back, errs := validation.Validate(m)
	require.Empty(t, errs)
	assert.Equal(t, r, back)
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"Support Agent", FormatJSON, "support-agent-config.json"},
		{"  Billing/Refunds Bot  ", FormatJSON, "billing-refunds-bot-config.json"},
		{"", FormatJSON, "agent-config.json"},
		{"Support Agent", FormatYAML, "support-agent-config.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFileNameFor(tt.name, tt.format))
		})
	}
	assert.Equal(t, "support-agent-config.json", ExportFileName("Support Agent"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"", FormatJSON, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, FormatYAML, FormatFromPath("agents/support.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("agents/support.json"))
}
