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

package suggest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/config"
)

func draft(t *testing.T, typ agentconfig.AgentType) *agentconfig.Record {
	t.Helper()
	r, err := agentconfig.NewRecord(typ, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	r.Name = "Trip Planner"
	if s, ok := r.Config.LLM(); ok {
		s.Model = "model-x"
		s.Goal = "Plan weekend trips."
		s.Tasks = []string{"find trains", "book hotels"}
		s.Restrictions = []string{"no flights"}
	}
	return r
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, err := ParseField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseField("agentModel")
	assert.ErrorIs(t, err, ErrUnsupportedField)
}

func TestTemplate_Suggest(t *testing.T) {
	ctx := context.Background()
	r := draft(t, agentconfig.TypeLLM)
	r.SelectedToolIDs = []string{"weather", "calendar"}

	desc, err := Template{}.Suggest(ctx, FieldDescription, r)
	require.NoError(t, err)
	assert.Equal(t, "Trip Planner is an LLM agent running on model-x whose goal is to plan weekend trips, using 2 tools.", desc)

	global, err := Template{}.Suggest(ctx, FieldGlobalInstruction, r)
	require.NoError(t, err)
	assert.Contains(t, global, "Trip Planner")

	goal, err := Template{}.Suggest(ctx, FieldAgentGoal, r)
	require.NoError(t, err)
	assert.Equal(t, "Help users accomplish tasks as Trip Planner.", goal)

	r.Description = "Finds rail routes."
	goal, err = Template{}.Suggest(ctx, FieldAgentGoal, r)
	require.NoError(t, err)
	assert.Equal(t, "Help users by acting as follows: Finds rail routes", goal)

	prompt, err := Template{}.Suggest(ctx, FieldSystemPrompt, r)
	require.NoError(t, err)
	llm, _ := r.Config.LLM()
	assert.Equal(t, agentconfig.ComposeSystemPrompt(r.Name, r.Config.GlobalInstruction, llm), prompt)
	assert.Contains(t, prompt, "1. find trains")
}

func TestTemplate_RejectsLLMFieldsOnOtherTypes(t *testing.T) {
	for _, typ := range []agentconfig.AgentType{agentconfig.TypeWorkflow, agentconfig.TypeCustom, agentconfig.TypeSpecialist} {
		r := draft(t, typ)
		_, err := Template{}.Suggest(context.Background(), FieldAgentGoal, r)
		assert.ErrorIs(t, err, ErrUnsupportedField, typ)
		_, err = Template{}.Suggest(context.Background(), FieldSystemPrompt, r)
		assert.ErrorIs(t, err, ErrUnsupportedField, typ)

		desc, err := Template{}.Suggest(context.Background(), FieldDescription, r)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(desc, "Trip Planner is a"), desc)
	}
}

func TestTemplate_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Template{}.Suggest(ctx, FieldDescription, draft(t, agentconfig.TypeLLM))
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeGemini struct {
	reply string
	calls atomic.Int32
	last  atomic.Value
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}
	f.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	f.last.Store(string(body))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": f.reply}},
			},
			"finishReason": "STOP",
		}},
	})
}

func newFakeGemini(t *testing.T, reply string) (*fakeGemini, *Gemini) {
	t.Helper()
	fake := &fakeGemini{reply: reply}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return fake, g
}

func TestGemini_Suggest(t *testing.T) {
	fake, g := newFakeGemini(t, "  Plan relaxed weekend trips by train.\n")
	r := draft(t, agentconfig.TypeLLM)

	got, err := g.Suggest(context.Background(), FieldAgentGoal, r)
	require.NoError(t, err)
	assert.Equal(t, "Plan relaxed weekend trips by train.", got)
	assert.EqualValues(t, 1, fake.calls.Load())

	body := fake.last.Load().(string)
	assert.Contains(t, body, "single-sentence goal")
	assert.Contains(t, body, "model-x")
	assert.NotContains(t, body, "Plan weekend trips", "the field being suggested is not fed back")
}

func TestGemini_EmptyReply(t *testing.T) {
	_, g := newFakeGemini(t, "   ")
	_, err := g.Suggest(context.Background(), FieldDescription, draft(t, agentconfig.TypeLLM))
	assert.ErrorIs(t, err, ErrEmptySuggestion)
}

func TestGemini_RejectsBeforeCalling(t *testing.T) {
	fake, g := newFakeGemini(t, "x")
	_, err := g.Suggest(context.Background(), FieldSystemPrompt, draft(t, agentconfig.TypeWorkflow))
	assert.ErrorIs(t, err, ErrUnsupportedField)
	assert.Zero(t, fake.calls.Load())
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.SuggestConfig{})
	require.NoError(t, err)
	assert.IsType(t, Template{}, s)

	_, err = New(context.Background(), config.SuggestConfig{Provider: "gemini"})
	assert.Error(t, err)

	s, err = New(context.Background(), config.SuggestConfig{Provider: "gemini", APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, &Gemini{}, s)

	_, err = New(context.Background(), config.SuggestConfig{Provider: "openai"})
	assert.Error(t, err)
}
