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
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/httpclient"
)

type GeminiConfig struct {
	APIKey string

	// Model defaults to gemini-2.0-flash.
	Model string

	BaseURL string

	// Timeout bounds a single request; zero means no limit beyond ctx.
	Timeout time.Duration
}

// Gemini asks a Gemini model for suggestions.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpclient.New().HTTPClient(0),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

func (g *Gemini) Suggest(ctx context.Context, field Field, draft *agentconfig.Record) (string, error) {
	if _, err := checkField(field, draft); err != nil {
		return "", err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(field, draft), genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.4)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini generation failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptySuggestion
	}
	if field == FieldSystemPrompt {
		return clampPrompt(text), nil
	}
	return text, nil
}

const systemInstruction = "You help people configure AI agents. Reply with the requested field value only: " +
	"no preamble, no quotes, no markdown headings."

var fieldInstructions = map[Field]string{
	FieldDescription:       "Write a one or two sentence description of this agent for a catalog listing.",
	FieldGlobalInstruction: "Write a short global instruction that every agent in this agent's tree should follow.",
	FieldAgentGoal:         "Write a single-sentence goal for this agent.",
	FieldSystemPrompt:      "Write a complete system prompt for this agent, covering its goal, tasks and restrictions.",
}

// buildPrompt summarizes the non-secret parts of the draft.
func buildPrompt(field Field, draft *agentconfig.Record) string {
	var sb strings.Builder
	sb.WriteString(fieldInstructions[field])
	sb.WriteString("\n\nAgent:\n")
	line := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", k, v)
		}
	}
	list := func(k string, vs []string) {
		if len(vs) > 0 {
			line(k, strings.Join(vs, "; "))
		}
	}

	line("name", draft.Name)
	line("type", string(draft.Config.Type()))
	line("framework", string(draft.Config.Framework))
	if field != FieldDescription {
		line("description", draft.Description)
	}
	if field != FieldGlobalInstruction {
		line("global instruction", draft.Config.GlobalInstruction)
	}
	list("tags", draft.Tags)
	list("tools", draft.SelectedToolIDs)

	switch v := draft.Config.Variant.(type) {
	case *agentconfig.LLMSettings:
		line("model", v.Model)
		line("personality", v.Personality)
		if field != FieldAgentGoal {
			line("goal", v.Goal)
		}
		list("tasks", v.Tasks)
		list("restrictions", v.Restrictions)
	case *agentconfig.WorkflowSettings:
		line("workflow type", string(v.WorkflowType))
		line("workflow description", v.Description)
	case *agentconfig.CustomSettings:
		line("logic", v.LogicDescription)
	}
	return sb.String()
}
