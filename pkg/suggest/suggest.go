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

// Package suggest produces field suggestions for the agent editor.
//
// A Suggester sees a snapshot of the draft and returns text for a single
// field. Suggestions never mutate the record; the editor decides how to
// apply them.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/config"
)

// Field names a suggestable draft field.
type Field string

const (
	FieldDescription       Field = "description"
	FieldGlobalInstruction Field = "globalInstruction"
	FieldAgentGoal         Field = "agentGoal"
	FieldSystemPrompt      Field = "systemPrompt"
)

// Fields lists every suggestable field.
var Fields = []Field{FieldDescription, FieldGlobalInstruction, FieldAgentGoal, FieldSystemPrompt}

var (
	ErrUnsupportedField = errors.New("field cannot be suggested")
	ErrEmptySuggestion  = errors.New("suggestion service returned no text")
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedField, s)
}

// LLMOnly reports whether the field only applies to llm agents.
func (f Field) LLMOnly() bool {
	return f == FieldAgentGoal || f == FieldSystemPrompt
}

// Suggester returns a suggested value for one field of a draft.
type Suggester interface {
	Suggest(ctx context.Context, field Field, draft *agentconfig.Record) (string, error)
}

// New builds the suggester selected by cfg.
func New(ctx context.Context, cfg config.SuggestConfig) (Suggester, error) {
	switch cfg.Provider {
	case "", "template":
		return Template{}, nil
	case "gemini":
		return NewGemini(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported suggestion provider: %s (supported: template, gemini)", cfg.Provider)
	}
}

func checkField(field Field, draft *agentconfig.Record) (*agentconfig.LLMSettings, error) {
	if draft == nil {
		return nil, errors.New("draft is required")
	}
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}
	llm, ok := draft.Config.LLM()
	if field.LLMOnly() && !ok {
		return nil, fmt.Errorf("%w: %s applies to llm agents only", ErrUnsupportedField, field)
	}
	return llm, nil
}

func clampPrompt(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > agentconfig.MaxPromptLength {
		s = string(r[:agentconfig.MaxPromptLength])
	}
	return s
}
