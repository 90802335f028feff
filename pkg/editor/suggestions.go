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
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/observability"
	"github.com/kadirpekel/hector-studio/pkg/suggest"
)

// SuggestionResult is delivered once per RequestSuggestion call.
type SuggestionResult struct {
	Field suggest.Field
	Value string
	Err   error
}

// RequestSuggestion asks the suggestion service for one field. Requests
// for different fields run independently and may finish in any order.
// Concurrent requests for the same field share one call, and its value is
// applied to the draft once. A failed suggestion leaves the draft as it
// was.
//
// Cancelling ctx abandons the wait but not the shared call; closing the
// session cancels it.
func (s *Session) RequestSuggestion(ctx context.Context, field suggest.Field) <-chan SuggestionResult {
	out := make(chan SuggestionResult, 1)
	fail := func(err error) <-chan SuggestionResult {
		out <- SuggestionResult{Field: field, Err: err}
		return out
	}
	if _, err := suggest.ParseField(string(field)); err != nil {
		return fail(err)
	}
	if s.deps.Suggester == nil {
		return fail(ErrNoSuggester)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fail(ErrSessionClosed)
	}
	snapshot := s.draft.Clone()
	s.suggesting[field]++
	s.mu.Unlock()

	flight := s.sf.DoChan(string(field), func() (any, error) {
		return s.runSuggestion(context.WithoutCancel(ctx), field, snapshot)
	})

	go func() {
		var res SuggestionResult
		select {
		case r := <-flight:
			res = SuggestionResult{Field: field, Err: r.Err}
			if v, ok := r.Val.(string); ok {
				res.Value = v
			}
		case <-ctx.Done():
			res = SuggestionResult{Field: field, Err: ctx.Err()}
		}
		s.mu.Lock()
		if s.suggesting[field]--; s.suggesting[field] <= 0 {
			delete(s.suggesting, field)
		}
		s.mu.Unlock()
		out <- res
	}()
	return out
}

// Suggest is the blocking form of RequestSuggestion.
func (s *Session) Suggest(ctx context.Context, field suggest.Field) (string, error) {
	res := <-s.RequestSuggestion(ctx, field)
	return res.Value, res.Err
}

func (s *Session) runSuggestion(parent context.Context, field suggest.Field, snapshot *agentconfig.Record) (string, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	ctx, span := s.tracer.Start(ctx, observability.SpanSuggest)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrSuggestField, string(field)))

	started := s.now()
	value, err := s.deps.Suggester.Suggest(ctx, field, snapshot)
	if err == nil {
		err = s.applySuggestion(field, value)
	}
	s.deps.Metrics.RecordSuggestion(ctx, string(field), s.now().Sub(started), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, ErrSessionClosed) {
			s.logger.Warn("Suggestion failed", "session", s.id, "field", field, "error", err)
			s.notify(Event{Kind: EventSuggestionFailed, Field: string(field), Message: err.Error()})
		}
		return "", err
	}
	s.notify(Event{Kind: EventSuggestionReady, Field: string(field)})
	return value, nil
}

func (s *Session) applySuggestion(field suggest.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	llm, isLLM := s.draft.Config.LLM()
	if field.LLMOnly() && !isLLM {
		return fmt.Errorf("%w: agent is no longer an llm agent", suggest.ErrUnsupportedField)
	}
	switch field {
	case suggest.FieldDescription:
		s.draft.Description = value
	case suggest.FieldGlobalInstruction:
		s.draft.Config.GlobalInstruction = value
	case suggest.FieldAgentGoal:
		llm.Goal = value
	case suggest.FieldSystemPrompt:
		llm.ReplaceGeneratedPrompt(value, s.historyLimit)
	}
	s.revision++
	s.rederive()
	return nil
}

// GeneratePrompt composes the system prompt from the llm settings and
// installs it, moving the previous prompt into history.
func (s *Session) GeneratePrompt() (ViewState, error) {
	return s.Update(func(r *agentconfig.Record) error {
		llm, ok := r.Config.LLM()
		if !ok {
			return fmt.Errorf("%w: system prompts apply to llm agents only", suggest.ErrUnsupportedField)
		}
		llm.ReplaceGeneratedPrompt(agentconfig.ComposeSystemPrompt(r.Name, r.Config.GlobalInstruction, llm), s.historyLimit)
		return nil
	})
}
