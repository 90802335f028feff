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
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/observability"
	"github.com/kadirpekel/hector-studio/pkg/validation"
)

// ImportResult is delivered once per StartImport call.
type ImportResult struct {
	Record *agentconfig.Record
	Err    error
}

// StartImport reads and validates a document in the background. Only one
// import runs at a time: starting another cancels the previous one, whose
// result then carries ErrImportSuperseded. A successful import replaces
// the whole draft; a failed one leaves it untouched.
//
// In create mode the imported record gets a fresh identity. In edit mode
// it keeps the identity of the agent being edited, so saving appends a
// version.
func (s *Session) StartImport(ctx context.Context, src io.Reader, f codec.Format) <-chan ImportResult {
	out := make(chan ImportResult, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		out <- ImportResult{Err: ErrSessionClosed}
		return out
	}
	if s.importCancel != nil {
		s.importCancel()
	}
	s.importGen++
	gen := s.importGen
	ictx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	if s.importTimeout > 0 {
		var tcancel context.CancelFunc
		ictx, tcancel = context.WithTimeout(ictx, s.importTimeout)
		prev := cancel
		cancel = func() { tcancel(); prev() }
	}
	s.importCancel = cancel
	s.mu.Unlock()

	go func() {
		defer stop()
		defer cancel()
		res := s.runImport(ictx, gen, src, f)
		out <- res
	}()
	return out
}

// Import is the blocking form of StartImport.
func (s *Session) Import(ctx context.Context, src io.Reader, f codec.Format) (*agentconfig.Record, error) {
	res := <-s.StartImport(ctx, src, f)
	return res.Record, res.Err
}

// CancelImport stops the in-flight import, if any.
func (s *Session) CancelImport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.importCancel != nil {
		s.importCancel()
		s.importCancel = nil
		s.cancelledGen = s.importGen
		s.importGen++
	}
}

func (s *Session) runImport(ctx context.Context, gen uint64, src io.Reader, f codec.Format) ImportResult {
	ctx, span := s.tracer.Start(ctx, observability.SpanImport)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrDocumentFormat, string(f)))

	started := s.now()
	r, err := s.readDocument(ctx, src, f)
	var credentials map[string]bool
	if err == nil {
		credentials = s.resolveCredentials(ctx, r)
	}

	s.mu.Lock()
	switch {
	case s.closed:
		err = ErrSessionClosed
	case s.cancelledGen == gen:
		err = fmt.Errorf("import cancelled: %w", context.Canceled)
	case s.importGen != gen:
		err = ErrImportSuperseded
	case ctx.Err() != nil && err != nil:
		err = fmt.Errorf("import cancelled: %w", ctx.Err())
	}
	if s.importGen == gen {
		s.importCancel = nil
	}
	if err == nil {
		s.installImport(r, credentials)
		r = s.draft.Clone()
	}
	s.mu.Unlock()

	outcome := importOutcome(err)
	s.deps.Metrics.RecordImport(ctx, string(f), outcome)
	span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		var errs validation.ErrorList
		if errors.As(err, &errs) {
			s.recordValidation(ctx, "import", errs)
		}
		if !errors.Is(err, ErrSessionClosed) {
			s.logger.Info("Import rejected", "session", s.id, "format", f, "outcome", outcome, "error", err)
			s.notify(Event{Kind: EventImportFailed, Message: err.Error()})
		}
		return ImportResult{Err: err}
	}

	s.logger.Info("Import applied", "session", s.id, "agent", r.Name, "duration", time.Since(started))
	s.notify(Event{Kind: EventImportCompleted, AgentID: r.ID})
	return ImportResult{Record: r}
}

func (s *Session) readDocument(ctx context.Context, src io.Reader, f codec.Format) (*agentconfig.Record, error) {
	data, err := io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: src}, MaxImportBytes+1))
	if err != nil {
		return nil, &codec.ImportError{Format: f, Err: err}
	}
	if len(data) > MaxImportBytes {
		return nil, &codec.ImportError{Format: f, Err: ErrImportTooLarge}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return codec.Decode(data, f)
}

// installImport must be called with mu held.
func (s *Session) installImport(r *agentconfig.Record, credentials map[string]bool) {
	now := s.now()
	if s.persisted {
		adoptIdentity(r, s.draft)
		r.Touch(now)
	} else {
		codec.AssignNewIdentity(r, now)
		r.OwnerID = s.owner
	}
	r.Normalize()

	s.credentials = credentials
	s.draft = r
	s.revision++
	s.rederive()
}

func importOutcome(err error) string {
	var (
		errs validation.ErrorList
		ie   *codec.ImportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrImportSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrSessionClosed):
		return "cancelled"
	case errors.As(err, &errs):
		return "invalid"
	case errors.As(err, &ie):
		return "rejected"
	default:
		return "error"
	}
}
