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

// Package editor owns the in-memory draft of one agent while it is being
// edited.
//
// A Session is the only writer of its draft. Synchronous operations
// (field edits, navigation, tool settings) mutate the draft and re-derive
// the ViewState before returning. Imports and suggestions run in the
// background and resolve into draft mutations; their failures are reported
// as events and never touch the draft. Closing a session discards the draft.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/romdo/go-debounce"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/observability"
	"github.com/kadirpekel/hector-studio/pkg/store"
	"github.com/kadirpekel/hector-studio/pkg/suggest"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
	"github.com/kadirpekel/hector-studio/pkg/validation"
	"github.com/kadirpekel/hector-studio/pkg/wizard"
)

var (
	ErrSessionClosed    = errors.New("editor session is closed")
	ErrUnknownTool      = errors.New("tool is not in the catalog")
	ErrToolNotSelected  = errors.New("tool is not selected")
	ErrUnknownToolField = errors.New("tool does not declare this field")
	ErrSecretValue      = errors.New("secret fields take a key store reference, not a value")
	ErrImportSuperseded = errors.New("import superseded by a newer import")
	ErrImportTooLarge   = errors.New("document exceeds the import size limit")
	ErrNoSuggester      = errors.New("no suggestion service configured")
	ErrSaveNotAvailable = errors.New("save is only available on the review step")
)

const (
	DefaultDebounceWait    = 300 * time.Millisecond
	DefaultDebounceMaxWait = 2 * time.Second

	// MaxImportBytes bounds an imported document.
	MaxImportBytes = 4 << 20
)

// Deps are the collaborators a session talks to. Store is required; the
// rest may be nil.
type Deps struct {
	Store     store.Store
	Keys      keystore.Store
	Catalog   *toolconfig.Catalog
	Suggester suggest.Suggester
	Metrics   *observability.Metrics
	Tracer    trace.Tracer
	Logger    *slog.Logger
}

type Option func(*Session)

// WithNotifier adds a receiver for session events. It may be given more
// than once.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifiers = append(s.notifiers, n) }
}

// WithClock overrides the source of timestamps written to the draft.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithDebounce sets the quiet period and the upper bound on how long a
// burst of debounced edits may defer re-derivation.
func WithDebounce(wait, maxWait time.Duration) Option {
	return func(s *Session) {
		s.wait, s.maxWait = wait, maxWait
	}
}

// WithImportTimeout bounds reading and validating one imported document.
func WithImportTimeout(d time.Duration) Option {
	return func(s *Session) { s.importTimeout = d }
}

func WithPromptHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = n }
}

// WithOwner stamps new agents with ownerID on first save.
func WithOwner(ownerID string) Option {
	return func(s *Session) { s.owner = ownerID }
}

// Session edits one draft. All methods are safe for concurrent use.
type Session struct {
	id            string
	owner         string
	deps          Deps
	resolver      *toolconfig.Resolver
	logger        *slog.Logger
	tracer        trace.Tracer
	notifiers     multiNotifier
	now           func() time.Time
	wait          time.Duration
	maxWait       time.Duration
	historyLimit  int
	importTimeout time.Duration

	// ctx ends when the session closes.
	ctx    context.Context
	cancel context.CancelFunc

	debounced      func()
	cancelDebounce func()
	sf             singleflight.Group

	mu           sync.Mutex
	draft        *agentconfig.Record
	machine      *wizard.Machine
	credentials  map[string]bool
	view         ViewState
	revision     uint64
	stale        bool
	persisted    bool
	closed       bool
	importGen    uint64
	cancelledGen uint64
	importCancel context.CancelFunc
	suggesting   map[suggest.Field]int
}

// New starts a session on a copy of draft. In edit mode the draft is
// treated as an existing agent and saving appends a version; in create mode
// the first save creates a new agent.
func New(ctx context.Context, deps Deps, draft *agentconfig.Record, mode wizard.Mode, opts ...Option) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("agent store is required")
	}
	if draft == nil {
		return nil, errors.New("draft is required")
	}

	s := &Session{
		id:           uuid.NewString(),
		deps:         deps,
		resolver:     toolconfig.NewResolver(deps.Keys),
		logger:       deps.Logger,
		tracer:       deps.Tracer,
		now:          time.Now,
		wait:         DefaultDebounceWait,
		maxWait:      DefaultDebounceMaxWait,
		historyLimit: agentconfig.PromptHistoryLimit,
		machine:      wizard.New(mode),
		persisted:    mode == wizard.ModeEdit,
		suggesting:   map[suggest.Field]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}
	if s.maxWait < s.wait {
		s.maxWait = s.wait
	}

	s.draft = draft.Clone()
	s.draft.Normalize()
	s.credentials = s.resolveCredentials(ctx, s.draft)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.debounced, s.cancelDebounce = debounce.NewWithMaxWait(s.wait, s.maxWait, s.recompute)

	s.rederive()
	s.logger.Debug("Editor session opened", "session", s.id, "mode", mode, "agent", s.draft.ID)
	return s, nil
}

// NewDraft starts a create-mode session on a fresh record of type t.
func NewDraft(ctx context.Context, deps Deps, t agentconfig.AgentType, opts ...Option) (*Session, error) {
	s := &Session{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	r, err := agentconfig.NewRecord(t, s.now())
	if err != nil {
		return nil, err
	}
	return New(ctx, deps, r, wizard.ModeCreate, opts...)
}

// Open starts an edit-mode session on the latest stored version of the
// agent with the given id.
func Open(ctx context.Context, deps Deps, agentID string, opts ...Option) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("agent store is required")
	}
	r, err := deps.Store.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !r.IsLatest {
		if r, err = deps.Store.Latest(ctx, r.OriginalAgentID); err != nil {
			return nil, err
		}
	}
	return New(ctx, deps, r, wizard.ModeEdit, opts...)
}

func (s *Session) ID() string { return s.id }

// Owner is the owner new agents are stamped with.
func (s *Session) Owner() string { return s.owner }

// View returns the current view. Pending is set while debounced edits
// have not been re-derived yet.
func (s *Session) View() (ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ViewState{}, ErrSessionClosed
	}
	return s.viewLocked(), nil
}

// Draft returns a copy of the draft.
func (s *Session) Draft() (*agentconfig.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.draft.Clone(), nil
}

// Update applies fn to a copy of the draft and installs the copy unless fn
// fails.
func (s *Session) Update(fn func(r *agentconfig.Record) error) (ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ViewState{}, ErrSessionClosed
	}
	work := s.draft.Clone()
	if err := fn(work); err != nil {
		return s.viewLocked(), err
	}
	s.draft = work
	s.revision++
	s.rederive()
	return s.viewLocked(), nil
}

// UpdateDebounced applies fn to the draft immediately and defers
// re-derivation until input has been quiet for the debounce window. Later
// edits win over earlier ones.
func (s *Session) UpdateDebounced(fn func(r *agentconfig.Record)) error {
	if err := s.applyDeferred(fn); err != nil {
		return err
	}
	s.debounced()
	return nil
}

func (s *Session) applyDeferred(fn func(r *agentconfig.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	fn(s.draft)
	s.revision++
	s.stale = true
	return nil
}

// ReplaceDraft swaps in a whole edited document, keeping the draft's
// stored identity. With debounced set, re-derivation is deferred as in
// UpdateDebounced.
func (s *Session) ReplaceDraft(next *agentconfig.Record, debounced bool) (ViewState, error) {
	if next == nil {
		return ViewState{}, errors.New("draft is required")
	}
	replace := func(r *agentconfig.Record) {
		current := *r
		*r = *next.Clone()
		r.Normalize()
		adoptIdentity(r, &current)
		r.UpdatedAt = current.UpdatedAt
	}
	if !debounced {
		return s.Update(func(r *agentconfig.Record) error {
			replace(r)
			return nil
		})
	}
	if err := s.UpdateDebounced(replace); err != nil {
		return ViewState{}, err
	}
	return s.View()
}

// Flush re-derives immediately if debounced edits are pending.
func (s *Session) Flush() (ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ViewState{}, ErrSessionClosed
	}
	if s.stale {
		s.rederive()
	}
	return s.viewLocked(), nil
}

func (s *Session) recompute() {
	s.mu.Lock()
	if s.closed || !s.stale {
		s.mu.Unlock()
		return
	}
	s.rederive()
	s.mu.Unlock()
	s.notify(Event{Kind: EventViewUpdated})
}

// rederive must be called with mu held.
func (s *Session) rederive() {
	s.view = DeriveViewState(s.draft, s.machine, s.deps.Catalog, s.credentials)
	s.stale = false
}

func (s *Session) viewLocked() ViewState {
	v := s.view
	v.Importing = s.importCancel != nil
	v.Pending = s.stale
	v.Suggesting = make([]string, 0, len(s.suggesting))
	for _, f := range suggest.Fields {
		if s.suggesting[f] > 0 {
			v.Suggesting = append(v.Suggesting, string(f))
		}
	}
	return v
}

func (s *Session) navigate(fn func(m *wizard.Machine) error) (ViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ViewState{}, ErrSessionClosed
	}
	if err := fn(s.machine); err != nil {
		return s.viewLocked(), err
	}
	s.rederive()
	return s.viewLocked(), nil
}

func (s *Session) Advance() (ViewState, error) {
	return s.navigate(func(m *wizard.Machine) error { m.Advance(); return nil })
}

func (s *Session) Retreat() (ViewState, error) {
	return s.navigate(func(m *wizard.Machine) error { m.Retreat(); return nil })
}

// Jump activates step if it is enabled.
func (s *Session) Jump(step wizard.Step) (ViewState, error) {
	return s.navigate(func(m *wizard.Machine) error { return m.Jump(step) })
}

// Export encodes the draft as it stands, valid or not.
func (s *Session) Export(f codec.Format) (data []byte, fileName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, "", ErrSessionClosed
	}
	data, err = codec.Encode(s.draft, f)
	if err != nil {
		return nil, "", err
	}
	return data, codec.ExportFileNameFor(s.draft.Name, f), nil
}

// Save validates the draft and hands it to the agent store. A failed save
// leaves the draft as it was.
func (s *Session) Save(ctx context.Context) (*agentconfig.Record, error) {
	ctx, span := s.tracer.Start(ctx, observability.SpanSave)
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if !s.machine.SaveVisible() {
		s.mu.Unlock()
		return nil, ErrSaveNotAvailable
	}
	if s.stale {
		s.rederive()
	}
	if errs := validation.ValidateRecord(s.draft); len(errs) > 0 {
		agentType := string(s.draft.Config.Type())
		s.mu.Unlock()
		s.recordValidation(ctx, agentType, errs)
		s.deps.Metrics.RecordSave(ctx, "invalid")
		span.SetAttributes(attribute.Int(observability.AttrValidationCount, len(errs)))
		span.SetStatus(codes.Error, "validation failed")
		return nil, errs
	}
	snapshot := s.draft.Clone()
	rev := s.revision
	persisted := s.persisted
	s.mu.Unlock()

	var (
		saved   *agentconfig.Record
		err     error
		outcome string
	)
	now := s.now()
	if persisted {
		outcome = "updated"
		snapshot.Touch(now)
		saved, err = s.deps.Store.Update(ctx, snapshot)
	} else {
		outcome = "created"
		snapshot.CreatedAt = now.UTC()
		snapshot.UpdatedAt = snapshot.CreatedAt
		if snapshot.OwnerID == "" {
			snapshot.OwnerID = s.owner
		}
		saved, err = s.deps.Store.Create(ctx, snapshot)
	}
	if err != nil {
		s.deps.Metrics.RecordSave(ctx, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("Failed to save agent", "session", s.id, "agent", snapshot.Name, "error", err)
		s.notify(Event{Kind: EventSaveFailed, Message: err.Error()})
		return nil, fmt.Errorf("failed to save agent %q: %w", snapshot.Name, err)
	}

	s.mu.Lock()
	if !s.closed {
		if s.revision == rev {
			s.draft = saved.Clone()
		} else {
			adoptIdentity(s.draft, saved)
			s.draft.UpdatedAt = saved.UpdatedAt
		}
		s.persisted = true
		s.machine.SetMode(wizard.ModeEdit)
		s.rederive()
	}
	s.mu.Unlock()

	s.deps.Metrics.RecordSave(ctx, outcome)
	span.SetAttributes(attribute.String(observability.AttrAgentID, saved.ID))
	s.logger.Info("Agent saved", "session", s.id, "agent", saved.String(), "outcome", outcome)
	s.notify(Event{Kind: EventSaved, AgentID: saved.ID})
	return saved.Clone(), nil
}

// adoptIdentity copies the stored identity of src onto dst.
func adoptIdentity(dst, src *agentconfig.Record) {
	dst.ID = src.ID
	dst.OriginalAgentID = src.OriginalAgentID
	dst.InternalVersion = src.InternalVersion
	dst.IsLatest = src.IsLatest
	dst.OwnerID = src.OwnerID
	dst.CreatedAt = src.CreatedAt
}

// Close discards the draft and cancels in-flight work. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.importCancel != nil {
		s.importCancel()
		s.importCancel = nil
	}
	s.draft = nil
	s.mu.Unlock()

	s.cancelDebounce()
	s.cancel()
	s.logger.Debug("Editor session closed", "session", s.id)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) notify(e Event) {
	if e.At.IsZero() {
		e.At = s.now().UTC()
	}
	s.notifiers.Notify(e)
}

func (s *Session) recordValidation(ctx context.Context, agentType string, errs validation.ErrorList) {
	kinds := make([]string, len(errs))
	for i, e := range errs {
		kinds[i] = string(e.Kind)
	}
	s.deps.Metrics.RecordValidation(ctx, agentType, kinds)
}

// resolveCredentials checks the key store reference of every selected tool.
// Key store failures count as unresolved and are logged.
func (s *Session) resolveCredentials(ctx context.Context, r *agentconfig.Record) map[string]bool {
	out := make(map[string]bool, len(r.SelectedToolIDs))
	for _, id := range r.SelectedToolIDs {
		tool, ok := s.deps.Catalog.Get(id)
		if !ok {
			continue
		}
		ref := r.ToolConfigurations[id].CredentialRef
		if ref == "" {
			continue
		}
		rc, err := s.resolver.Resolve(ctx, id, tool, agentconfig.ToolConfigData{CredentialRef: ref})
		if err != nil {
			s.logger.Warn("Failed to resolve tool credential", "tool", id, "error", err)
			continue
		}
		out[id] = rc.CredentialValid
	}
	return out
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func removeString(list []string, v string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == v })
}
