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
	"log/slog"
	"sync"
	"time"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/config"
)

var (
	ErrSessionNotFound = errors.New("editor session not found")
	ErrNotOwner        = errors.New("editor session belongs to another user")
)

// Manager keeps the sessions opened through the HTTP API. Each session has
// a single owner; sessions left idle are closed by Sweep.
type Manager struct {
	deps   Deps
	config config.EditorConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*managed
}

type managed struct {
	session  *Session
	inbox    *Inbox
	owner    string
	lastUsed time.Time
}

func NewManager(deps Deps, cfg config.EditorConfig) *Manager {
	cfg.SetDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		deps:     deps,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
		sessions: map[string]*managed{},
	}
}

func (m *Manager) options(owner string, inbox *Inbox) []Option {
	return []Option{
		WithOwner(owner),
		WithNotifier(inbox),
		WithDebounce(m.config.DebounceWait, m.config.DebounceMaxWait),
		WithImportTimeout(m.config.ImportTimeout),
		WithPromptHistoryLimit(m.config.PromptHistoryLimit),
	}
}

func (m *Manager) add(s *Session, inbox *Inbox, owner string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = &managed{session: s, inbox: inbox, owner: owner, lastUsed: m.now()}
	return s
}

// Create opens a create-mode session on a fresh agent of type t.
func (m *Manager) Create(ctx context.Context, owner string, t agentconfig.AgentType) (*Session, error) {
	inbox := NewInbox(0)
	s, err := NewDraft(ctx, m.deps, t, m.options(owner, inbox)...)
	if err != nil {
		return nil, err
	}
	return m.add(s, inbox, owner), nil
}

// Open opens an edit-mode session on a stored agent.
func (m *Manager) Open(ctx context.Context, owner, agentID string) (*Session, error) {
	inbox := NewInbox(0)
	s, err := Open(ctx, m.deps, agentID, m.options(owner, inbox)...)
	if err != nil {
		return nil, err
	}
	return m.add(s, inbox, owner), nil
}

func (m *Manager) lookup(id, owner string) (*managed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.owner != owner {
		return nil, ErrNotOwner
	}
	e.lastUsed = m.now()
	return e, nil
}

// Get returns the session with the given id if owner opened it.
func (m *Manager) Get(id, owner string) (*Session, error) {
	e, err := m.lookup(id, owner)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// Events drains the buffered notifications of a session.
func (m *Manager) Events(id, owner string) ([]Event, error) {
	e, err := m.lookup(id, owner)
	if err != nil {
		return nil, err
	}
	return e.inbox.Drain(), nil
}

// Close discards a session and its draft.
func (m *Manager) Close(id, owner string) error {
	e, err := m.lookup(id, owner)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	e.session.Close()
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the configured timeout and
// returns how many it closed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.config.SessionIdleTimeout)
	var idle []*Session

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			idle = append(idle, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		m.logger.Info("Closed idle editor session", "session", s.ID())
	}
	return len(idle)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) {
	interval := m.config.SessionIdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*managed{}
	m.mu.Unlock()
	for _, e := range all {
		e.session.Close()
	}
}
