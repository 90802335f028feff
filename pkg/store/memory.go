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

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// Memory keeps every version in process memory.
type Memory struct {
	mu       sync.RWMutex
	versions map[string]*agentconfig.Record
	chains   map[string][]string // originalAgentId -> version ids, oldest first
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		versions: make(map[string]*agentconfig.Record),
		chains:   make(map[string][]string),
	}
}

func (m *Memory) Create(ctx context.Context, r *agentconfig.Record) (*agentconfig.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := check(r); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := prepareFirst(r, uuid.NewString)
	if _, exists := m.versions[c.ID]; exists {
		return nil, fmt.Errorf("%w: agent %s already exists", ErrConflict, c.ID)
	}
	m.versions[c.ID] = c
	m.chains[c.OriginalAgentID] = []string{c.ID}
	return c.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, r *agentconfig.Record) (*agentconfig.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := check(r); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := m.versions[r.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	chain := m.chains[base.OriginalAgentID]
	head := m.versions[chain[len(chain)-1]]
	if head.ID != r.ID {
		return nil, fmt.Errorf("%w: %s is version %d, latest is %d", ErrConflict, r.ID, base.InternalVersion, head.InternalVersion)
	}

	next := prepareNext(r, head, uuid.NewString)
	head.IsLatest = false
	m.versions[next.ID] = next
	m.chains[next.OriginalAgentID] = append(chain, next.ID)
	return next.Clone(), nil
}

func (m *Memory) Get(ctx context.Context, id string) (*agentconfig.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.Clone(), nil
}

func (m *Memory) Latest(ctx context.Context, originalID string) (*agentconfig.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain, ok := m.chains[originalID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, originalID)
	}
	return m.versions[chain[len(chain)-1]].Clone(), nil
}

func (m *Memory) List(ctx context.Context, opts ListOptions) ([]*agentconfig.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*agentconfig.Record, 0, len(m.chains))
	for _, chain := range m.chains {
		head := m.versions[chain[len(chain)-1]]
		if opts.matches(head) {
			out = append(out, head.Clone())
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (m *Memory) History(ctx context.Context, originalID string) ([]*agentconfig.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain, ok := m.chains[originalID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, originalID)
	}
	out := make([]*agentconfig.Record, len(chain))
	for i, id := range chain {
		out[i] = m.versions[id].Clone()
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, originalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	chain, ok := m.chains[originalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, originalID)
	}
	for _, id := range chain {
		delete(m.versions, id)
	}
	delete(m.chains, originalID)
	return nil
}

func (m *Memory) Close() error { return nil }
