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

// Package keystore is the boundary to the external API-key vault.
//
// Only metadata crosses this boundary. Agent records hold an entry ID as a
// credential reference; the secret itself stays inside the vault.
package keystore

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by Resolve for unknown entry IDs.
var ErrNotFound = errors.New("key store entry not found")

// Entry describes one stored credential.
type Entry struct {
	ID          string `json:"id" yaml:"id"`
	ServiceName string `json:"serviceName" yaml:"service_name"`
	ServiceType string `json:"serviceType" yaml:"service_type"`
}

// Store lists and resolves credential references.
type Store interface {
	// List returns entries for serviceType, or every entry when it is empty.
	List(ctx context.Context, serviceType string) ([]Entry, error)
	Resolve(ctx context.Context, id string) (Entry, error)
}

// Memory is an in-process Store seeded from configuration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Store = (*Memory)(nil)

func NewMemory(entries ...Entry) *Memory {
	m := &Memory{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

// Put adds or replaces an entry.
func (m *Memory) Put(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
}

func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

func (m *Memory) List(ctx context.Context, serviceType string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if serviceType == "" || e.ServiceType == serviceType {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *Memory) Resolve(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ServiceName != entries[j].ServiceName {
			return entries[i].ServiceName < entries[j].ServiceName
		}
		return entries[i].ID < entries[j].ID
	})
}
