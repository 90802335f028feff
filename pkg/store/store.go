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

// Package store persists agent records as version chains.
//
// Every agent is a chain of versions sharing an OriginalAgentID. Each
// version has its own ID and InternalVersion; exactly one version per
// chain is marked IsLatest. Updates never modify a stored version, they
// append a new one.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/validation"
)

var (
	ErrNotFound = errors.New("agent not found")
	// ErrConflict is returned when an update is not based on the latest
	// version of its chain, or when a create reuses an existing ID.
	ErrConflict = errors.New("agent version conflict")
)

// ListOptions filters List results. Zero values match everything.
type ListOptions struct {
	OwnerID       string
	Tag           string
	Query         string
	TemplatesOnly bool
	FavoritesOnly bool
}

// Store is the agent-store boundary. Implementations must be safe for
// concurrent use and must return records the caller may mutate freely.
type Store interface {
	// Create stores r as version 1 of a new chain. An empty ID is assigned.
	Create(ctx context.Context, r *agentconfig.Record) (*agentconfig.Record, error)
	// Update appends r as the next version of the chain whose latest
	// version has ID r.ID.
	Update(ctx context.Context, r *agentconfig.Record) (*agentconfig.Record, error)
	// Get returns a single version by its ID.
	Get(ctx context.Context, id string) (*agentconfig.Record, error)
	// Latest returns the head of the chain identified by originalID.
	Latest(ctx context.Context, originalID string) (*agentconfig.Record, error)
	// List returns the latest version of every matching chain, most
	// recently updated first.
	List(ctx context.Context, opts ListOptions) ([]*agentconfig.Record, error)
	// History returns every version of a chain, oldest first.
	History(ctx context.Context, originalID string) ([]*agentconfig.Record, error)
	// Delete removes a whole chain.
	Delete(ctx context.Context, originalID string) error
	Close() error
}

func (o ListOptions) matches(r *agentconfig.Record) bool {
	if o.OwnerID != "" && r.OwnerID != o.OwnerID {
		return false
	}
	if o.Tag != "" && !slices.Contains(r.Tags, o.Tag) {
		return false
	}
	if o.TemplatesOnly && !r.IsTemplate {
		return false
	}
	if o.FavoritesOnly && !r.IsFavorite {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(o.Query)); q != "" {
		if !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	return true
}

func sortByUpdated(records []*agentconfig.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

// check rejects records that would not survive a read back.
func check(r *agentconfig.Record) error {
	if r == nil {
		return fmt.Errorf("record is required")
	}
	if errs := validation.ValidateRecord(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// prepareFirst sets the identity of a chain's first version.
func prepareFirst(r *agentconfig.Record, newID func() string) *agentconfig.Record {
	c := r.Clone()
	c.Normalize()
	if c.ID == "" {
		c.ID = newID()
	}
	c.OriginalAgentID = c.ID
	c.InternalVersion = 1
	c.IsLatest = true
	return c
}

// prepareNext derives the version that follows head.
func prepareNext(r, head *agentconfig.Record, newID func() string) *agentconfig.Record {
	c := r.Clone()
	c.Normalize()
	c.ID = newID()
	c.OriginalAgentID = head.OriginalAgentID
	c.InternalVersion = head.InternalVersion + 1
	c.IsLatest = true
	c.CreatedAt = head.CreatedAt
	if c.UpdatedAt.Before(c.CreatedAt) {
		c.UpdatedAt = c.CreatedAt
	}
	return c
}
