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

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
)

// ErrKeyNotFound is returned when the Consul key does not exist.
var ErrKeyNotFound = errors.New("consul key not found")

// ConsulProvider reads a document stored under a single Consul KV key and
// watches it with blocking queries.
type ConsulProvider struct {
	kv  *api.KV
	key string

	// WaitTime bounds each blocking query.
	WaitTime time.Duration
	// RetryDelay is the pause after a failed query.
	RetryDelay time.Duration
}

// NewConsulProvider creates a provider for key. An empty address uses the
// Consul client defaults (CONSUL_HTTP_ADDR or 127.0.0.1:8500).
func NewConsulProvider(address, key string) (*ConsulProvider, error) {
	key = strings.Trim(key, "/")
	if key == "" {
		return nil, fmt.Errorf("consul key is required")
	}

	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	return &ConsulProvider{
		kv:         client.KV(),
		key:        key,
		WaitTime:   5 * time.Minute,
		RetryDelay: 5 * time.Second,
	}, nil
}

func (p *ConsulProvider) Type() Type {
	return TypeConsul
}

// Load reads the key's current value.
func (p *ConsulProvider) Load(ctx context.Context) ([]byte, error) {
	pair, _, err := p.kv.Get(p.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read consul key %s: %w", p.key, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, p.key)
	}
	return pair.Value, nil
}

// Watch signals each time the key's modify index advances.
func (p *ConsulProvider) Watch(ctx context.Context) (<-chan struct{}, error) {
	_, meta, err := p.kv.Get(p.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read consul key %s: %w", p.key, err)
	}

	ch := make(chan struct{}, 1)
	go p.watchLoop(ctx, meta.LastIndex, ch)
	return ch, nil
}

func (p *ConsulProvider) watchLoop(ctx context.Context, index uint64, ch chan<- struct{}) {
	defer close(ch)

	for ctx.Err() == nil {
		opts := (&api.QueryOptions{WaitIndex: index, WaitTime: p.WaitTime}).WithContext(ctx)
		_, meta, err := p.kv.Get(p.key, opts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Consul watch failed", "key", p.key, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.RetryDelay):
			}
			continue
		}

		switch {
		case meta.LastIndex < index:
			// index went backwards, e.g. after a snapshot restore
			index = 0
		case meta.LastIndex > index:
			index = meta.LastIndex
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Close is a no-op; watches end with their context.
func (p *ConsulProvider) Close() error { return nil }

var _ Provider = (*ConsulProvider)(nil)
