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

package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/consul/api"
)

// DefaultConsulPrefix is the KV folder used when none is configured.
const DefaultConsulPrefix = "hector/keys"

// ConsulOptions configures the Consul KV adapter.
type ConsulOptions struct {
	Address    string
	Token      string
	Datacenter string
	// Prefix is the KV folder holding one JSON metadata document per entry,
	// keyed by entry ID.
	Prefix string
	Logger *slog.Logger
}

// Consul reads key store metadata from Consul KV. Values under the prefix
// look like {"serviceName": "...", "serviceType": "..."}.
type Consul struct {
	kv     *api.KV
	prefix string
	logger *slog.Logger
}

var _ Store = (*Consul)(nil)

func NewConsul(opts ConsulOptions) (*Consul, error) {
	cfg := api.DefaultConfig()
	if opts.Address != "" {
		cfg.Address = opts.Address
	}
	if opts.Token != "" {
		cfg.Token = opts.Token
	}
	if opts.Datacenter != "" {
		cfg.Datacenter = opts.Datacenter
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = DefaultConsulPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Consul{kv: client.KV(), prefix: prefix, logger: logger}, nil
}

type consulEntry struct {
	ServiceName string `json:"serviceName"`
	ServiceType string `json:"serviceType"`
}

func (c *Consul) List(ctx context.Context, serviceType string) ([]Entry, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	pairs, _, err := c.kv.List(c.prefix+"/", q)
	if err != nil {
		return nil, fmt.Errorf("failed to list key store entries: %w", err)
	}

	out := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		id := strings.TrimPrefix(p.Key, c.prefix+"/")
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		e, err := c.decode(id, p.Value)
		if err != nil {
			c.logger.Warn("Skipping malformed key store entry", "key", p.Key, "error", err)
			continue
		}
		if serviceType == "" || e.ServiceType == serviceType {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (c *Consul) Resolve(ctx context.Context, id string) (Entry, error) {
	if id == "" || strings.Contains(id, "/") {
		return Entry{}, ErrNotFound
	}
	q := (&api.QueryOptions{}).WithContext(ctx)
	pair, _, err := c.kv.Get(c.prefix+"/"+id, q)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to resolve key store entry %q: %w", id, err)
	}
	if pair == nil {
		return Entry{}, ErrNotFound
	}
	return c.decode(id, pair.Value)
}

func (c *Consul) decode(id string, value []byte) (Entry, error) {
	var ce consulEntry
	if err := json.Unmarshal(value, &ce); err != nil {
		return Entry{}, fmt.Errorf("invalid key store entry %q: %w", id, err)
	}
	return Entry{ID: id, ServiceName: ce.ServiceName, ServiceType: ce.ServiceType}, nil
}
