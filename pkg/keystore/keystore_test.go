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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(
		Entry{ID: "k2", ServiceName: "Search B", ServiceType: "search"},
		Entry{ID: "k1", ServiceName: "Search A", ServiceType: "search"},
		Entry{ID: "k3", ServiceName: "Calendar", ServiceType: "calendar"},
	)

	all, err := m.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k3", "k1", "k2"}, ids(all))

	search, err := m.List(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, ids(search))

	e, err := m.Resolve(ctx, "k3")
	require.NoError(t, err)
	assert.Equal(t, "calendar", e.ServiceType)

	m.Delete("k3")
	_, err = m.Resolve(ctx, "k3")
	assert.ErrorIs(t, err, ErrNotFound)

	m.Put(Entry{ID: "k4", ServiceName: "Mail", ServiceType: "mail"})
	_, err = m.Resolve(ctx, "k4")
	assert.NoError(t, err)
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

type kvPair struct {
	Key         string
	Value       []byte
	Flags       uint64
	CreateIndex uint64
	ModifyIndex uint64
	LockIndex   uint64
}

// fakeConsul serves the subset of the KV HTTP API the adapter uses.
func fakeConsul(t *testing.T, kv map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Consul-Index", "7")
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")

		key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
		var pairs []kvPair
		for k, v := range kv {
			_, recurse := r.URL.Query()["recurse"]
			if (recurse && strings.HasPrefix(k, key)) || k == key {
				pairs = append(pairs, kvPair{Key: k, Value: []byte(v), CreateIndex: 1, ModifyIndex: 1})
			}
		}
		if len(pairs) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pairs)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConsul(t *testing.T) {
	srv := fakeConsul(t, map[string]string{
		"studio/keys/serp-prod":  `{"serviceName":"SerpAPI (prod)","serviceType":"search"}`,
		"studio/keys/gcal":       `{"serviceName":"Google Calendar","serviceType":"calendar"}`,
		"studio/keys/broken":     `not json`,
		"studio/keys/nested/key": `{"serviceName":"ignored","serviceType":"search"}`,
		"other/keys/elsewhere":   `{"serviceName":"elsewhere","serviceType":"search"}`,
	})

	store, err := NewConsul(ConsulOptions{Address: srv.URL, Prefix: "/studio/keys/"})
	require.NoError(t, err)
	ctx := context.Background()

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"gcal", "serp-prod"}, ids(all))

	search, err := store.List(ctx, "search")
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, Entry{ID: "serp-prod", ServiceName: "SerpAPI (prod)", ServiceType: "search"}, search[0])

	e, err := store.Resolve(ctx, "gcal")
	require.NoError(t, err)
	assert.Equal(t, "Google Calendar", e.ServiceName)

	_, err = store.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Resolve(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestConsul_Unreachable(t *testing.T) {
	srv := fakeConsul(t, nil)
	addr := srv.URL
	srv.Close()

	store, err := NewConsul(ConsulOptions{Address: addr})
	require.NoError(t, err)

	_, err = store.List(context.Background(), "")
	assert.Error(t, err)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
