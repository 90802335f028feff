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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"", TypeFile, false},
		{"file", TypeFile, false},
		{"consul", TypeConsul, false},
		{"etcd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(ProviderConfig{})
	assert.Error(t, err)

	p, err := New(ProviderConfig{Path: "agent.json"})
	require.NoError(t, err)
	assert.Equal(t, TypeFile, p.Type())

	p, err = New(ProviderConfig{Type: TypeConsul, Path: "studio/config", Endpoints: []string{"127.0.0.1:8500"}})
	require.NoError(t, err)
	assert.Equal(t, TypeConsul, p.Type())

	_, err = New(ProviderConfig{Type: "zookeeper", Path: "x"})
	assert.Error(t, err)
}

func TestFileProvider_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"a"}`), 0o600))

	p, err := NewFileProvider(path)
	require.NoError(t, err)
	defer p.Close()

	data, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a"}`, string(data))

	missing, err := NewFileProvider(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	_, err = missing.Load(context.Background())
	assert.Error(t, err)
}

func TestFileProvider_WatchCoalescesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	p, err := NewFileProvider(path)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := p.Watch(ctx)
	require.NoError(t, err)

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte(`{"n":`+strconv.Itoa(i)+`}`), 0o600))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}

	data, err := p.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":4}`, string(data))

	cancel()
	for range changes {
	}
}

func TestFileProvider_WatchAfterClose(t *testing.T) {
	p, err := NewFileProvider(filepath.Join(t.TempDir(), "agent.json"))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Watch(context.Background())
	assert.Error(t, err)
}

type kvPair struct {
	Key         string
	Value       []byte
	CreateIndex uint64
	ModifyIndex uint64
}

// fakeConsul serves one key whose index is bumped by calling the returned
// function. Blocking queries wait until the index passes WaitIndex.
func fakeConsul(t *testing.T, key, value string) (*httptest.Server, func(string)) {
	t.Helper()
	var index atomic.Uint64
	index.Store(1)
	var current atomic.Value
	current.Store(value)
	bumped := make(chan struct{}, 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/kv/"+key {
			w.Header().Set("X-Consul-Index", "1")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if wait := r.URL.Query().Get("index"); wait != "" {
			n, _ := strconv.ParseUint(wait, 10, 64)
			for index.Load() <= n {
				select {
				case <-bumped:
				case <-r.Context().Done():
					return
				}
			}
		}
		idx := index.Load()
		w.Header().Set("X-Consul-Index", strconv.FormatUint(idx, 10))
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]kvPair{{Key: key, Value: []byte(current.Load().(string)), CreateIndex: 1, ModifyIndex: idx}})
	}))
	t.Cleanup(srv.Close)

	return srv, func(v string) {
		current.Store(v)
		index.Add(1)
		bumped <- struct{}{}
	}
}

func TestConsulProvider_LoadAndWatch(t *testing.T) {
	srv, update := fakeConsul(t, "studio/config", "server:\n  port: 9000\n")

	p, err := NewConsulProvider(srv.URL, "/studio/config/")
	require.NoError(t, err)

	data, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "9000")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := p.Watch(ctx)
	require.NoError(t, err)

	update("server:\n  port: 9001\n")
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}

	data, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "9001")
}

func TestConsulProvider_Missing(t *testing.T) {
	srv, _ := fakeConsul(t, "studio/config", "")

	p, err := NewConsulProvider(srv.URL, "studio/other")
	require.NoError(t, err)

	_, err = p.Load(context.Background())
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = NewConsulProvider(srv.URL, "/")
	assert.Error(t, err)
}
