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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8780, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:8780", cfg.Server.BaseURL)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, "memory", cfg.KeyStore.Backend)
	assert.Equal(t, "template", cfg.Suggest.Provider)
	assert.Equal(t, 300*time.Millisecond, cfg.Editor.DebounceWait)
	assert.Equal(t, 10, cfg.Editor.PromptHistoryLimit)
	assert.NotEmpty(t, cfg.Tools)

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	_, ok := catalog.Get("weather")
	assert.True(t, ok)
}

func TestParse_Full(t *testing.T) {
	t.Setenv("STUDIO_DB", "/tmp/studio-test.db")

	doc := `
server:
  host: 0.0.0.0
  port: 9000
  base_url: https://studio.example.com
  read_timeout: 5s
  auth:
    enabled: true
    jwks_url: https://auth.example.com/jwks.json
    issuer: https://auth.example.com
    audience: studio
logger:
  level: debug
  format: json
store:
  backend: sql
  database:
    driver: sqlite
    database: ${STUDIO_DB}
keystore:
  backend: memory
  keys:
    - id: serp
      service_name: SerpAPI
      service_type: search
editor:
  debounce_wait: 50ms
  debounce_max_wait: 1s
tools:
  - id: weather
    name: Weather
    function_name: get_weather
    config_fields:
      - key: units
        label: Units
        field_type: select
        required: true
        options: [metric, imperial]
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.Auth.IsEnabled())
	assert.True(t, cfg.Server.Auth.IsRequireAuth())
	assert.Equal(t, "sub", cfg.Server.Auth.OwnerClaim)
	assert.Equal(t, "json", cfg.Logger.Format)

	require.NotNil(t, cfg.Store.Database)
	assert.Equal(t, "/tmp/studio-test.db", cfg.Store.Database.Database)
	assert.Equal(t, "sqlite", cfg.Store.Database.Dialect())
	assert.Equal(t, "sqlite3", cfg.Store.Database.DriverName())

	require.Len(t, cfg.KeyStore.Keys, 1)
	assert.Equal(t, "SerpAPI", cfg.KeyStore.Keys[0].ServiceName)
	assert.Equal(t, 50*time.Millisecond, cfg.Editor.DebounceWait)

	require.Len(t, cfg.Tools, 1)
	assert.Equal(t, []string{"metric", "imperial"}, cfg.Tools[0].ConfigFields[0].Options)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", "server: [unclosed"},
		{"unknown key", "server:\n  prot: 80\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"bad log level", "logger:\n  level: chatty\n"},
		{"bad store backend", "store:\n  backend: redis\n"},
		{"sql without host", "store:\n  backend: sql\n  database:\n    driver: postgres\n    database: studio\n"},
		{"gemini without key", "suggest:\n  provider: gemini\n  api_key: \"\"\n"},
		{"auth without issuer", "server:\n  auth:\n    enabled: true\n    jwks_url: https://a/jwks\n    audience: x\n"},
		{"duplicate key ids", "keystore:\n  keys:\n    - id: a\n    - id: a\n"},
		{"debounce max below wait", "editor:\n  debounce_wait: 2s\n  debounce_max_wait: 1s\n"},
		{"invalid tool", "tools:\n  - name: nameless\n"},
		{"bad tracing exporter", "observability:\n  tracing:\n    enabled: true\n    exporter: zipkin\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("GOOGLE_API_KEY", "")
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_GeminiKeyFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Parse([]byte("suggest:\n  provider: gemini\n"))
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.Suggest.APIKey)
}

func TestStoreConfig_SQLDefaultsToSQLite(t *testing.T) {
	c := StoreConfig{Backend: StoreBackendSQL}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, "sqlite", c.Database.Driver)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("STUDIO_HOST", "example.com")
	t.Setenv("STUDIO_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${STUDIO_HOST}", "example.com"},
		{"$STUDIO_HOST:80", "example.com:80"},
		{"${STUDIO_EMPTY:-fallback}", "fallback"},
		{"${STUDIO_UNSET_VAR:-a b}", "a b"},
		{"${STUDIO_UNSET_VAR}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnv(tt.in))
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.env")
	require.NoError(t, os.WriteFile(path, []byte("STUDIO_FROM_FILE=yes\n"), 0o600))
	t.Setenv("STUDIO_FROM_FILE", "")
	os.Unsetenv("STUDIO_FROM_FILE")

	require.NoError(t, LoadEnvFiles(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "yes", os.Getenv("STUDIO_FROM_FILE"))
}

func TestLoadConfigFile_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	reloaded := make(chan *Config, 1)
	cfg, loader, err := LoadConfigFile(context.Background(), path, WithOnChange(func(c *Config) {
		reloaded <- c
	}))
	require.NoError(t, err)
	defer loader.Close()
	assert.Equal(t, 9000, cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loader.Watch(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o600))

	select {
	case c := <-reloaded:
		assert.Equal(t, 9001, c.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	<-done
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, _, err := LoadConfigFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{"sqlite", DatabaseConfig{Driver: "sqlite3", Database: "/tmp/a.db"}, "/tmp/a.db"},
		{"postgres", DatabaseConfig{Driver: "postgres", Host: "db", Database: "studio", Username: "u", Password: "p w"},
			"postgres://u:p%20w@db:5432/studio?sslmode=disable"},
		{"mysql", DatabaseConfig{Driver: "mysql", Host: "db", Database: "studio", Username: "u", Password: "pw"},
			"u:pw@tcp(db:3306)/studio?parseTime=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.SetDefaults()
			require.NoError(t, tt.cfg.Validate())
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}

	bad := DatabaseConfig{Driver: "mysql", Database: "studio"}
	assert.Error(t, bad.Validate())
}
