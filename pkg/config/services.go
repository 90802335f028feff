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
	"fmt"
	"os"
	"time"

	"github.com/kadirpekel/hector-studio/pkg/keystore"
)

// KeyStoreConfig selects where credential references resolve.
//
//	keystore:
//	  backend: memory
//	  keys:
//	    - id: serp
//	      service_name: SerpAPI
//	      service_type: search
type KeyStoreConfig struct {
	// Backend is memory or consul.
	// Default: memory
	Backend string `yaml:"backend,omitempty"`

	// Keys seeds the memory backend.
	Keys []keystore.Entry `yaml:"keys,omitempty"`

	Consul ConsulConfig `yaml:"consul,omitempty"`
}

// ConsulConfig locates key entries in Consul KV.
type ConsulConfig struct {
	Address    string `yaml:"address,omitempty"`
	Token      string `yaml:"token,omitempty"`
	Datacenter string `yaml:"datacenter,omitempty"`

	// Prefix is the KV folder holding one JSON entry per key.
	// Default: hector/keys
	Prefix string `yaml:"prefix,omitempty"`
}

// SetDefaults applies default values to KeyStoreConfig.
func (c *KeyStoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "consul" {
		if c.Consul.Address == "" {
			c.Consul.Address = "127.0.0.1:8500"
		}
		if c.Consul.Prefix == "" {
			c.Consul.Prefix = keystore.DefaultConsulPrefix
		}
	}
}

// Validate checks the key store configuration.
func (c *KeyStoreConfig) Validate() error {
	switch c.Backend {
	case "memory":
		seen := make(map[string]bool, len(c.Keys))
		for i, k := range c.Keys {
			if k.ID == "" {
				return fmt.Errorf("keys[%d]: id is required", i)
			}
			if seen[k.ID] {
				return fmt.Errorf("keys[%d]: duplicate id %q", i, k.ID)
			}
			seen[k.ID] = true
		}
	case "consul":
		if c.Consul.Address == "" {
			return fmt.Errorf("consul.address is required")
		}
	default:
		return fmt.Errorf("invalid backend %q (valid: memory, consul)", c.Backend)
	}
	return nil
}

// SuggestConfig configures the suggestion service behind the editor's
// "suggest" actions.
//
//	suggest:
//	  provider: gemini
//	  model: gemini-2.0-flash
//	  api_key: ${GEMINI_API_KEY}
type SuggestConfig struct {
	// Provider is template (deterministic, offline) or gemini.
	// Default: template
	Provider string `yaml:"provider,omitempty"`

	// Model is the Gemini model used for suggestions.
	// Default: gemini-2.0-flash
	Model string `yaml:"model,omitempty"`

	// APIKey for Gemini. Falls back to GEMINI_API_KEY, then GOOGLE_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the Gemini API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout bounds one suggestion request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// SetDefaults applies default values to SuggestConfig.
func (c *SuggestConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "template"
	}
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.APIKey == "" && c.Provider == "gemini" {
		c.APIKey = GeminiAPIKey()
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the suggestion configuration.
func (c *SuggestConfig) Validate() error {
	switch c.Provider {
	case "template":
	case "gemini":
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for the gemini provider (or set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("invalid provider %q (valid: template, gemini)", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// GeminiAPIKey reads the Gemini key from the environment.
func GeminiAPIKey() string {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// EditorConfig tunes editing sessions.
type EditorConfig struct {
	// DebounceWait is the quiet period before a debounced edit is applied.
	// Default: 300ms
	DebounceWait time.Duration `yaml:"debounce_wait,omitempty"`

	// DebounceMaxWait bounds how long a burst of edits can defer one.
	// Default: 2s
	DebounceMaxWait time.Duration `yaml:"debounce_max_wait,omitempty"`

	// ImportTimeout bounds reading and validating one imported document.
	// Default: 30s
	ImportTimeout time.Duration `yaml:"import_timeout,omitempty"`

	// PromptHistoryLimit caps the generated system prompt history.
	// Default: 10
	PromptHistoryLimit int `yaml:"prompt_history_limit,omitempty"`

	// SessionIdleTimeout discards HTTP editing sessions left untouched.
	// Default: 1h
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout,omitempty"`
}

// SetDefaults applies default values to EditorConfig.
func (c *EditorConfig) SetDefaults() {
	if c.DebounceWait == 0 {
		c.DebounceWait = 300 * time.Millisecond
	}
	if c.DebounceMaxWait == 0 {
		c.DebounceMaxWait = 2 * time.Second
	}
	if c.ImportTimeout == 0 {
		c.ImportTimeout = 30 * time.Second
	}
	if c.PromptHistoryLimit == 0 {
		c.PromptHistoryLimit = 10
	}
	if c.SessionIdleTimeout == 0 {
		c.SessionIdleTimeout = time.Hour
	}
}

// Validate checks the editor configuration.
func (c *EditorConfig) Validate() error {
	if c.DebounceWait < 0 || c.DebounceMaxWait < 0 {
		return fmt.Errorf("debounce durations must be non-negative")
	}
	if c.DebounceMaxWait > 0 && c.DebounceMaxWait < c.DebounceWait {
		return fmt.Errorf("debounce_max_wait (%s) must not be shorter than debounce_wait (%s)", c.DebounceMaxWait, c.DebounceWait)
	}
	if c.PromptHistoryLimit < 1 {
		return fmt.Errorf("prompt_history_limit must be at least 1")
	}
	return nil
}
