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

// Package config holds the studio's application configuration.
//
// Configuration is a YAML document. String values may reference the
// environment with ${VAR} or ${VAR:-default}. Every section applies its own
// defaults and validates itself; a zero Config with defaults applied runs an
// in-memory studio on localhost.
//
// Example:
//
//	server:
//	  port: 8780
//	store:
//	  backend: sql
//	  database:
//	    driver: sqlite
//	    database: ./studio.db
//	keystore:
//	  backend: consul
//	  consul:
//	    address: 127.0.0.1:8500
//	suggest:
//	  provider: gemini
//	  api_key: ${GEMINI_API_KEY}
package config

import (
	"fmt"

	"github.com/kadirpekel/hector-studio/pkg/observability"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
)

// Config is the root configuration document.
type Config struct {
	Server        ServerConfig               `yaml:"server"`
	Logger        LoggerConfig               `yaml:"logger"`
	Store         StoreConfig                `yaml:"store"`
	KeyStore      KeyStoreConfig             `yaml:"keystore"`
	Suggest       SuggestConfig              `yaml:"suggest"`
	Editor        EditorConfig               `yaml:"editor"`
	Observability observability.Config       `yaml:"observability"`
	Tools         []toolconfig.AvailableTool `yaml:"tools"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logger.SetDefaults()
	c.Store.SetDefaults()
	c.KeyStore.SetDefaults()
	c.Suggest.SetDefaults()
	c.Editor.SetDefaults()
	c.Observability.SetDefaults()
	if len(c.Tools) == 0 {
		c.Tools = toolconfig.DefaultTools()
	}
}

// Validate checks every section and stops at the first failure.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"logger", c.Logger.Validate},
		{"store", c.Store.Validate},
		{"keystore", c.KeyStore.Validate},
		{"suggest", c.Suggest.Validate},
		{"editor", c.Editor.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("tools: %w", err)
	}
	return nil
}

// Catalog builds the tool catalog declared by the configuration.
func (c *Config) Catalog() (*toolconfig.Catalog, error) {
	return toolconfig.NewCatalog(c.Tools)
}
