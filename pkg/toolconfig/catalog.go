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

// Package toolconfig resolves the configuration a selected tool needs and
// decides whether a tool is configured, as opposed to merely selected.
package toolconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// FieldType controls how a config value is entered and checked.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
	FieldURL     FieldType = "url"
	// FieldSecret values live in the key store and are satisfied by the
	// tool's credential reference.
	FieldSecret FieldType = "secret"
)

var FieldTypes = []FieldType{FieldText, FieldNumber, FieldBoolean, FieldSelect, FieldURL, FieldSecret}

// ConfigField declares one setting of a tool.
type ConfigField struct {
	Key         string    `json:"key" yaml:"key"`
	Label       string    `json:"label" yaml:"label"`
	FieldType   FieldType `json:"fieldType" yaml:"field_type"`
	Required    bool      `json:"required" yaml:"required"`
	Placeholder string    `json:"placeholder" yaml:"placeholder"`
	Options     []string  `json:"options,omitempty" yaml:"options"`
}

// AvailableTool is a catalog entry.
type AvailableTool struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	Icon         string        `json:"icon" yaml:"icon"`
	FunctionName string        `json:"functionName" yaml:"function_name"`
	Description  string        `json:"description" yaml:"description"`
	RequiresAuth bool          `json:"requiresAuth" yaml:"requires_auth"`
	ServiceType  string        `json:"serviceType" yaml:"service_type"`
	ConfigFields []ConfigField `json:"configFields" yaml:"config_fields"`
}

// Field returns the declared field with the given key.
func (t AvailableTool) Field(key string) (ConfigField, bool) {
	for _, f := range t.ConfigFields {
		if f.Key == key {
			return f, true
		}
	}
	return ConfigField{}, false
}

// Summary is the display data copied into agent records.
func (t AvailableTool) Summary() agentconfig.ToolSummary {
	return agentconfig.ToolSummary{
		ToolID:       t.ID,
		Name:         t.Name,
		Icon:         t.Icon,
		FunctionName: t.FunctionName,
	}
}

// Validate checks a catalog entry.
func (t AvailableTool) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("tool id is required")
	}
	seen := map[string]bool{}
	for _, f := range t.ConfigFields {
		if f.Key == "" {
			return fmt.Errorf("tool %s: config field key is required", t.ID)
		}
		if seen[f.Key] {
			return fmt.Errorf("tool %s: duplicate config field %q", t.ID, f.Key)
		}
		seen[f.Key] = true
		if f.FieldType != "" && !slices.Contains(FieldTypes, f.FieldType) {
			return fmt.Errorf("tool %s: field %s has unknown type %q", t.ID, f.Key, f.FieldType)
		}
		if f.FieldType == FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("tool %s: select field %s needs options", t.ID, f.Key)
		}
	}
	if t.RequiresAuth && t.ServiceType == "" {
		return fmt.Errorf("tool %s: service_type is required when requires_auth is set", t.ID)
	}
	return nil
}

// Catalog is an ordered, read-only set of available tools.
type Catalog struct {
	tools []AvailableTool
	index map[string]int
}

// NewCatalog validates tools and indexes them by ID.
func NewCatalog(tools []AvailableTool) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tool id %q", t.ID)
		}
		c.index[t.ID] = len(c.tools)
		c.tools = append(c.tools, t)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (AvailableTool, bool) {
	if c == nil {
		return AvailableTool{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return AvailableTool{}, false
	}
	return c.tools[i], true
}

// List returns the tools in catalog order.
func (c *Catalog) List() []AvailableTool {
	if c == nil {
		return nil
	}
	return slices.Clone(c.tools)
}
