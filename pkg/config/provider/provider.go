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

// Package provider defines where documents are read from and how changes
// to them are observed.
//
// Providers serve both the studio configuration and agent documents being
// validated in watch mode.
package provider

import (
	"context"
	"fmt"
)

// Type identifies the source type.
type Type string

const (
	TypeFile   Type = "file"
	TypeConsul Type = "consul"
)

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "file", "":
		return TypeFile, nil
	case "consul":
		return TypeConsul, nil
	default:
		return "", fmt.Errorf("unknown provider type: %s (valid: file, consul)", s)
	}
}

// Provider abstracts document sources.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Type returns the provider type for logging.
	Type() Type

	// Load reads the raw document.
	Load(ctx context.Context) ([]byte, error)

	// Watch signals on the returned channel whenever the document changes.
	// The channel is closed when ctx is cancelled. A nil channel means
	// watching is not supported.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases any resources held by the provider.
	Close() error
}

// ProviderConfig configures provider creation.
type ProviderConfig struct {
	Type Type

	// Path is a file path or a Consul KV key.
	Path string

	// Endpoints holds the Consul address; only the first entry is used.
	Endpoints []string
}

// New creates a Provider based on ProviderConfig.
func New(opts ProviderConfig) (Provider, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	switch opts.Type {
	case TypeFile, "":
		return NewFileProvider(opts.Path)
	case TypeConsul:
		address := ""
		if len(opts.Endpoints) > 0 {
			address = opts.Endpoints[0]
		}
		return NewConsulProvider(address, opts.Path)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", opts.Type)
	}
}
