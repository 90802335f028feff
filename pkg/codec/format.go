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

package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected json or yaml)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes r in the given format.
func Encode(r *agentconfig.Record, f Format) ([]byte, error) {
	if f == FormatYAML {
		return SerializeYAML(r)
	}
	return Serialize(r)
}

// Decode deserializes data in the given format.
func Decode(data []byte, f Format) (*agentconfig.Record, error) {
	if f == FormatYAML {
		return DeserializeYAML(data)
	}
	return Deserialize(data)
}

// ExportFileName derives the download name for an agent, for example
// "support-agent-config.json".
func ExportFileName(name string) string {
	return exportFileName(name, FormatJSON)
}

// ExportFileNameFor is ExportFileName for an arbitrary format.
func ExportFileNameFor(name string, f Format) string {
	return exportFileName(name, f)
}

func exportFileName(name string, f Format) string {
	base := slug.Make(name)
	if base == "" {
		base = "agent"
	}
	return fmt.Sprintf("%s-config.%s", base, f)
}
