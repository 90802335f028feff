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
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// SerializeYAML renders the record as YAML with the same keys, in the same
// order, as the JSON export.
func SerializeYAML(r *agentconfig.Record) ([]byte, error) {
	data, err := Serialize(r)
	if err != nil {
		return nil, err
	}

	// JSON is valid YAML; parsing it into a node tree keeps key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert agent %q to YAML: %w", r.Name, err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to convert agent %q to YAML: %w", r.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles inherited from JSON. The
// encoder still quotes scalars whose plain form would change type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// DeserializeYAML is the YAML counterpart of Deserialize.
func DeserializeYAML(data []byte) (*agentconfig.Record, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Format: FormatYAML, Err: err}
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ImportError{Format: FormatYAML, Err: errNotObject}
	}
	return validate(m)
}
