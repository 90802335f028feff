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

// Package codec converts agent records to and from transportable documents.
//
// Every document read through this package passes the validation engine
// before a record is returned; there is no trusted import path.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/validation"
)

// ImportError rejects a whole document that could not be read as an agent
// record at all. Field-level problems are reported as validation.ErrorList.
type ImportError struct {
	Format Format
	Err    error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected: invalid %s document: %v", e.Format, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

var errNotObject = errors.New("document must be an object")

// Serialize renders every field of the record as indented JSON, disabled
// subsystems included.
func Serialize(r *agentconfig.Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("cannot serialize nil record")
	}
	c := r.Clone()
	c.Normalize()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize agent %q: %w", r.Name, err)
	}
	return data, nil
}

// Deserialize parses a JSON document and validates it. The returned error
// is either an *ImportError or a validation.ErrorList.
func Deserialize(data []byte) (*agentconfig.Record, error) {
	doc, err := decodeJSON(data)
	if err != nil {
		return nil, &ImportError{Format: FormatJSON, Err: err}
	}
	return validate(doc)
}

// ImportAsNew deserializes a document destined to become a new agent. The
// imported identity is replaced and both timestamps are set to now.
func ImportAsNew(data []byte, now time.Time) (*agentconfig.Record, error) {
	r, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	AssignNewIdentity(r, now)
	return r, nil
}

// AssignNewIdentity gives r a fresh identity as version 1 of a new agent.
func AssignNewIdentity(r *agentconfig.Record, now time.Time) {
	r.ID = uuid.NewString()
	r.OriginalAgentID = r.ID
	r.InternalVersion = 1
	r.IsLatest = true
	r.CreatedAt = now.UTC()
	r.UpdatedAt = r.CreatedAt
}

// ToMap renders the record as the generic tree consumed by
// validation.Validate. Numbers are kept as json.Number.
func ToMap(r *agentconfig.Record) (map[string]any, error) {
	data, err := Serialize(r)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after top-level value")
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return m, nil
}

func validate(doc map[string]any) (*agentconfig.Record, error) {
	r, errs := validation.Validate(doc)
	if len(errs) > 0 {
		return nil, errs
	}
	return r, nil
}
