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

package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindMissing      Kind = "missing"
	KindTypeMismatch Kind = "type-mismatch"
	KindRange        Kind = "range"
	KindCrossField   Kind = "cross-field"
)

// FieldError is a single violation located by a dot-separated,
// array-indexed path such as "config.a2a.channels[1].targetAgentId".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ErrorList is the complete set of violations found in one document.
type ErrorList []*FieldError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no validation errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(l), strings.Join(msgs, "; "))
}

// Err returns nil for an empty list so callers can use the usual
// err != nil check.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Has reports whether any error is located at path.
func (l ErrorList) Has(path string) bool {
	for _, e := range l {
		if e.Path == path {
			return true
		}
	}
	return false
}

// At returns the errors located at path.
func (l ErrorList) At(path string) ErrorList {
	var out ErrorList
	for _, e := range l {
		if e.Path == path {
			out = append(out, e)
		}
	}
	return out
}

// Under returns the errors located at path or below it.
func (l ErrorList) Under(prefix string) ErrorList {
	var out ErrorList
	for _, e := range l {
		if e.Path == prefix || strings.HasPrefix(e.Path, prefix+".") || strings.HasPrefix(e.Path, prefix+"[") {
			out = append(out, e)
		}
	}
	return out
}

func (l ErrorList) OfKind(kind Kind) ErrorList {
	var out ErrorList
	for _, e := range l {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ByPath groups messages by path for field-level display.
func (l ErrorList) ByPath() map[string][]string {
	out := make(map[string][]string, len(l))
	for _, e := range l {
		out[e.Path] = append(out[e.Path], e.Message)
	}
	return out
}

func (l ErrorList) sort() {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Path < l[j].Path })
}
