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
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// walker collects errors while reading an untyped document.
type walker struct {
	errs ErrorList
}

func (w *walker) add(path string, kind Kind, format string, args ...any) {
	w.errs = append(w.errs, &FieldError{Path: path, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// refine adds a cross-field error unless the path already failed a
// structural check.
func (w *walker) refine(path, format string, args ...any) {
	if w.errs.Has(path) {
		return
	}
	w.add(path, KindCrossField, format, args...)
}

func (w *walker) failed(path string) bool {
	return len(w.errs.Under(path)) > 0
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func index(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// object is a view over one JSON object at a known path.
type object struct {
	w    *walker
	path string
	m    map[string]any
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// lookup treats explicit null as absent.
func (o object) lookup(key string) (any, bool) {
	v, ok := o.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (o object) str(key string, required bool) string {
	path := join(o.path, key)
	v, ok := o.lookup(key)
	if !ok {
		if required {
			o.w.add(path, KindMissing, "is required")
		}
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.w.add(path, KindTypeMismatch, "must be a string, got %s", typeName(v))
		return ""
	}
	if required && strings.TrimSpace(s) == "" {
		o.w.add(path, KindMissing, "must not be blank")
	}
	return s
}

// text is an optional string with a rune limit.
func (o object) text(key string, maxRunes int) string {
	s := o.str(key, false)
	if n := len([]rune(s)); n > maxRunes {
		o.w.add(join(o.path, key), KindRange, "must be at most %d characters, got %d", maxRunes, n)
	}
	return s
}

func (o object) boolean(key string, def bool) bool {
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		o.w.add(join(o.path, key), KindTypeMismatch, "must be a boolean, got %s", typeName(v))
		return def
	}
	return b
}

// number reads an optional number bounded by [lo, hi].
func (o object) number(key string, def, lo, hi float64) float64 {
	path := join(o.path, key)
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		o.w.add(path, KindTypeMismatch, "must be a number, got %s", typeName(v))
		return def
	}
	if f < lo || f > hi {
		o.w.add(path, KindRange, "must be between %g and %g, got %g", lo, hi, f)
	}
	return f
}

// integer reads an optional integer that must be at least min.
func (o object) integer(key string, def, min int) int {
	p := o.optionalInt(key, min)
	if p == nil {
		return def
	}
	return *p
}

// optionalInt returns nil when absent.
func (o object) optionalInt(key string, min int) *int {
	path := join(o.path, key)
	v, ok := o.lookup(key)
	if !ok {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		o.w.add(path, KindTypeMismatch, "must be an integer, got %s", typeName(v))
		return nil
	}
	if n < min {
		o.w.add(path, KindRange, "must be at least %d, got %d", min, n)
	}
	return &n
}

func (o object) timestamp(key string) time.Time {
	path := join(o.path, key)
	v, ok := o.lookup(key)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			o.w.add(path, KindTypeMismatch, "must be an RFC 3339 timestamp")
			return time.Time{}
		}
		return parsed.UTC()
	default:
		o.w.add(path, KindTypeMismatch, "must be an RFC 3339 timestamp, got %s", typeName(v))
		return time.Time{}
	}
}

// strings reads an optional list of strings. When set is true, duplicate
// entries are reported.
func (o object) strings(key string, set bool) []string {
	path := join(o.path, key)
	out := []string{}
	items, ok := o.list(key)
	if !ok {
		return out
	}
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			o.w.add(index(path, i), KindTypeMismatch, "must be a string, got %s", typeName(item))
			continue
		}
		if set && slices.Contains(out, s) {
			o.w.add(index(path, i), KindRange, "duplicate value %q", s)
			continue
		}
		out = append(out, s)
	}
	return out
}

// stringMap reads an optional object whose values are all strings.
func (o object) stringMap(key string) map[string]string {
	out := map[string]string{}
	child, ok := o.object(key, false)
	if !ok {
		return out
	}
	for k, v := range child.m {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			o.w.add(join(child.path, k), KindTypeMismatch, "must be a string, got %s", typeName(v))
			continue
		}
		out[k] = s
	}
	return out
}

func (o object) list(key string) ([]any, bool) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		o.w.add(join(o.path, key), KindTypeMismatch, "must be an array, got %s", typeName(v))
		return nil, false
	}
	return items, true
}

func (o object) object(key string, required bool) (object, bool) {
	path := join(o.path, key)
	v, ok := o.lookup(key)
	if !ok {
		if required {
			o.w.add(path, KindMissing, "is required")
		}
		return object{}, false
	}
	m, ok := asMap(v)
	if !ok {
		o.w.add(path, KindTypeMismatch, "must be an object, got %s", typeName(v))
		return object{}, false
	}
	return object{w: o.w, path: path, m: m}, true
}

// objects reads an optional array of objects; malformed entries are
// reported and skipped.
func (o object) objects(key string) []object {
	path := join(o.path, key)
	items, ok := o.list(key)
	if !ok {
		return nil
	}
	out := make([]object, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			o.w.add(index(path, i), KindTypeMismatch, "must be an object, got %s", typeName(item))
			continue
		}
		out = append(out, object{w: o.w, path: index(path, i), m: m})
	}
	return out
}

// enum reads a string constrained to allowed. Absent values take def;
// an explicit empty string is out of range.
func enum[T ~string](o object, key string, allowed []T, def T, required bool) T {
	path := join(o.path, key)
	raw, ok := o.lookup(key)
	if !ok && !required {
		return def
	}
	s := o.str(key, required)
	if s == "" {
		// A present empty string is a value, not an absent key.
		if _, isString := raw.(string); isString && !required {
			o.w.add(path, KindRange, "must be one of %s, got %q", enumNames(allowed), s)
		}
		return def
	}
	v := T(s)
	if !slices.Contains(allowed, v) {
		o.w.add(path, KindRange, "must be one of %s, got %q", enumNames(allowed), s)
		return def
	}
	return v
}

func enumNames[T ~string](allowed []T) string {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 0); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any, map[any]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
