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

// Package validation checks untyped agent documents and turns them into
// typed records.
//
// Validation runs in three passes over the document: a structural pass
// that checks presence and primitive types while building the record, a
// per-type pass selected by the config discriminant, and a refinement pass
// for constraints spanning several fields. Every violation is reported;
// the engine never stops at the first one.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// Validate checks candidate, typically a map[string]any decoded from JSON
// or YAML, and returns the typed record. The record is nil whenever the
// error list is non-empty.
func Validate(candidate any) (*agentconfig.Record, ErrorList) {
	w := &walker{}

	root, ok := asMap(candidate)
	if !ok {
		w.add("", KindTypeMismatch, "document must be an object, got %s", typeName(candidate))
		return nil, w.errs
	}

	rec := decodeRecord(object{w: w, path: "", m: root})
	refineRecord(w, rec)

	if len(w.errs) > 0 {
		w.errs.sort()
		return nil, w.errs
	}
	return rec, nil
}

// ValidateRecord validates an in-memory record by rendering it to its
// document form first, so drafts get the same checks as imports.
func ValidateRecord(r *agentconfig.Record) ErrorList {
	if r == nil {
		return ErrorList{{Path: "", Kind: KindMissing, Message: "record is required"}}
	}
	doc, err := toDocument(r)
	if err != nil {
		return ErrorList{{Path: "config.type", Kind: KindMissing, Message: err.Error()}}
	}
	_, errs := Validate(doc)
	return errs
}

func toDocument(r *agentconfig.Record) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to render record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to render record: %w", err)
	}
	return doc, nil
}

func decodeRecord(o object) *agentconfig.Record {
	r := &agentconfig.Record{}

	r.ID = o.str("id", false)
	r.OriginalAgentID = r.ID
	if _, ok := o.lookup("originalAgentId"); ok {
		r.OriginalAgentID = o.str("originalAgentId", false)
	}
	r.InternalVersion = o.integer("internalVersion", 1, 1)
	r.IsLatest = o.boolean("isLatest", true)

	r.Name = o.str("name", true)
	r.Description = o.str("description", false)
	r.Version = agentconfig.DefaultVersion
	if _, ok := o.lookup("semanticVersion"); ok {
		r.Version = o.str("semanticVersion", false)
		if !o.w.errs.Has("semanticVersion") {
			if _, err := semver.StrictNewVersion(r.Version); err != nil {
				o.w.add("semanticVersion", KindRange, "must be a semantic version (MAJOR.MINOR.PATCH), got %q", r.Version)
			}
		}
	}
	r.Icon = o.str("icon", false)
	r.Tags = o.strings("tags", true)
	r.IsTemplate = o.boolean("isTemplate", false)
	r.IsFavorite = o.boolean("isFavorite", false)
	r.OwnerID = o.str("ownerId", false)
	r.CreatedAt = o.timestamp("createdAt")
	r.UpdatedAt = o.timestamp("updatedAt")

	if cfg, ok := o.object("config", true); ok {
		r.Config = decodeConfig(cfg)
	}

	r.SelectedToolIDs = o.strings("selectedToolIds", true)
	r.ToolConfigurations = decodeToolConfigurations(o)
	r.ToolSummaries = decodeToolSummaries(o)
	r.Deployment = decodeDeployment(o)
	return r
}

func decodeConfig(o object) agentconfig.AgentConfig {
	var c agentconfig.AgentConfig

	typ := enum(o, "type", agentconfig.AgentTypes, "", true)
	c.Framework = enum(o, "framework", agentconfig.Frameworks, "", true)
	c.IsRootAgent = o.boolean("isRootAgent", false)
	c.SubAgentIDs = o.strings("subAgentIds", true)
	c.GlobalInstruction = o.str("globalInstruction", false)

	c.StatePersistence = decodeState(o)
	c.RagMemory = decodeRag(o)
	c.Artifacts = decodeArtifacts(o)
	c.A2A = decodeA2A(o)

	// An unknown or missing discriminant leaves the variant unset; no
	// type-specific rules apply.
	if rule, ok := variantRules[typ]; ok {
		c.Variant = rule.decode(o)
	}
	return c
}

func decodeToolConfigurations(o object) map[string]agentconfig.ToolConfigData {
	out := map[string]agentconfig.ToolConfigData{}
	tcs, ok := o.object("toolConfigurations", false)
	if !ok {
		return out
	}
	for toolID := range tcs.m {
		entry, ok := tcs.object(toolID, false)
		if !ok {
			continue
		}
		out[toolID] = agentconfig.ToolConfigData{
			Values:        entry.stringMap("values"),
			CredentialRef: entry.str("credentialRef", false),
		}
	}
	return out
}

func decodeToolSummaries(o object) []agentconfig.ToolSummary {
	out := []agentconfig.ToolSummary{}
	for _, s := range o.objects("toolSummaries") {
		out = append(out, agentconfig.ToolSummary{
			ToolID:       s.str("toolId", true),
			Name:         s.str("name", false),
			Icon:         s.str("icon", false),
			FunctionName: s.str("functionName", false),
		})
	}
	return out
}

func refineRecord(w *walker, r *agentconfig.Record) {
	if !r.CreatedAt.IsZero() && !r.UpdatedAt.IsZero() && r.UpdatedAt.Before(r.CreatedAt) {
		w.refine("updatedAt", "must not be earlier than createdAt")
	}

	if r.ID != "" {
		for i, id := range r.Config.SubAgentIDs {
			if id == r.ID {
				w.refine(index("config.subAgentIds", i), "an agent cannot be its own sub-agent")
			}
		}
	}

	for toolID := range r.ToolConfigurations {
		if strings.TrimSpace(toolID) == "" {
			w.add("toolConfigurations", KindRange, "tool id must not be blank")
		}
	}

	refineState(w, "config.statePersistence", &r.Config.StatePersistence)
	refineArtifacts(w, "config.artifacts", &r.Config.Artifacts)
	refineA2A(w, "config.a2a", &r.Config.A2A)
	refineDeployment(w, "deployment", &r.Deployment)

	if rule, ok := variantRules[r.Config.Type()]; ok && rule.refine != nil {
		rule.refine(w, "config", r.Config.Variant)
	}
}
