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
	"mime"
	"regexp"
	"strings"

	"github.com/docker/go-units"
	"github.com/kaptinlin/jsonschema"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

var (
	envKeyPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	cpuPattern        = regexp.MustCompile(`^([0-9]+(\.[0-9]+)?|[0-9]+m)$`)
	headerNamePattern = regexp.MustCompile("^[!#$%&'*+\\-.^_`|~0-9A-Za-z]+$")
)

// Structural and range checks on a subsystem always run, enabled or not,
// so residual values stay well-formed. Cross-field refinements only run
// while the subsystem is enabled.

func decodeState(parent object) agentconfig.StatePersistence {
	s := agentconfig.DefaultStatePersistence()
	o, ok := parent.object("statePersistence", false)
	if !ok {
		return s
	}

	s.Enabled = o.boolean("enabled", false)
	s.Backend = enum(o, "backend", agentconfig.StateBackends, s.Backend, false)
	s.DefaultScope = enum(o, "defaultScope", agentconfig.StateScopes, s.DefaultScope, false)
	s.TTLSeconds = o.optionalInt("ttlSeconds", 1)

	for _, e := range o.objects("initialState") {
		s.InitialState = append(s.InitialState, agentconfig.StateEntry{
			Key:   e.str("key", true),
			Value: e.str("value", false),
			Scope: enum(e, "scope", agentconfig.StateScopes, agentconfig.ScopeAgent, false),
		})
	}

	for _, r := range o.objects("validationRules") {
		rule := agentconfig.StateValidationRule{
			Name: r.str("name", true),
			Type: enum(r, "type", agentconfig.RuleTypes, "", true),
			Rule: r.str("rule", true),
		}
		if rulePath := join(r.path, "rule"); !o.w.errs.Has(rulePath) {
			checkRule(o.w, rulePath, rule)
		}
		s.ValidationRules = append(s.ValidationRules, rule)
	}
	return s
}

func checkRule(w *walker, path string, rule agentconfig.StateValidationRule) {
	switch rule.Type {
	case agentconfig.RuleRegex:
		if _, err := regexp.Compile(rule.Rule); err != nil {
			w.add(path, KindRange, "invalid regular expression: %v", err)
		}
	case agentconfig.RuleJSONSchema:
		if _, err := jsonschema.NewCompiler().Compile([]byte(rule.Rule)); err != nil {
			w.add(path, KindRange, "invalid JSON Schema: %v", err)
		}
	}
}

func refineState(w *walker, path string, s *agentconfig.StatePersistence) {
	if !s.Enabled {
		return
	}
	if s.DefaultScope == agentconfig.ScopeTemporary && s.TTLSeconds == nil {
		w.refine(join(path, "ttlSeconds"), "is required when defaultScope is TEMPORARY")
	}

	seen := map[string]bool{}
	for i, e := range s.InitialState {
		if e.Key == "" {
			continue
		}
		if seen[e.Key] {
			w.refine(join(index(join(path, "initialState"), i), "key"), "duplicate state key %q", e.Key)
		}
		seen[e.Key] = true
	}
}

func decodeRag(parent object) agentconfig.RagMemory {
	r := agentconfig.DefaultRagMemory()
	o, ok := parent.object("ragMemory", false)
	if !ok {
		return r
	}

	r.Enabled = o.boolean("enabled", false)
	r.Backend = enum(o, "backend", agentconfig.RagBackends, r.Backend, false)

	for _, s := range o.objects("knowledgeSources") {
		src := agentconfig.KnowledgeSource{
			Type: enum(s, "type", agentconfig.SourceTypes, "", true),
			Name: s.str("name", false),
		}
		src.Path = s.str("path", src.Type == agentconfig.SourceFile)
		src.URL = s.str("url", src.Type == agentconfig.SourceURL)
		src.Content = s.str("content", src.Type == agentconfig.SourceTextChunk)
		src.DriveID = s.str("driveId", src.Type == agentconfig.SourceDrive)
		r.KnowledgeSources = append(r.KnowledgeSources, src)
	}

	if ret, ok := o.object("retrieval", false); ok {
		r.Retrieval.TopK = ret.integer("topK", agentconfig.DefaultTopK, 1)
		r.Retrieval.SimilarityThreshold = ret.number("similarityThreshold", agentconfig.DefaultSimilarityThreshold, 0, 1)
	}

	if pm, ok := o.object("persistentMemory", false); ok {
		r.PersistentMemory = &agentconfig.PersistentMemory{
			Enabled:   pm.boolean("enabled", false),
			Backend:   enum(pm, "backend", agentconfig.MemoryBackends, agentconfig.MemoryBackendInMemory, false),
			Namespace: pm.str("namespace", false),
		}
	}
	return r
}

func decodeArtifacts(parent object) agentconfig.Artifacts {
	a := agentconfig.DefaultArtifacts()
	o, ok := parent.object("artifacts", false)
	if !ok {
		return a
	}

	a.Enabled = o.boolean("enabled", false)
	a.Storage = enum(o, "storageType", agentconfig.ArtifactStorages, a.Storage, false)
	a.BucketName = o.str("bucketName", false)
	a.LocalPath = o.str("localPath", false)

	for _, d := range o.objects("definitions") {
		def := agentconfig.ArtifactDefinition{
			Name:       d.str("name", true),
			MimeType:   d.str("mimeType", false),
			Required:   d.boolean("required", false),
			Permission: enum(d, "permission", agentconfig.ArtifactPermissions, agentconfig.PermissionReadWrite, false),
			Versioning: d.boolean("versioning", false),
		}
		if def.MimeType != "" {
			if _, _, err := mime.ParseMediaType(def.MimeType); err != nil {
				d.w.add(join(d.path, "mimeType"), KindRange, "invalid media type %q", def.MimeType)
			}
		}
		a.Definitions = append(a.Definitions, def)
	}
	return a
}

func refineArtifacts(w *walker, path string, a *agentconfig.Artifacts) {
	if !a.Enabled {
		return
	}
	switch a.Storage {
	case agentconfig.StorageCloud:
		if strings.TrimSpace(a.BucketName) == "" {
			w.refine(join(path, "bucketName"), "is required for cloud storage")
		}
	case agentconfig.StorageFilesystem:
		if strings.TrimSpace(a.LocalPath) == "" {
			w.refine(join(path, "localPath"), "is required for filesystem storage")
		}
	}

	seen := map[string]bool{}
	for i, d := range a.Definitions {
		if d.Name == "" {
			continue
		}
		if seen[d.Name] {
			w.refine(join(index(join(path, "definitions"), i), "name"), "duplicate artifact name %q", d.Name)
		}
		seen[d.Name] = true
	}
}

func decodeA2A(parent object) agentconfig.A2AConfig {
	a := agentconfig.DefaultA2A()
	o, ok := parent.object("a2a", false)
	if !ok {
		return a
	}

	a.Enabled = o.boolean("enabled", false)
	for _, c := range o.objects("channels") {
		a.Channels = append(a.Channels, agentconfig.A2AChannel{
			Name:           c.str("name", true),
			Direction:      enum(c, "direction", agentconfig.Directions, "", true),
			MessageFormat:  enum(c, "messageFormat", agentconfig.MessageFormats, agentconfig.FormatJSON, false),
			SyncMode:       enum(c, "syncMode", agentconfig.SyncModes, agentconfig.SyncModeSync, false),
			TimeoutSeconds: c.optionalInt("timeoutSeconds", 1),
			TargetAgentID:  c.str("targetAgentId", false),
		})
	}
	a.DefaultResponseFormat = enum(o, "defaultResponseFormat", agentconfig.MessageFormats, a.DefaultResponseFormat, false)
	a.SecurityPolicy = enum(o, "securityPolicy", agentconfig.SecurityPolicies, a.SecurityPolicy, false)
	a.APIKeyHeaderName = o.str("apiKeyHeaderName", false)
	if strings.TrimSpace(a.APIKeyHeaderName) != "" && !headerNamePattern.MatchString(a.APIKeyHeaderName) {
		o.w.add(join(o.path, "apiKeyHeaderName"), KindRange, "%q is not a valid HTTP header name", a.APIKeyHeaderName)
	}
	a.EnableLogging = o.boolean("enableLogging", false)
	return a
}

// refineA2A checks the api_key header whether or not A2A is enabled; the
// channel rules only apply to an enabled subsystem.
func refineA2A(w *walker, path string, a *agentconfig.A2AConfig) {
	if a.SecurityPolicy == agentconfig.SecurityAPIKey && strings.TrimSpace(a.APIKeyHeaderName) == "" {
		w.refine(join(path, "apiKeyHeaderName"), "is required when securityPolicy is api_key")
	}
	if !a.Enabled {
		return
	}

	seen := map[string]bool{}
	for i, c := range a.Channels {
		cp := index(join(path, "channels"), i)
		if c.Direction == agentconfig.DirectionOutbound && strings.TrimSpace(c.TargetAgentID) == "" {
			w.refine(join(cp, "targetAgentId"), "is required for outbound channels")
		}
		if c.Name == "" {
			continue
		}
		if seen[c.Name] {
			w.refine(join(cp, "name"), "duplicate channel name %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func decodeDeployment(parent object) agentconfig.Deployment {
	d := agentconfig.DefaultDeployment()
	o, ok := parent.object("deployment", false)
	if !ok {
		return d
	}

	d.Platform = enum(o, "platform", agentconfig.Platforms, d.Platform, false)

	if envs := o.objects("environmentVariables"); envs != nil {
		d.EnvironmentVariables = []agentconfig.EnvVar{}
		for _, e := range envs {
			key := e.str("key", true)
			if key != "" && !envKeyPattern.MatchString(key) {
				e.w.add(join(e.path, "key"), KindRange, "%q is not a valid environment variable name", key)
			}
			d.EnvironmentVariables = append(d.EnvironmentVariables, agentconfig.EnvVar{
				Key:   key,
				Value: e.str("value", false),
			})
		}
	}

	if res, ok := o.object("resources", false); ok {
		d.Resources.CPU = res.str("cpu", false)
		if d.Resources.CPU != "" && !cpuPattern.MatchString(d.Resources.CPU) {
			res.w.add(join(res.path, "cpu"), KindRange, "%q is not a valid CPU quantity", d.Resources.CPU)
		}
		d.Resources.Memory = res.str("memory", false)
		if d.Resources.Memory != "" {
			if _, err := memoryBytes(d.Resources.Memory); err != nil {
				res.w.add(join(res.path, "memory"), KindRange, "%q is not a valid memory size", d.Resources.Memory)
			}
		}
		d.Resources.MinInstances = res.integer("minInstances", 0, 0)
		d.Resources.MaxInstances = res.integer("maxInstances", 0, 0)
	}
	return d
}

// memoryBytes parses a memory size. Kubernetes binary suffixes (Ki, Mi, Gi)
// are read as their go-units IEC spelling (KiB, MiB, GiB).
func memoryBytes(size string) (int64, error) {
	if strings.HasSuffix(size, "i") || strings.HasSuffix(size, "I") {
		size += "B"
	}
	return units.RAMInBytes(size)
}

func refineDeployment(w *walker, path string, d *agentconfig.Deployment) {
	seen := map[string]bool{}
	for i, e := range d.EnvironmentVariables {
		if e.Key == "" {
			continue
		}
		if seen[e.Key] {
			w.refine(join(index(join(path, "environmentVariables"), i), "key"), "duplicate environment variable %q", e.Key)
		}
		seen[e.Key] = true
	}

	r := d.Resources
	if r.MaxInstances > 0 && r.MaxInstances < r.MinInstances {
		w.refine(join(path, "resources.maxInstances"), "must be at least minInstances (%d)", r.MinInstances)
	}
}
