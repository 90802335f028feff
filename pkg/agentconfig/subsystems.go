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

package agentconfig

// Subsystems keep their settings while disabled so toggling them off and on
// again restores the previous values. Export always carries them.

// StatePersistence configures how the agent persists conversational state.
type StatePersistence struct {
	Enabled      bool         `json:"enabled" jsonschema:"title=Enabled,default=false"`
	Backend      StateBackend `json:"backend" jsonschema:"title=Backend,enum=session,enum=memory,enum=database,default=session"`
	DefaultScope StateScope   `json:"defaultScope" jsonschema:"title=Default Scope,enum=AGENT,enum=GLOBAL,enum=TEMPORARY,default=AGENT"`

	// TTLSeconds is required when DefaultScope is TEMPORARY.
	TTLSeconds      *int                  `json:"ttlSeconds" jsonschema:"title=TTL (seconds),minimum=1"`
	InitialState    []StateEntry          `json:"initialState" jsonschema:"title=Initial State"`
	ValidationRules []StateValidationRule `json:"validationRules" jsonschema:"title=Validation Rules"`
}

type StateEntry struct {
	Key   string     `json:"key" jsonschema:"required"`
	Value string     `json:"value"`
	Scope StateScope `json:"scope" jsonschema:"enum=AGENT,enum=GLOBAL,enum=TEMPORARY"`
}

// StateValidationRule constrains values written to state. Rule holds either
// a JSON Schema document or a regular expression depending on Type.
type StateValidationRule struct {
	Name string   `json:"name" jsonschema:"required"`
	Type RuleType `json:"type" jsonschema:"enum=json_schema,enum=regex"`
	Rule string   `json:"rule" jsonschema:"required"`
}

// RagMemory configures retrieval-augmented memory.
type RagMemory struct {
	Enabled          bool              `json:"enabled" jsonschema:"title=Enabled,default=false"`
	Backend          RagBackend        `json:"backend" jsonschema:"title=Backend,enum=in_memory,enum=vertex_ai_rag,enum=vector_db,default=in_memory"`
	KnowledgeSources []KnowledgeSource `json:"knowledgeSources" jsonschema:"title=Knowledge Sources"`
	Retrieval        Retrieval         `json:"retrieval" jsonschema:"title=Retrieval"`
	PersistentMemory *PersistentMemory `json:"persistentMemory" jsonschema:"title=Persistent Memory"`
}

// KnowledgeSource is tagged by Type. Only the field belonging to the tag is
// meaningful: Path for file, URL for url, Content for text_chunk and DriveID
// for drive.
type KnowledgeSource struct {
	Type    SourceType `json:"type" jsonschema:"enum=file,enum=url,enum=text_chunk,enum=drive"`
	Name    string     `json:"name"`
	Path    string     `json:"path"`
	URL     string     `json:"url"`
	Content string     `json:"content"`
	DriveID string     `json:"driveId"`
}

// Payload returns the tag-specific field of the source.
func (s KnowledgeSource) Payload() (field, value string) {
	switch s.Type {
	case SourceFile:
		return "path", s.Path
	case SourceURL:
		return "url", s.URL
	case SourceTextChunk:
		return "content", s.Content
	case SourceDrive:
		return "driveId", s.DriveID
	default:
		return "", ""
	}
}

type Retrieval struct {
	TopK                int     `json:"topK" jsonschema:"title=Top K,minimum=1,default=5"`
	SimilarityThreshold float64 `json:"similarityThreshold" jsonschema:"title=Similarity Threshold,minimum=0,maximum=1,default=0.7"`
}

type PersistentMemory struct {
	Enabled   bool          `json:"enabled"`
	Backend   MemoryBackend `json:"backend" jsonschema:"enum=in_memory,enum=database"`
	Namespace string        `json:"namespace"`
}

// Artifacts configures files the agent may produce or consume.
type Artifacts struct {
	Enabled     bool                 `json:"enabled" jsonschema:"title=Enabled,default=false"`
	Storage     ArtifactStorage      `json:"storageType" jsonschema:"title=Storage,enum=memory,enum=filesystem,enum=cloud,default=memory"`
	BucketName  string               `json:"bucketName" jsonschema:"title=Bucket Name,description=Required for cloud storage"`
	LocalPath   string               `json:"localPath" jsonschema:"title=Local Path,description=Required for filesystem storage"`
	Definitions []ArtifactDefinition `json:"definitions" jsonschema:"title=Definitions"`
}

type ArtifactDefinition struct {
	Name       string             `json:"name" jsonschema:"required"`
	MimeType   string             `json:"mimeType"`
	Required   bool               `json:"required"`
	Permission ArtifactPermission `json:"permission" jsonschema:"enum=read,enum=write,enum=read_write"`
	Versioning bool               `json:"versioning"`
}

// A2AConfig configures agent-to-agent communication.
type A2AConfig struct {
	Enabled               bool           `json:"enabled" jsonschema:"title=Enabled,default=false"`
	Channels              []A2AChannel   `json:"channels" jsonschema:"title=Channels"`
	DefaultResponseFormat MessageFormat  `json:"defaultResponseFormat" jsonschema:"enum=json,enum=text,enum=protobuf,default=json"`
	SecurityPolicy        SecurityPolicy `json:"securityPolicy" jsonschema:"enum=none,enum=jwt,enum=api_key,default=none"`
	APIKeyHeaderName      string         `json:"apiKeyHeaderName" jsonschema:"title=API Key Header,description=Required when securityPolicy is api_key"`
	EnableLogging         bool           `json:"enableLogging"`
}

type A2AChannel struct {
	Name           string        `json:"name" jsonschema:"required"`
	Direction      Direction     `json:"direction" jsonschema:"enum=inbound,enum=outbound"`
	MessageFormat  MessageFormat `json:"messageFormat" jsonschema:"enum=json,enum=text,enum=protobuf"`
	SyncMode       SyncMode      `json:"syncMode" jsonschema:"enum=sync,enum=async"`
	TimeoutSeconds *int          `json:"timeoutSeconds" jsonschema:"minimum=1"`
	TargetAgentID  string        `json:"targetAgentId" jsonschema:"description=Required for outbound channels"`
}

// Deployment holds deployment hints. It is not used to deploy anything.
type Deployment struct {
	Platform             Platform  `json:"platform" jsonschema:"enum=local,enum=docker,enum=cloud_run,enum=kubernetes,enum=agent_engine,default=local"`
	EnvironmentVariables []EnvVar  `json:"environmentVariables"`
	Resources            Resources `json:"resources"`
}

type EnvVar struct {
	Key   string `json:"key" jsonschema:"pattern=^[A-Za-z_][A-Za-z0-9_]*$"`
	Value string `json:"value"`
}

type Resources struct {
	CPU          string `json:"cpu" jsonschema:"description=CPU request (e.g. 500m or 2)"`
	Memory       string `json:"memory" jsonschema:"description=Memory request (e.g. 512Mi or 2GB)"`
	MinInstances int    `json:"minInstances" jsonschema:"minimum=0"`
	MaxInstances int    `json:"maxInstances" jsonschema:"minimum=0"`
}

// DefaultStatePersistence returns the disabled default.
func DefaultStatePersistence() StatePersistence {
	return StatePersistence{
		Backend:         StateBackendSession,
		DefaultScope:    ScopeAgent,
		InitialState:    []StateEntry{},
		ValidationRules: []StateValidationRule{},
	}
}

func DefaultRagMemory() RagMemory {
	return RagMemory{
		Backend:          RagBackendInMemory,
		KnowledgeSources: []KnowledgeSource{},
		Retrieval: Retrieval{
			TopK:                DefaultTopK,
			SimilarityThreshold: DefaultSimilarityThreshold,
		},
	}
}

func DefaultArtifacts() Artifacts {
	return Artifacts{
		Storage:     StorageMemory,
		Definitions: []ArtifactDefinition{},
	}
}

func DefaultA2A() A2AConfig {
	return A2AConfig{
		Channels:              []A2AChannel{},
		DefaultResponseFormat: FormatJSON,
		SecurityPolicy:        SecurityNone,
	}
}

func DefaultDeployment() Deployment {
	return Deployment{
		Platform:             PlatformLocal,
		EnvironmentVariables: []EnvVar{},
		Resources: Resources{
			CPU:          "1",
			Memory:       "512Mi",
			MinInstances: 0,
			MaxInstances: 1,
		},
	}
}
