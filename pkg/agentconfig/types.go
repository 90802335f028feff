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

// AgentType is the discriminant of AgentConfig.
type AgentType string

const (
	TypeLLM        AgentType = "llm"
	TypeWorkflow   AgentType = "workflow"
	TypeCustom     AgentType = "custom"
	TypeSpecialist AgentType = "a2a-specialist"
)

// AgentTypes lists every supported discriminant in display order.
var AgentTypes = []AgentType{TypeLLM, TypeWorkflow, TypeCustom, TypeSpecialist}

// Framework identifies the agent framework the configuration targets.
type Framework string

const (
	FrameworkADK            Framework = "adk"
	FrameworkLangGraph      Framework = "langgraph"
	FrameworkCrewAI         Framework = "crewai"
	FrameworkAutoGen        Framework = "autogen"
	FrameworkSemanticKernel Framework = "semantic_kernel"
	FrameworkCustom         Framework = "custom"
)

var Frameworks = []Framework{
	FrameworkADK, FrameworkLangGraph, FrameworkCrewAI,
	FrameworkAutoGen, FrameworkSemanticKernel, FrameworkCustom,
}

// WorkflowType is the orchestration shape of a workflow agent.
type WorkflowType string

const (
	WorkflowSequential   WorkflowType = "sequential"
	WorkflowParallel     WorkflowType = "parallel"
	WorkflowLoop         WorkflowType = "loop"
	WorkflowGraph        WorkflowType = "graph"
	WorkflowStateMachine WorkflowType = "stateMachine"
)

var WorkflowTypes = []WorkflowType{
	WorkflowSequential, WorkflowParallel, WorkflowLoop, WorkflowGraph, WorkflowStateMachine,
}

type StateBackend string

const (
	StateBackendSession  StateBackend = "session"
	StateBackendMemory   StateBackend = "memory"
	StateBackendDatabase StateBackend = "database"
)

var StateBackends = []StateBackend{StateBackendSession, StateBackendMemory, StateBackendDatabase}

// StateScope controls visibility and lifetime of persisted state keys.
type StateScope string

const (
	ScopeAgent     StateScope = "AGENT"
	ScopeGlobal    StateScope = "GLOBAL"
	ScopeTemporary StateScope = "TEMPORARY"
)

var StateScopes = []StateScope{ScopeAgent, ScopeGlobal, ScopeTemporary}

type RuleType string

const (
	RuleJSONSchema RuleType = "json_schema"
	RuleRegex      RuleType = "regex"
)

var RuleTypes = []RuleType{RuleJSONSchema, RuleRegex}

type RagBackend string

const (
	RagBackendInMemory    RagBackend = "in_memory"
	RagBackendVertexAIRag RagBackend = "vertex_ai_rag"
	RagBackendVectorDB    RagBackend = "vector_db"
)

var RagBackends = []RagBackend{RagBackendInMemory, RagBackendVertexAIRag, RagBackendVectorDB}

// SourceType tags a knowledge source; each tag requires its own field.
type SourceType string

const (
	SourceFile      SourceType = "file"
	SourceURL       SourceType = "url"
	SourceTextChunk SourceType = "text_chunk"
	SourceDrive     SourceType = "drive"
)

var SourceTypes = []SourceType{SourceFile, SourceURL, SourceTextChunk, SourceDrive}

type MemoryBackend string

const (
	MemoryBackendInMemory MemoryBackend = "in_memory"
	MemoryBackendDatabase MemoryBackend = "database"
)

var MemoryBackends = []MemoryBackend{MemoryBackendInMemory, MemoryBackendDatabase}

type ArtifactStorage string

const (
	StorageMemory     ArtifactStorage = "memory"
	StorageFilesystem ArtifactStorage = "filesystem"
	StorageCloud      ArtifactStorage = "cloud"
)

var ArtifactStorages = []ArtifactStorage{StorageMemory, StorageFilesystem, StorageCloud}

type ArtifactPermission string

const (
	PermissionRead      ArtifactPermission = "read"
	PermissionWrite     ArtifactPermission = "write"
	PermissionReadWrite ArtifactPermission = "read_write"
)

var ArtifactPermissions = []ArtifactPermission{PermissionRead, PermissionWrite, PermissionReadWrite}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

var Directions = []Direction{DirectionInbound, DirectionOutbound}

type MessageFormat string

const (
	FormatJSON     MessageFormat = "json"
	FormatText     MessageFormat = "text"
	FormatProtobuf MessageFormat = "protobuf"
)

var MessageFormats = []MessageFormat{FormatJSON, FormatText, FormatProtobuf}

type SyncMode string

const (
	SyncModeSync  SyncMode = "sync"
	SyncModeAsync SyncMode = "async"
)

var SyncModes = []SyncMode{SyncModeSync, SyncModeAsync}

// SecurityPolicy selects how inbound A2A calls are authenticated.
type SecurityPolicy string

const (
	SecurityNone   SecurityPolicy = "none"
	SecurityJWT    SecurityPolicy = "jwt"
	SecurityAPIKey SecurityPolicy = "api_key"
)

var SecurityPolicies = []SecurityPolicy{SecurityNone, SecurityJWT, SecurityAPIKey}

type Platform string

const (
	PlatformLocal       Platform = "local"
	PlatformDocker      Platform = "docker"
	PlatformCloudRun    Platform = "cloud_run"
	PlatformKubernetes  Platform = "kubernetes"
	PlatformAgentEngine Platform = "agent_engine"
)

var Platforms = []Platform{
	PlatformLocal, PlatformDocker, PlatformCloudRun, PlatformKubernetes, PlatformAgentEngine,
}

// Strings converts a list of string-typed enum values into plain strings.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
