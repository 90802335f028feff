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

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const (
	DefaultTemperature         = 0.7
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.7

	// MaxPromptLength caps generated and manual system prompts, in runes.
	MaxPromptLength = 8000

	// PromptHistoryLimit is the default number of prior generated prompts kept.
	PromptHistoryLimit = 10
)

// Base holds the fields shared by every agent type.
type Base struct {
	Framework         Framework        `json:"framework" jsonschema:"title=Framework,enum=adk,enum=langgraph,enum=crewai,enum=autogen,enum=semantic_kernel,enum=custom"`
	IsRootAgent       bool             `json:"isRootAgent" jsonschema:"title=Root Agent"`
	SubAgentIDs       []string         `json:"subAgentIds" jsonschema:"title=Sub-agents,description=Only meaningful for root agents"`
	GlobalInstruction string           `json:"globalInstruction" jsonschema:"title=Global Instruction"`
	StatePersistence  StatePersistence `json:"statePersistence"`
	RagMemory         RagMemory        `json:"ragMemory"`
	Artifacts         Artifacts        `json:"artifacts"`
	A2A               A2AConfig        `json:"a2a"`
}

// Variant is the type-specific part of an AgentConfig. The set of
// implementations is closed.
type Variant interface {
	AgentType() AgentType
	isVariant()
}

// LLMSettings configures an LLM-backed agent.
type LLMSettings struct {
	Model        string   `json:"agentModel" jsonschema:"title=Model,minLength=1"`
	Temperature  float64  `json:"agentTemperature" jsonschema:"title=Temperature,minimum=0,maximum=1,default=0.7"`
	Personality  string   `json:"agentPersonality" jsonschema:"title=Personality"`
	Restrictions []string `json:"agentRestrictions" jsonschema:"title=Restrictions"`
	Goal         string   `json:"agentGoal" jsonschema:"title=Goal,minLength=1"`
	Tasks        []string `json:"agentTasks" jsonschema:"title=Tasks,minItems=1"`

	// SystemPrompt is the generated prompt; ManualSystemPrompt replaces it
	// while ManualPromptOverride is set.
	SystemPrompt         string   `json:"systemPrompt" jsonschema:"title=Generated System Prompt,maxLength=8000"`
	ManualPromptOverride bool     `json:"manualPromptOverride" jsonschema:"title=Manual Prompt Override"`
	ManualSystemPrompt   string   `json:"manualSystemPrompt" jsonschema:"title=Manual System Prompt,maxLength=8000"`
	SystemPromptHistory  []string `json:"systemPromptHistory" jsonschema:"title=Prompt History"`
}

// WorkflowSettings configures a workflow (orchestrating) agent.
type WorkflowSettings struct {
	WorkflowType WorkflowType `json:"workflowType" jsonschema:"title=Workflow Type,enum=sequential,enum=parallel,enum=loop,enum=graph,enum=stateMachine"`
	Description  string       `json:"workflowDescription" jsonschema:"title=Workflow Description"`

	// MaxIterations is required for loop workflows.
	MaxIterations *int `json:"maxIterations" jsonschema:"title=Max Iterations,minimum=1"`
}

// CustomSettings configures an agent backed by user code.
type CustomSettings struct {
	LogicDescription string `json:"customLogicDescription" jsonschema:"title=Logic Description,minLength=1"`
	EntryPoint       string `json:"customEntryPoint" jsonschema:"title=Entry Point"`
}

// SpecialistSettings marks an agent that only serves A2A requests.
type SpecialistSettings struct{}

func (*LLMSettings) AgentType() AgentType        { return TypeLLM }
func (*WorkflowSettings) AgentType() AgentType   { return TypeWorkflow }
func (*CustomSettings) AgentType() AgentType     { return TypeCustom }
func (*SpecialistSettings) AgentType() AgentType { return TypeSpecialist }

func (*LLMSettings) isVariant()        {}
func (*WorkflowSettings) isVariant()   {}
func (*CustomSettings) isVariant()     {}
func (*SpecialistSettings) isVariant() {}

// EffectivePrompt returns the prompt the agent would run with.
func (s *LLMSettings) EffectivePrompt() string {
	if s.ManualPromptOverride {
		return s.ManualSystemPrompt
	}
	return s.SystemPrompt
}

// ReplaceGeneratedPrompt installs a newly generated prompt and moves the
// previous one into history, keeping at most limit entries.
func (s *LLMSettings) ReplaceGeneratedPrompt(prompt string, limit int) {
	if s.SystemPrompt != "" && s.SystemPrompt != prompt {
		s.SystemPromptHistory = append(s.SystemPromptHistory, s.SystemPrompt)
	}
	if limit > 0 && len(s.SystemPromptHistory) > limit {
		s.SystemPromptHistory = s.SystemPromptHistory[len(s.SystemPromptHistory)-limit:]
	}
	s.SystemPrompt = prompt
}

// AgentConfig is a tagged union keyed by the variant's AgentType. On the
// wire it is a single flat object carrying the "type" discriminant.
type AgentConfig struct {
	Base
	Variant Variant `json:"-"`
}

// Type returns the discriminant, or "" when no variant is set.
func (c AgentConfig) Type() AgentType {
	if c.Variant == nil {
		return ""
	}
	return c.Variant.AgentType()
}

// LLM returns the LLM settings when the config is of type llm.
func (c AgentConfig) LLM() (*LLMSettings, bool) {
	s, ok := c.Variant.(*LLMSettings)
	return s, ok
}

func (c AgentConfig) Workflow() (*WorkflowSettings, bool) {
	s, ok := c.Variant.(*WorkflowSettings)
	return s, ok
}

func (c AgentConfig) Custom() (*CustomSettings, bool) {
	s, ok := c.Variant.(*CustomSettings)
	return s, ok
}

// NewVariant returns the default settings for an agent type.
func NewVariant(t AgentType) (Variant, error) {
	switch t {
	case TypeLLM:
		return &LLMSettings{
			Temperature:         DefaultTemperature,
			Restrictions:        []string{},
			Tasks:               []string{},
			SystemPromptHistory: []string{},
		}, nil
	case TypeWorkflow:
		return &WorkflowSettings{WorkflowType: WorkflowSequential}, nil
	case TypeCustom:
		return &CustomSettings{}, nil
	case TypeSpecialist:
		return &SpecialistSettings{}, nil
	default:
		return nil, fmt.Errorf("unknown agent type %q", t)
	}
}

// Flat wire shapes. They double as the JSON Schema source for each variant.
type (
	llmDocument struct {
		Type AgentType `json:"type" jsonschema:"enum=llm"`
		Base
		LLMSettings
	}
	workflowDocument struct {
		Type AgentType `json:"type" jsonschema:"enum=workflow"`
		Base
		WorkflowSettings
	}
	customDocument struct {
		Type AgentType `json:"type" jsonschema:"enum=custom"`
		Base
		CustomSettings
	}
	specialistDocument struct {
		Type AgentType `json:"type" jsonschema:"enum=a2a-specialist"`
		Base
	}
)

func (c AgentConfig) MarshalJSON() ([]byte, error) {
	switch v := c.Variant.(type) {
	case *LLMSettings:
		return json.Marshal(llmDocument{Type: TypeLLM, Base: c.Base, LLMSettings: *v})
	case *WorkflowSettings:
		return json.Marshal(workflowDocument{Type: TypeWorkflow, Base: c.Base, WorkflowSettings: *v})
	case *CustomSettings:
		return json.Marshal(customDocument{Type: TypeCustom, Base: c.Base, CustomSettings: *v})
	case *SpecialistSettings:
		return json.Marshal(specialistDocument{Type: TypeSpecialist, Base: c.Base})
	case nil:
		return nil, fmt.Errorf("agent config has no type")
	default:
		return nil, fmt.Errorf("unsupported agent variant %T", v)
	}
}

// UnmarshalJSON decodes without validating. Documents from outside the
// process go through the validation engine instead.
func (c *AgentConfig) UnmarshalJSON(data []byte) error {
	var head struct {
		Type AgentType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Type {
	case TypeLLM:
		var doc llmDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		c.Base, c.Variant = doc.Base, &doc.LLMSettings
	case TypeWorkflow:
		var doc workflowDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		c.Base, c.Variant = doc.Base, &doc.WorkflowSettings
	case TypeCustom:
		var doc customDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		c.Base, c.Variant = doc.Base, &doc.CustomSettings
	case TypeSpecialist:
		var doc specialistDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		c.Base, c.Variant = doc.Base, &SpecialistSettings{}
	default:
		return fmt.Errorf("unknown agent type %q", head.Type)
	}
	return nil
}

// JSONSchema describes the union as a oneOf over the flat variant shapes.
func (AgentConfig) JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	variants := []any{&llmDocument{}, &workflowDocument{}, &customDocument{}, &specialistDocument{}}

	schema := &jsonschema.Schema{
		Type:        "object",
		Title:       "Agent Configuration",
		Description: "Discriminated by the type field",
	}
	for _, v := range variants {
		s := r.Reflect(v)
		s.Version = ""
		s.Required = append(s.Required, "type", "framework")
		schema.OneOf = append(schema.OneOf, s)
	}
	return schema
}

// RecordSchema is the JSON Schema of a complete agent record document.
func RecordSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&Record{})
	schema.ID = "https://hector.dev/schemas/agent-record.json"
	schema.Title = "Hector Agent Record"
	schema.Description = "An agent configuration with its identity, tools and deployment settings"
	return schema
}
