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
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// variantRule decodes and refines the type-specific fields of a config.
type variantRule struct {
	decode func(o object) agentconfig.Variant
	refine func(w *walker, path string, v agentconfig.Variant)
}

// variantRules must have an entry for every agentconfig.AgentTypes value.
var variantRules = map[agentconfig.AgentType]variantRule{
	agentconfig.TypeLLM:        {decode: decodeLLM, refine: refineLLM},
	agentconfig.TypeWorkflow:   {decode: decodeWorkflow, refine: refineWorkflow},
	agentconfig.TypeCustom:     {decode: decodeCustom},
	agentconfig.TypeSpecialist: {decode: decodeSpecialist},
}

func decodeLLM(o object) agentconfig.Variant {
	s := &agentconfig.LLMSettings{}
	s.Model = o.str("agentModel", true)
	s.Temperature = o.number("agentTemperature", agentconfig.DefaultTemperature, 0, 1)
	s.Personality = o.str("agentPersonality", false)
	s.Restrictions = o.strings("agentRestrictions", false)
	s.Goal = o.str("agentGoal", true)

	s.Tasks = o.strings("agentTasks", false)
	if !o.w.failed(join(o.path, "agentTasks")) && !hasNonBlank(s.Tasks) {
		o.w.add(join(o.path, "agentTasks"), KindMissing, "at least one task is required")
	}

	s.SystemPrompt = o.text("systemPrompt", agentconfig.MaxPromptLength)
	s.ManualPromptOverride = o.boolean("manualPromptOverride", false)
	s.ManualSystemPrompt = o.text("manualSystemPrompt", agentconfig.MaxPromptLength)
	s.SystemPromptHistory = o.strings("systemPromptHistory", false)
	return s
}

func refineLLM(w *walker, path string, v agentconfig.Variant) {
	s := v.(*agentconfig.LLMSettings)
	if s.ManualPromptOverride && strings.TrimSpace(s.ManualSystemPrompt) == "" {
		w.refine(join(path, "manualSystemPrompt"), "is required when manualPromptOverride is enabled")
	}
}

func decodeWorkflow(o object) agentconfig.Variant {
	s := &agentconfig.WorkflowSettings{}
	s.WorkflowType = enum(o, "workflowType", agentconfig.WorkflowTypes, "", true)
	s.Description = o.str("workflowDescription", false)
	s.MaxIterations = o.optionalInt("maxIterations", 1)
	return s
}

func refineWorkflow(w *walker, path string, v agentconfig.Variant) {
	s := v.(*agentconfig.WorkflowSettings)
	if s.WorkflowType == agentconfig.WorkflowLoop && s.MaxIterations == nil {
		w.refine(join(path, "maxIterations"), "is required for loop workflows")
	}
}

func decodeCustom(o object) agentconfig.Variant {
	return &agentconfig.CustomSettings{
		LogicDescription: o.str("customLogicDescription", true),
		EntryPoint:       o.str("customEntryPoint", false),
	}
}

func decodeSpecialist(object) agentconfig.Variant {
	return &agentconfig.SpecialistSettings{}
}

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
