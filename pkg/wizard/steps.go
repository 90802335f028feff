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

package wizard

import (
	"fmt"
	"slices"
)

// Step is one page of the agent editor.
type Step string

const (
	StepGeneral            Step = "general"
	StepBehavior           Step = "behavior"
	StepTools              Step = "tools"
	StepMemoryKnowledge    Step = "memory_knowledge"
	StepArtifacts          Step = "artifacts"
	StepA2A                Step = "a2a"
	StepMultiAgentAdvanced Step = "multi_agent_advanced"
	StepAdvanced           Step = "advanced"
	StepDeploy             Step = "deploy"
	StepReview             Step = "review"
)

// Steps lists every step in wizard order.
var Steps = []Step{
	StepGeneral,
	StepBehavior,
	StepTools,
	StepMemoryKnowledge,
	StepArtifacts,
	StepA2A,
	StepMultiAgentAdvanced,
	StepAdvanced,
	StepDeploy,
	StepReview,
}

var titles = map[Step]string{
	StepGeneral:            "General",
	StepBehavior:           "Behavior",
	StepTools:              "Tools",
	StepMemoryKnowledge:    "Memory & Knowledge",
	StepArtifacts:          "Artifacts",
	StepA2A:                "Agent-to-Agent",
	StepMultiAgentAdvanced: "Multi-Agent",
	StepAdvanced:           "Advanced",
	StepDeploy:             "Deploy",
	StepReview:             "Review",
}

// Index returns the position of s in Steps, or -1.
func (s Step) Index() int {
	return slices.Index(Steps, s)
}

// Title is the human readable name of the step.
func (s Step) Title() string {
	if t, ok := titles[s]; ok {
		return t
	}
	return string(s)
}

// ParseStep converts a step name.
func ParseStep(name string) (Step, error) {
	s := Step(name)
	if s.Index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	return s, nil
}

// Mode distinguishes creating a new agent from editing an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)
