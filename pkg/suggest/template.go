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

package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

// Template derives suggestions from the draft's own fields. It is
// deterministic and never calls out.
type Template struct{}

func (Template) Suggest(ctx context.Context, field Field, draft *agentconfig.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	llm, err := checkField(field, draft)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		name = "This agent"
	}

	switch field {
	case FieldDescription:
		return describe(name, draft), nil
	case FieldGlobalInstruction:
		return fmt.Sprintf("You are part of %s. Stay within your role, answer concisely, "+
			"and say so when a request is outside what you can do.", name), nil
	case FieldAgentGoal:
		if d := strings.TrimSpace(draft.Description); d != "" {
			return "Help users by acting as follows: " + strings.TrimSuffix(d, "."), nil
		}
		return fmt.Sprintf("Help users accomplish tasks as %s.", name), nil
	default:
		return clampPrompt(agentconfig.ComposeSystemPrompt(draft.Name, draft.Config.GlobalInstruction, llm)), nil
	}
}

func describe(name string, draft *agentconfig.Record) string {
	var sb strings.Builder
	switch v := draft.Config.Variant.(type) {
	case *agentconfig.LLMSettings:
		fmt.Fprintf(&sb, "%s is an LLM agent", name)
		if m := strings.TrimSpace(v.Model); m != "" {
			fmt.Fprintf(&sb, " running on %s", m)
		}
		if g := strings.TrimSpace(v.Goal); g != "" {
			fmt.Fprintf(&sb, " whose goal is to %s", lowerFirst(strings.TrimSuffix(g, ".")))
		}
	case *agentconfig.WorkflowSettings:
		fmt.Fprintf(&sb, "%s is a %s workflow agent", name, v.WorkflowType)
		if n := len(draft.Config.SubAgentIDs); n > 0 {
			fmt.Fprintf(&sb, " coordinating %d sub-agents", n)
		}
	case *agentconfig.CustomSettings:
		fmt.Fprintf(&sb, "%s is a custom agent", name)
		if d := strings.TrimSpace(v.LogicDescription); d != "" {
			fmt.Fprintf(&sb, " that %s", lowerFirst(strings.TrimSuffix(d, ".")))
		}
	case *agentconfig.SpecialistSettings:
		fmt.Fprintf(&sb, "%s is an A2A specialist agent serving requests from other agents", name)
	default:
		fmt.Fprintf(&sb, "%s is an agent", name)
	}
	if n := len(draft.SelectedToolIDs); n > 0 {
		fmt.Fprintf(&sb, ", using %d tool", n)
		if n > 1 {
			sb.WriteString("s")
		}
	}
	sb.WriteString(".")
	return sb.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if len(r) > 1 && r[1] >= 'A' && r[1] <= 'Z' {
		return s
	}
	return strings.ToLower(string(r[0])) + string(r[1:])
}
