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
	"fmt"
	"strings"
)

// ComposeSystemPrompt renders a system prompt from the behavioral fields of
// an LLM agent. The output is deterministic for equal input.
func ComposeSystemPrompt(name string, global string, s *LLMSettings) string {
	var sb strings.Builder

	if name != "" {
		fmt.Fprintf(&sb, "You are %s.", name)
	} else {
		sb.WriteString("You are a helpful agent.")
	}
	if p := strings.TrimSpace(s.Personality); p != "" {
		fmt.Fprintf(&sb, " Your personality: %s.", strings.TrimSuffix(p, "."))
	}
	sb.WriteString("\n")

	if g := strings.TrimSpace(s.Goal); g != "" {
		fmt.Fprintf(&sb, "\nGoal:\n%s\n", g)
	}

	if tasks := nonBlank(s.Tasks); len(tasks) > 0 {
		sb.WriteString("\nTasks:\n")
		for i, t := range tasks {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
		}
	}

	if rules := nonBlank(s.Restrictions); len(rules) > 0 {
		sb.WriteString("\nRestrictions:\n")
		for _, r := range rules {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}

	if g := strings.TrimSpace(global); g != "" {
		fmt.Fprintf(&sb, "\n%s\n", g)
	}

	out := strings.TrimRight(sb.String(), "\n")
	if r := []rune(out); len(r) > MaxPromptLength {
		out = string(r[:MaxPromptLength])
	}
	return out
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
