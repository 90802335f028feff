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

// Package agentconfig defines the agent record and its polymorphic
// configuration.
//
// An AgentConfig is a tagged union: shared settings live in Base and the
// type-specific settings in a Variant, one of *LLMSettings,
// *WorkflowSettings, *CustomSettings or *SpecialistSettings. On the wire the
// union is flattened into one object carrying a "type" discriminant.
//
// Records built here are not validated. Anything arriving from outside the
// process (imports, stored documents, API payloads) must pass through the
// validation package before it is trusted.
package agentconfig
