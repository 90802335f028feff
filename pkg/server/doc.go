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

// Package server exposes the studio over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /api/schema                         JSON Schema of an agent record
//	POST   /api/validate                       validate a document
//	POST   /api/export                         re-encode a document (?format=yaml)
//	POST   /api/import                         import a document as a new agent
//	GET    /api/tools                          tool catalog
//	POST   /api/tools/{toolID}/resolve         resolve a tool configuration
//	GET    /api/keys                           key store entries (?serviceType=)
//	GET    /api/agents                         list agents
//	POST   /api/agents                         create an agent
//	GET    /api/agents/{id}                    get one version
//	PUT    /api/agents/{id}                    save the next version
//	DELETE /api/agents/{id}                    delete the whole chain
//	GET    /api/agents/{id}/history
//	GET    /api/agents/{id}/export
//	GET    /api/agents/{id}/card               A2A agent card
//	/api/sessions/...                          editing sessions, see sessions.go
package server
