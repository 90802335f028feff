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

package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/editor"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
)

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.catalog.List()})
}

// handleResolveTool reports how far a tool configuration is from usable,
// without touching any draft.
func (s *Server) handleResolveTool(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")
	tool, ok := s.catalog.Get(toolID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("%v: %s", editor.ErrUnknownTool, toolID)})
		return
	}

	var data agentconfig.ToolConfigData
	if err := s.decodeJSON(w, r, &data); err != nil {
		writeError(w, err)
		return
	}
	resolved, err := toolconfig.NewResolver(s.keys).Resolve(r.Context(), toolID, tool, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// handleListKeys lists key store entries. Secret material never leaves the
// key store; only references are listed.
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	entries, err := s.keys.List(r.Context(), r.URL.Query().Get("serviceType"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": entries})
}
