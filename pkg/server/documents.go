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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/validation"
)

// handleGetSchema returns the JSON Schema of an agent record.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema := agentconfig.RecordSchema()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(schema); err != nil {
		slog.Error("Failed to encode schema", "error", err)
		http.Error(w, "Failed to generate schema", http.StatusInternalServerError)
	}
}

type validateResponse struct {
	Valid  bool                 `json:"valid"`
	Errors validation.ErrorList `json:"errors"`
}

// handleValidate reports every violation in a document. An invalid document
// is a successful request.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	f, err := requestFormat(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	_, err = codec.Decode(data, f)
	var list validation.ErrorList
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, validateResponse{Valid: true, Errors: validation.ErrorList{}})
	case errors.As(err, &list):
		writeJSON(w, http.StatusOK, validateResponse{Valid: false, Errors: list})
	default:
		writeError(w, err)
	}
}

// handleExport re-encodes a JSON document, by default as JSON. The document
// must be valid.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := codec.Deserialize(data)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := codec.Encode(rec, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, out, codec.ExportFileNameFor(rec.Name, f), f)
}

// handleImport turns a document into a new agent with a fresh identity.
// It is stored only when ?save=true.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	f, err := requestFormat(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := codec.Decode(data, f)
	if err != nil {
		writeError(w, err)
		return
	}
	codec.AssignNewIdentity(rec, s.now())
	rec.OwnerID = s.owner(r)

	if r.URL.Query().Get("save") != "true" {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	saved, err := s.store.Create(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
