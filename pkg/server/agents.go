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
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/hector-studio/pkg/agentcard"
	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/store"
)

func (s *Server) agentRoutes(r chi.Router) {
	r.Get("/", s.handleListAgents)
	r.Post("/", s.handleCreateAgent)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetAgent)
		r.Put("/", s.handleUpdateAgent)
		r.Delete("/", s.handleDeleteAgent)
		r.Get("/history", s.handleAgentHistory)
		r.Get("/export", s.handleExportAgent)
		r.Get("/card", s.handleAgentCard)
	})
}

// loadOwned fetches a version the caller may see. Records of other owners
// are reported as missing.
func (s *Server) loadOwned(ctx context.Context, r *http.Request) (*agentconfig.Record, error) {
	rec, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if owner := s.owner(r); owner != "" && rec.OwnerID != owner {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := s.store.List(r.Context(), store.ListOptions{
		OwnerID:       s.owner(r),
		Tag:           q.Get("tag"),
		Query:         q.Get("q"),
		TemplatesOnly: q.Get("templates") == "true",
		FavoritesOnly: q.Get("favorites") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*agentconfig.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": records})
}

// handleCreateAgent stores a document as version 1 of a new agent.
func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	codec.AssignNewIdentity(rec, s.now())
	rec.OwnerID = s.owner(r)

	saved, err := s.store.Create(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/agents/"+saved.ID)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadOwned(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleUpdateAgent saves a document as the next version after {id}, which
// must be the latest version of its chain.
func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	head, err := s.loadOwned(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	rec.ID = head.ID
	rec.OriginalAgentID = head.OriginalAgentID
	rec.OwnerID = head.OwnerID
	rec.CreatedAt = head.CreatedAt
	rec.Touch(s.now())

	saved, err := s.store.Update(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadOwned(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), rec.OriginalAgentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAgentHistory(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadOwned(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	versions, err := s.store.History(r.Context(), rec.OriginalAgentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) handleExportAgent(w http.ResponseWriter, r *http.Request) {
	f, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	rec, err := s.loadOwned(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := codec.Encode(rec, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, data, codec.ExportFileNameFor(rec.Name, f), f)
}

// handleAgentCard derives the A2A card the agent would publish.
func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadOwned(r.Context(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	card, err := agentcard.Build(rec, s.config.BaseURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// decodeRecord reads and validates a document body, writing the failure
// response itself.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (*agentconfig.Record, bool) {
	f, err := requestFormat(r)
	if err != nil {
		badRequest(w, "%v", err)
		return nil, false
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	rec, err := codec.Decode(data, f)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return rec, true
}
