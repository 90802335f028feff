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
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/editor"
	"github.com/kadirpekel/hector-studio/pkg/suggest"
	"github.com/kadirpekel/hector-studio/pkg/wizard"
)

// sessionRoutes exposes editing sessions:
//
//	POST   /api/sessions                              {"type":"llm"} or {"agentId":"..."}
//	GET    /api/sessions/{sid}                        view and draft
//	DELETE /api/sessions/{sid}
//	PUT    /api/sessions/{sid}/draft                  replace the draft (?debounce=true)
//	POST   /api/sessions/{sid}/flush
//	POST   /api/sessions/{sid}/advance
//	POST   /api/sessions/{sid}/retreat
//	POST   /api/sessions/{sid}/jump/{step}
//	GET    /api/sessions/{sid}/events
//	POST   /api/sessions/{sid}/tools/{toolID}         select
//	DELETE /api/sessions/{sid}/tools/{toolID}         deselect
//	GET    /api/sessions/{sid}/tools/{toolID}         resolved configuration
//	PUT    /api/sessions/{sid}/tools/{toolID}/values/{key}
//	PUT    /api/sessions/{sid}/tools/{toolID}/credential
//	GET    /api/sessions/{sid}/tools/{toolID}/credentials
//	POST   /api/sessions/{sid}/import                 (?format=yaml)
//	DELETE /api/sessions/{sid}/import
//	POST   /api/sessions/{sid}/suggest/{field}
//	POST   /api/sessions/{sid}/prompt                 regenerate the system prompt
//	POST   /api/sessions/{sid}/save
//	GET    /api/sessions/{sid}/export                 (?format=yaml)
func (s *Server) sessionRoutes(r chi.Router) {
	r.Post("/", s.handleCreateSession)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleCloseSession)
		r.Put("/draft", s.handleReplaceDraft)
		r.Post("/flush", s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.Flush() }))
		r.Post("/advance", s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.Advance() }))
		r.Post("/retreat", s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.Retreat() }))
		r.Post("/jump/{step}", s.handleJump)
		r.Get("/events", s.handleSessionEvents)

		r.Route("/tools/{toolID}", func(r chi.Router) {
			r.Post("/", s.handleSelectTool)
			r.Delete("/", s.handleDeselectTool)
			r.Get("/", s.handleResolveSessionTool)
			r.Put("/values/{key}", s.handleSetToolValue)
			r.Put("/credential", s.handleSetToolCredential)
			r.Get("/credentials", s.handleToolCredentials)
		})

		r.Post("/import", s.handleSessionImport)
		r.Delete("/import", s.handleCancelImport)
		r.Post("/suggest/{field}", s.handleSuggest)
		r.Post("/prompt", s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.GeneratePrompt() }))
		r.Post("/save", s.handleSave)
		r.Get("/export", s.handleSessionExport)
	})
}

type sessionResponse struct {
	ID    string              `json:"id"`
	View  editor.ViewState    `json:"view"`
	Draft *agentconfig.Record `json:"draft,omitempty"`
}

type createSessionRequest struct {
	Type    agentconfig.AgentType `json:"type"`
	AgentID string                `json:"agentId"`
}

func (s *Server) session(r *http.Request) (*editor.Session, error) {
	return s.editors.Get(chi.URLParam(r, "sid"), s.owner(r))
}

func (s *Server) writeSession(w http.ResponseWriter, status int, sess *editor.Session, withDraft bool) {
	view, err := sess.View()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := sessionResponse{ID: sess.ID(), View: view}
	if withDraft {
		if resp.Draft, err = sess.Draft(); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, status, resp)
}

// sessionAction adapts a session method returning a view to a handler.
func (s *Server) sessionAction(fn func(*editor.Session) (editor.ViewState, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			writeError(w, err)
			return
		}
		view, err := fn(sess)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID(), View: view})
	}
}

// handleCreateSession starts a create-mode session for a type, or an
// edit-mode session over the latest version of an existing agent.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		sess *editor.Session
		err  error
	)
	switch {
	case req.AgentID != "":
		sess, err = s.editors.Open(r.Context(), s.owner(r), req.AgentID)
	case slices.Contains(agentconfig.AgentTypes, req.Type):
		sess, err = s.editors.Create(r.Context(), s.owner(r), req.Type)
	default:
		badRequest(w, "type must be one of %v, got %q", agentconfig.AgentTypes, req.Type)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID())
	s.writeSession(w, http.StatusCreated, sess, true)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK, sess, true)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.editors.Close(chi.URLParam(r, "sid"), s.owner(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReplaceDraft installs an edited draft. The body may be invalid;
// violations come back in the view.
func (s *Server) handleReplaceDraft(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var next agentconfig.Record
	if err := s.decodeJSON(w, r, &next); err != nil {
		writeError(w, err)
		return
	}
	view, err := sess.ReplaceDraft(&next, r.URL.Query().Get("debounce") == "true")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID(), View: view})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	step, err := wizard.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.Jump(step) })(w, r)
}

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.editors.Events(chi.URLParam(r, "sid"), s.owner(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleSelectTool(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")
	s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.SelectTool(toolID) })(w, r)
}

func (s *Server) handleDeselectTool(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")
	s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) { return sess.DeselectTool(toolID) })(w, r)
}

func (s *Server) handleSetToolValue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	if err := s.decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	toolID, key := chi.URLParam(r, "toolID"), chi.URLParam(r, "key")
	s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) {
		return sess.SetToolValue(toolID, key, body.Value)
	})(w, r)
}

func (s *Server) handleSetToolCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref string `json:"credentialRef"`
	}
	if err := s.decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	toolID := chi.URLParam(r, "toolID")
	s.sessionAction(func(sess *editor.Session) (editor.ViewState, error) {
		return sess.SetToolCredential(r.Context(), toolID, body.Ref)
	})(w, r)
}

func (s *Server) handleToolCredentials(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := sess.Credentials(r.Context(), chi.URLParam(r, "toolID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": entries})
}

func (s *Server) handleResolveSessionTool(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resolved, err := sess.ResolveTool(r.Context(), chi.URLParam(r, "toolID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// handleSessionImport replaces the draft with an uploaded document. The
// import is abandoned if the client disconnects, and a newer import for
// the same session supersedes it.
func (s *Server) handleSessionImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := requestFormat(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	if _, err := sess.Import(r.Context(), r.Body, f); err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK, sess, true)
}

func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.CancelImport()
	w.WriteHeader(http.StatusNoContent)
}

type suggestionResponse struct {
	Field suggest.Field    `json:"field"`
	Value string           `json:"value"`
	View  editor.ViewState `json:"view"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	field, err := suggest.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, err)
		return
	}
	value, err := sess.Suggest(r.Context(), field)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := sess.View()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionResponse{Field: field, Value: value, View: view})
}

type saveResponse struct {
	Agent *agentconfig.Record `json:"agent"`
	View  editor.ViewState    `json:"view"`
}

// handleSave stores the draft. An invalid draft yields 422 with every
// violation and leaves the session untouched.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := sess.Save(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := sess.View()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Agent: saved, View: view})
}

func (s *Server) handleSessionExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	data, name, err := sess.Export(f)
	if err != nil {
		writeError(w, fmt.Errorf("export failed: %w", err))
		return
	}
	writeDocument(w, data, name, f)
}
