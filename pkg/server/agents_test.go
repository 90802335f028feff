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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
)

func TestAgents_Lifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/agents", document(t, validRecord(t)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v1 := decode[agentconfig.Record](t, rec)
	assert.Equal(t, "/api/agents/"+v1.ID, rec.Header().Get("Location"))
	assert.Equal(t, 1, v1.InternalVersion)

	edited := v1
	edited.Description = "Plans long weekends"
	rec = do(t, h, http.MethodPut, "/api/agents/"+v1.ID, document(t, &edited))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v2 := decode[agentconfig.Record](t, rec)
	assert.Equal(t, v1.OriginalAgentID, v2.OriginalAgentID)
	assert.Equal(t, 2, v2.InternalVersion)
	assert.True(t, v2.IsLatest)

	// v1 is no longer the head of its chain
	rec = do(t, h, http.MethodPut, "/api/agents/"+v1.ID, document(t, &edited))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/agents/"+v1.ID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Versions []agentconfig.Record `json:"versions"`
	}](t, rec)
	require.Len(t, history.Versions, 2)
	assert.Equal(t, "Plans long weekends", history.Versions[1].Description)

	rec = do(t, h, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Agents []agentconfig.Record `json:"agents"`
	}](t, rec)
	require.Len(t, list.Agents, 1)
	assert.Equal(t, v2.ID, list.Agents[0].ID)

	rec = do(t, h, http.MethodGet, "/api/agents/"+v2.ID+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="trip-planner-config.json"`, rec.Header().Get("Content-Disposition"))

	rec = do(t, h, http.MethodDelete, "/api/agents/"+v2.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/agents/"+v1.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgents_CreateInvalid(t *testing.T) {
	s, _ := newTestServer(t)

	r := validRecord(t)
	llm, _ := r.Config.LLM()
	llm.Temperature = 1.5
	rec := do(t, s.Handler(), http.MethodPost, "/api/agents", document(t, r))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	assert.True(t, resp.Errors.Has("config.agentTemperature"))
}

func TestAgents_Card(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/agents", document(t, validRecord(t)))
	require.Equal(t, http.StatusCreated, rec.Code)
	plain := decode[agentconfig.Record](t, rec)

	rec = do(t, h, http.MethodGet, "/api/agents/"+plain.ID+"/card", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	exposed := validRecord(t)
	exposed.Config.A2A.Enabled = true
	rec = do(t, h, http.MethodPost, "/api/agents", document(t, exposed))
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decode[agentconfig.Record](t, rec)

	rec = do(t, h, http.MethodGet, "/api/agents/"+saved.ID+"/card", "")
	require.Equal(t, http.StatusOK, rec.Code)
	card := decode[map[string]any](t, rec)
	assert.Equal(t, "Trip Planner", card["name"])
	assert.Equal(t, "http://127.0.0.1:8780/agents/"+saved.OriginalAgentID, card["url"])
}

func TestAgents_OwnerScoped(t *testing.T) {
	s, _ := newTestServer(t, WithTokenValidator(subjectValidator{}))
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/agents", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/agents", document(t, validRecord(t)), bearer("alice")...)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[agentconfig.Record](t, rec)
	assert.Equal(t, "alice", created.OwnerID)

	rec = do(t, h, http.MethodGet, "/api/agents/"+created.ID, "", bearer("bob")...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/agents/"+created.ID, "", bearer("bob")...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/agents", "", bearer("bob")...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"agents":[]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/agents/"+created.ID, "", bearer("alice")...)
	assert.Equal(t, http.StatusOK, rec.Code)
}
