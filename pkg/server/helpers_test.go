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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/auth"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/runtime"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) (*Server, *runtime.Runtime) {
	t.Helper()
	cfg := config.Default()
	cfg.KeyStore.Keys = []keystore.Entry{
		{ID: "serp", ServiceName: "SerpAPI", ServiceType: "search"},
		{ID: "gcal", ServiceName: "Google Calendar", ServiceType: "calendar"},
	}
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.SetDefaults()

	rt, err := runtime.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	opts = append([]Option{WithClock(func() time.Time { return t0 })}, opts...)
	return New(rt, opts...), rt
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// validRecord returns a complete llm agent.
func validRecord(t *testing.T) *agentconfig.Record {
	t.Helper()
	r, err := agentconfig.NewRecord(agentconfig.TypeLLM, t0)
	require.NoError(t, err)
	r.Name = "Trip Planner"
	r.Description = "Plans weekend trips"
	llm, _ := r.Config.LLM()
	llm.Model = "model-x"
	llm.Goal = "Plan weekend trips"
	llm.Tasks = []string{"Find flights"}
	return r
}

func document(t *testing.T, r *agentconfig.Record) string {
	t.Helper()
	data, err := codec.Serialize(r)
	require.NoError(t, err)
	return string(data)
}

// subjectValidator accepts any token and uses it as the subject.
type subjectValidator struct{}

func (subjectValidator) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if token == "bad" {
		return nil, errors.New("rejected")
	}
	return &auth.Claims{Subject: token}, nil
}

func bearer(sub string) []string {
	return []string{"Authorization", "Bearer " + sub}
}
