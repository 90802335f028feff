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

package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/store"
	"github.com/kadirpekel/hector-studio/pkg/suggest"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
	"github.com/kadirpekel/hector-studio/pkg/wizard"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stepClock returns a later time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *stepClock { return &stepClock{now: t0} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	catalog, err := toolconfig.NewCatalog(toolconfig.DefaultTools())
	require.NoError(t, err)
	return Deps{
		Store: store.NewMemory(),
		Keys: keystore.NewMemory(
			keystore.Entry{ID: "serp", ServiceName: "SerpAPI", ServiceType: "search"},
			keystore.Entry{ID: "gcal", ServiceName: "Google Calendar", ServiceType: "calendar"},
		),
		Catalog:   catalog,
		Suggester: suggest.Template{},
	}
}

// fillLLM makes an llm record valid.
func fillLLM(r *agentconfig.Record) error {
	r.Name = "Trip Planner"
	llm, ok := r.Config.LLM()
	if !ok {
		return errors.New("not an llm agent")
	}
	llm.Model = "model-x"
	llm.Goal = "Plan weekend trips"
	llm.Tasks = []string{"Find flights"}
	return nil
}

func newSession(t *testing.T, deps Deps, opts ...Option) (*Session, *Inbox) {
	t.Helper()
	inbox := NewInbox(0)
	opts = append([]Option{WithClock(newClock().Now), WithNotifier(inbox)}, opts...)
	s, err := NewDraft(context.Background(), deps, agentconfig.TypeLLM, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, inbox
}

func validRecord(t *testing.T) *agentconfig.Record {
	t.Helper()
	r, err := agentconfig.NewRecord(agentconfig.TypeLLM, t0)
	require.NoError(t, err)
	require.NoError(t, fillLLM(r))
	return r
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func enabledSteps(v ViewState) []wizard.Step {
	var out []wizard.Step
	for _, s := range v.Steps {
		if s.Enabled {
			out = append(out, s.Step)
		}
	}
	return out
}

// gatedSuggester blocks each field until released and counts calls.
type gatedSuggester struct {
	mu    sync.Mutex
	gates map[suggest.Field]chan struct{}
	calls map[suggest.Field]int
	fail  map[suggest.Field]error
}

func newGatedSuggester() *gatedSuggester {
	g := &gatedSuggester{
		gates: map[suggest.Field]chan struct{}{},
		calls: map[suggest.Field]int{},
		fail:  map[suggest.Field]error{},
	}
	for _, f := range suggest.Fields {
		g.gates[f] = make(chan struct{})
	}
	return g
}

func (g *gatedSuggester) Suggest(ctx context.Context, field suggest.Field, draft *agentconfig.Record) (string, error) {
	g.mu.Lock()
	g.calls[field]++
	gate, err := g.gates[field], g.fail[field]
	g.mu.Unlock()

	select {
	case <-gate:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return "suggested " + string(field), nil
}

func (g *gatedSuggester) release(f suggest.Field) { close(g.gates[f]) }

func (g *gatedSuggester) callCount(f suggest.Field) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[f]
}

// failingStore rejects every write.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Create(context.Context, *agentconfig.Record) (*agentconfig.Record, error) {
	return nil, f.err
}

func (f failingStore) Update(context.Context, *agentconfig.Record) (*agentconfig.Record, error) {
	return nil, f.err
}
