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
	"sync"
	"time"
)

// EventKind classifies session notifications.
type EventKind string

const (
	EventViewUpdated      EventKind = "view_updated"
	EventImportCompleted  EventKind = "import_completed"
	EventImportFailed     EventKind = "import_failed"
	EventSuggestionReady  EventKind = "suggestion_applied"
	EventSuggestionFailed EventKind = "suggestion_failed"
	EventSaved            EventKind = "saved"
	EventSaveFailed       EventKind = "save_failed"
)

// Event is a transient notification about asynchronous work. Failures
// reported here never change validation state.
type Event struct {
	Kind    EventKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	AgentID string    `json:"agentId,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives session events. Notify is called without the session
// lock held and must not block for long.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Inbox keeps the most recent events for polling clients.
type Inbox struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 100
	}
	return &Inbox{limit: limit}
}

func (b *Inbox) Notify(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	if over := len(b.events) - b.limit; over > 0 {
		b.events = append([]Event(nil), b.events[over:]...)
	}
}

// Drain returns and clears the buffered events, oldest first.
func (b *Inbox) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(e Event) {
	for _, n := range m {
		n.Notify(e)
	}
}
