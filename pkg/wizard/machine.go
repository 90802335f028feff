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

// Package wizard implements the step progression of the agent editor.
//
// In create mode the editor is a wizard: steps unlock as the user moves
// forward, review is always available, and reaching review unlocks every
// step. In edit mode every step is available from the start. The machine
// decides reachability only; whether the record may be saved is decided by
// the validation engine.
package wizard

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

var (
	ErrStepDisabled = errors.New("step is not enabled")
	ErrUnknownStep  = errors.New("unknown step")
)

const (
	eventAdvance = "advance"
	eventRetreat = "retreat"
	jumpPrefix   = "jump_"
)

// Machine tracks the active step. It is not safe for concurrent use; the
// owning editor session serializes access.
type Machine struct {
	mode          Mode
	fsm           *fsm.FSM
	furthest      int
	reviewReached bool
}

// New returns a machine positioned on the first step.
func New(mode Mode) *Machine {
	m := &Machine{mode: mode}
	m.fsm = fsm.NewFSM(string(StepGeneral), stepEvents(), fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			m.entered(Step(e.Dst), e.Event)
		},
	})
	return m
}

func stepEvents() fsm.Events {
	var events fsm.Events
	all := make([]string, len(Steps))
	for i, s := range Steps {
		all[i] = string(s)
	}
	for i := 0; i < len(Steps)-1; i++ {
		events = append(events,
			fsm.EventDesc{Name: eventAdvance, Src: []string{all[i]}, Dst: all[i+1]},
			fsm.EventDesc{Name: eventRetreat, Src: []string{all[i+1]}, Dst: all[i]},
		)
	}
	for _, s := range all {
		events = append(events, fsm.EventDesc{Name: jumpPrefix + s, Src: all, Dst: s})
	}
	return events
}

// entered runs after every transition. Only forward progression extends
// the furthest step; arriving at review by any route unlocks everything.
func (m *Machine) entered(s Step, event string) {
	if event == eventAdvance && s.Index() > m.furthest {
		m.furthest = s.Index()
	}
	if s == StepReview {
		m.reviewReached = true
	}
}

func (m *Machine) Mode() Mode { return m.mode }

// SetMode switches between create and edit without moving.
func (m *Machine) SetMode(mode Mode) { m.mode = mode }

// Current returns the active step.
func (m *Machine) Current() Step {
	return Step(m.fsm.Current())
}

// Advance moves one step forward. It is a no-op on the last step.
func (m *Machine) Advance() Step {
	m.fire(eventAdvance)
	return m.Current()
}

// Retreat moves one step back. It is a no-op on the first step.
func (m *Machine) Retreat() Step {
	m.fire(eventRetreat)
	return m.Current()
}

func (m *Machine) fire(event string) {
	if !m.fsm.Can(event) {
		return
	}
	// Advance and retreat always have a distinct destination once Can
	// succeeds.
	_ = m.fsm.Event(context.Background(), event)
}

// Jump activates s directly. In create mode s must be enabled.
func (m *Machine) Jump(s Step) error {
	if s.Index() < 0 {
		return ErrUnknownStep
	}
	if !m.IsEnabled(s) {
		return ErrStepDisabled
	}
	if s == m.Current() {
		return nil
	}
	return m.fsm.Event(context.Background(), jumpPrefix+string(s))
}

// IsEnabled reports whether the step may be activated.
func (m *Machine) IsEnabled(s Step) bool {
	i := s.Index()
	switch {
	case i < 0:
		return false
	case m.mode == ModeEdit, m.reviewReached, s == StepReview:
		return true
	default:
		return i <= m.furthest
	}
}

// EnabledSteps returns the enabled steps in wizard order.
func (m *Machine) EnabledSteps() []Step {
	out := make([]Step, 0, len(Steps))
	for _, s := range Steps {
		if m.IsEnabled(s) {
			out = append(out, s)
		}
	}
	return out
}

// ReviewReached reports whether review has ever been active.
func (m *Machine) ReviewReached() bool { return m.reviewReached }

// SaveVisible reports whether a save action is offered at all: always in
// edit mode, only on review in create mode.
func (m *Machine) SaveVisible() bool {
	return m.mode == ModeEdit || m.Current() == StepReview
}

// CanSave combines exposure with the validation outcome.
func (m *Machine) CanSave(valid bool) bool {
	return m.SaveVisible() && valid
}
