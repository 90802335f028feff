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

package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMode_Gating(t *testing.T) {
	m := New(ModeCreate)
	assert.Equal(t, StepGeneral, m.Current())
	assert.Equal(t, []Step{StepGeneral, StepReview}, m.EnabledSteps())

	assert.Equal(t, StepBehavior, m.Advance())
	assert.Equal(t, []Step{StepGeneral, StepBehavior, StepReview}, m.EnabledSteps())

	for m.Current() != StepReview {
		m.Advance()
	}
	assert.Equal(t, Steps, m.EnabledSteps())
	assert.True(t, m.ReviewReached())
}

func TestCreateMode_VisitedStepsStayEnabled(t *testing.T) {
	m := New(ModeCreate)
	m.Advance()
	m.Advance()
	m.Advance()
	require.Equal(t, StepMemoryKnowledge, m.Current())

	require.NoError(t, m.Jump(StepGeneral))
	assert.Equal(t, StepGeneral, m.Current())
	assert.True(t, m.IsEnabled(StepMemoryKnowledge))
	assert.False(t, m.IsEnabled(StepArtifacts))

	// Retreating does not shrink the enabled set either.
	require.NoError(t, m.Jump(StepMemoryKnowledge))
	m.Retreat()
	assert.Equal(t, StepTools, m.Current())
	assert.True(t, m.IsEnabled(StepMemoryKnowledge))
}

func TestCreateMode_JumpToDisabledStep(t *testing.T) {
	m := New(ModeCreate)

	err := m.Jump(StepDeploy)
	assert.ErrorIs(t, err, ErrStepDisabled)
	assert.Equal(t, StepGeneral, m.Current())

	assert.ErrorIs(t, m.Jump(Step("nowhere")), ErrUnknownStep)
}

func TestCreateMode_JumpToReviewUnlocksAll(t *testing.T) {
	m := New(ModeCreate)
	require.NoError(t, m.Jump(StepReview))

	assert.Equal(t, Steps, m.EnabledSteps())
	require.NoError(t, m.Jump(StepDeploy))
	assert.Equal(t, StepDeploy, m.Current())
	assert.Equal(t, Steps, m.EnabledSteps())
}

func TestAdvanceRetreat_Ends(t *testing.T) {
	m := New(ModeCreate)
	assert.Equal(t, StepGeneral, m.Retreat(), "retreat before the first step is a no-op")

	for i := 0; i < len(Steps)+3; i++ {
		m.Advance()
	}
	assert.Equal(t, StepReview, m.Current(), "advance past the last step is a no-op")

	m.Retreat()
	assert.Equal(t, StepDeploy, m.Current())
	assert.Equal(t, StepReview, m.Advance(), "advance from deploy goes to review")
}

func TestEditMode_AllEnabled(t *testing.T) {
	m := New(ModeEdit)
	assert.Equal(t, Steps, m.EnabledSteps())
	assert.Len(t, m.EnabledSteps(), 10)

	for _, s := range []Step{StepDeploy, StepTools, StepReview, StepGeneral} {
		require.NoError(t, m.Jump(s))
		assert.Equal(t, s, m.Current())
		assert.Equal(t, Steps, m.EnabledSteps())
	}
}

func TestSaveExposure(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		step        Step
		valid       bool
		wantVisible bool
		wantEnabled bool
	}{
		{"create on general", ModeCreate, StepGeneral, true, false, false},
		{"create on review valid", ModeCreate, StepReview, true, true, true},
		{"create on review invalid", ModeCreate, StepReview, false, true, false},
		{"edit anywhere valid", ModeEdit, StepTools, true, true, true},
		{"edit anywhere invalid", ModeEdit, StepTools, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.mode)
			require.NoError(t, m.Jump(tt.step))
			assert.Equal(t, tt.wantVisible, m.SaveVisible())
			assert.Equal(t, tt.wantEnabled, m.CanSave(tt.valid))
		})
	}
}

func TestSetMode(t *testing.T) {
	m := New(ModeCreate)
	m.Advance()
	m.SetMode(ModeEdit)

	assert.Equal(t, ModeEdit, m.Mode())
	assert.Equal(t, StepBehavior, m.Current())
	assert.Equal(t, Steps, m.EnabledSteps())
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("multi_agent_advanced")
	require.NoError(t, err)
	assert.Equal(t, StepMultiAgentAdvanced, s)
	assert.Equal(t, 6, s.Index())
	assert.Equal(t, "Multi-Agent", s.Title())

	_, err = ParseStep("settings")
	assert.ErrorIs(t, err, ErrUnknownStep)
}
