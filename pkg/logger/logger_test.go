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

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_SimpleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelInfo, &buf, FormatSimple)

	l.Debug("hidden")
	l.With("session", "s1").Info("draft saved", "agent", "a1")
	l.WithGroup("tool").Warn("missing key", "id", "weather")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO draft saved session=s1 agent=a1", lines[0])
	assert.Equal(t, "WARN missing key tool.id=weather", lines[1])
}

func TestNew_VerboseFormatHasTimestamp(t *testing.T) {
	var buf bytes.Buffer
	New(slog.LevelDebug, &buf, FormatVerbose).Debug("hello")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "DEBUG hello"), line)
	_, err := time.Parse("2006/01/02 15:04:05", line[:19])
	assert.NoError(t, err)
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(slog.LevelInfo, &buf, FormatJSON).Error("import failed", "format", "yaml")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "import failed", entry["msg"])
	assert.Equal(t, "yaml", entry["format"])
}

func TestFilteringHandler_DropsThirdPartyAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	inner := &lineHandler{mu: &sync.Mutex{}, writer: &buf, level: slog.LevelDebug}
	foreignPC := reflect.ValueOf(strings.ToUpper).Pointer()

	info := &filteringHandler{handler: inner, minLevel: slog.LevelInfo}
	rec := slog.NewRecord(time.Now(), slog.LevelWarn, "from a library", foreignPC)
	require.NoError(t, info.Handle(context.Background(), rec))
	assert.Empty(t, buf.String())

	debug := &filteringHandler{handler: inner, minLevel: slog.LevelDebug}
	require.NoError(t, debug.Handle(context.Background(), rec))
	assert.Contains(t, buf.String(), "from a library")
}

func TestInitAndGetLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Init(slog.LevelWarn, &buf, FormatSimple)
	assert.Same(t, l, GetLogger())
	assert.Same(t, l, slog.Default())

	GetLogger().Info("quiet")
	GetLogger().Error("loud")
	assert.Equal(t, "ERROR loud\n", buf.String())
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.log")
	f, cleanup, err := OpenLogFile(path)
	require.NoError(t, err)
	defer cleanup()

	New(slog.LevelInfo, f, FormatSimple).Info("to file")
	assert.False(t, isTerminal(f))
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
