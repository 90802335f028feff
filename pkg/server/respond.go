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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kadirpekel/hector-studio/pkg/agentcard"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/editor"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/store"
	"github.com/kadirpekel/hector-studio/pkg/suggest"
	"github.com/kadirpekel/hector-studio/pkg/validation"
	"github.com/kadirpekel/hector-studio/pkg/wizard"
)

// errorResponse is the body of every failed request. Errors carries the
// field-level violations when the failure is a validation failure.
type errorResponse struct {
	Error  string               `json:"error"`
	Errors validation.ErrorList `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var list validation.ErrorList
	if errors.As(err, &list) {
		resp.Error = "validation failed"
		resp.Errors = list
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var (
		list      validation.ErrorList
		importErr *codec.ImportError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &list):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrImportTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &importErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, keystore.ErrNotFound),
		errors.Is(err, editor.ErrSessionNotFound),
		errors.Is(err, agentcard.ErrA2ADisabled):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, wizard.ErrStepDisabled),
		errors.Is(err, editor.ErrImportSuperseded),
		errors.Is(err, editor.ErrSaveNotAvailable),
		errors.Is(err, editor.ErrToolNotSelected):
		return http.StatusConflict
	case errors.Is(err, editor.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, editor.ErrUnknownTool),
		errors.Is(err, editor.ErrUnknownToolField),
		errors.Is(err, editor.ErrSecretValue),
		errors.Is(err, suggest.ErrUnsupportedField):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrNoSuggester):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away; the status is never seen
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// requestFormat reads ?format=, falling back to the Content-Type.
func requestFormat(r *http.Request) (codec.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return codec.ParseFormat(f)
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return codec.FormatYAML, nil
	}
	return codec.FormatJSON, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := io.Reader(r.Body)
	if s.config.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &codec.ImportError{Format: codec.FormatJSON, Err: err}
	}
	return nil
}

// writeDocument sends an encoded record as a download.
func writeDocument(w http.ResponseWriter, data []byte, fileName string, f codec.Format) {
	contentType := "application/json"
	if f == codec.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
