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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/config/provider"
	"github.com/kadirpekel/hector-studio/pkg/validation"
)

// errInvalid is returned after the findings have been printed, so the
// process exits non-zero without repeating them.
var errInvalid = errors.New("agent document is invalid")

// ValidateCmd validates an agent document.
type ValidateCmd struct {
	File   string `arg:"" name:"file" help:"Agent document (.json, .yaml or .yml)." placeholder:"PATH"`
	Format string `short:"f" help:"Output format: compact, verbose, json." default:"compact" enum:"compact,verbose,json"`
	Watch  bool   `short:"w" help:"Re-validate whenever the file changes."`
}

func (c *ValidateCmd) Run() error {
	p, err := provider.NewFileProvider(c.File)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	if !c.Watch {
		return c.check(ctx, p)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	changes, err := p.Watch(ctx)
	if err != nil {
		return err
	}
	_ = c.check(ctx, p)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			slog.Debug("Agent document changed", "path", p.Path())
			_ = c.check(ctx, p)
		}
	}
}

func (c *ValidateCmd) check(ctx context.Context, p *provider.FileProvider) error {
	data, err := p.Load(ctx)
	if err != nil {
		return printLoadError(c.Format, c.File, err)
	}
	_, err = codec.Decode(data, codec.FormatFromPath(c.File))
	if err == nil {
		printSuccess(c.Format, c.File)
		return nil
	}

	var list validation.ErrorList
	if errors.As(err, &list) {
		printFindings(c.Format, c.File, list)
		return errInvalid
	}
	return printLoadError(c.Format, c.File, err)
}

type jsonOutput struct {
	Valid  bool                     `json:"valid"`
	File   string                   `json:"file"`
	Error  string                   `json:"error,omitempty"`
	Errors []*validation.FieldError `json:"errors,omitempty"`
}

func printJSONResult(out jsonOutput) {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintf(stderr, "Error encoding JSON: %v\n", err)
	}
}

func printLoadError(format, file string, err error) error {
	switch format {
	case "json":
		printJSONResult(jsonOutput{File: file, Error: err.Error()})
	case "verbose":
		fmt.Fprintf(stderr, "Agent Document Load Error\n")
		fmt.Fprintf(stderr, "=========================\n\n")
		fmt.Fprintf(stderr, "File:    %s\n", file)
		fmt.Fprintf(stderr, "Error:   %s\n", err.Error())
	default:
		fmt.Fprintf(stderr, "%s: load error: %s\n", file, err.Error())
	}
	return errInvalid
}

func printFindings(format, file string, list validation.ErrorList) {
	switch format {
	case "json":
		printJSONResult(jsonOutput{File: file, Errors: list})
	case "verbose":
		fmt.Fprintf(stderr, "Agent Document Validation Failed\n")
		fmt.Fprintf(stderr, "================================\n\n")
		fmt.Fprintf(stderr, "File:    %s\n", file)
		fmt.Fprintf(stderr, "Errors:  %d\n\n", len(list))
		for _, e := range list {
			fmt.Fprintf(stderr, "  [%s] %s\n      %s\n", e.Kind, pathOrRoot(e.Path), e.Message)
		}
	default:
		for _, e := range list {
			fmt.Fprintf(stderr, "%s: %s: %s\n", file, pathOrRoot(e.Path), e.Message)
		}
	}
}

func printSuccess(format, file string) {
	switch format {
	case "json":
		printJSONResult(jsonOutput{Valid: true, File: file})
	case "verbose":
		fmt.Fprintf(stdout, "Agent Document Validation Successful\n")
		fmt.Fprintf(stdout, "====================================\n\n")
		fmt.Fprintf(stdout, "File:   %s\n", file)
		fmt.Fprintf(stdout, "Status: OK Valid\n")
	default:
		fmt.Fprintf(stdout, "%s: valid\n", file)
	}
}

func pathOrRoot(p string) string {
	if p == "" {
		return "(document)"
	}
	return p
}
