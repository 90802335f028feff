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
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"
	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/runtime"
	"github.com/kadirpekel/hector-studio/pkg/store"
)

// now is replaced in tests.
var now = time.Now

// openRuntime builds a runtime from --config, or from the defaults.
func openRuntime(ctx context.Context, cli *CLI) (*runtime.Runtime, error) {
	cfg := config.Default()
	if cli.Config != "" {
		loaded, loader, err := config.LoadConfigFrom(ctx, cli.configSource())
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		loader.Close()
		cfg = loaded
	}
	if cfg.Store.Backend != config.StoreBackendSQL {
		slog.Warn("Agent store is in-memory; nothing will persist past this command")
	}
	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	return rt, nil
}

// CreateCmd writes a starter document for a new agent.
type CreateCmd struct {
	Type   string `short:"t" help:"Agent type: llm, workflow, custom, a2a-specialist." default:"llm" enum:"llm,workflow,custom,a2a-specialist"`
	Name   string `short:"n" help:"Agent name." required:""`
	Output string `short:"o" help:"Output file (default: derived from the name, - for stdout)." placeholder:"PATH"`
}

func (c *CreateCmd) Run() error {
	r, err := agentconfig.NewRecord(agentconfig.AgentType(c.Type), now())
	if err != nil {
		return err
	}
	r.Name = c.Name
	return writeRecord(r, c.Output)
}

// ImportCmd validates a document and stores it as a new agent.
type ImportCmd struct {
	File  string `arg:"" name:"file" help:"Agent document (.json, .yaml or .yml)." type:"existingfile"`
	Owner string `help:"Owner of the imported agent."`
}

func (c *ImportCmd) Run(cli *CLI) error {
	ctx := context.Background()
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	r, err := codec.Decode(data, codec.FormatFromPath(c.File))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	codec.AssignNewIdentity(r, now())
	r.OwnerID = c.Owner

	rt, err := openRuntime(ctx, cli)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	saved, err := rt.Store().Create(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to store agent: %w", err)
	}
	fmt.Fprintln(stdout, saved.ID)
	return nil
}

// ExportCmd writes a stored agent as a document.
type ExportCmd struct {
	ID     string `arg:"" name:"id" help:"Agent ID."`
	Output string `short:"o" help:"Output file (default: derived from the name, - for stdout)." placeholder:"PATH"`
	Format string `short:"f" help:"Document format when writing to stdout: json, yaml." default:"json" enum:"json,yaml"`
}

func (c *ExportCmd) Run(cli *CLI) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx, cli)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	r, err := rt.Store().Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("agent %s: %w", c.ID, err)
	}
	if c.Output == "-" {
		f, _ := codec.ParseFormat(c.Format)
		return writeTo(r, "-", f)
	}
	return writeRecord(r, c.Output)
}

// ListCmd lists stored agents.
type ListCmd struct {
	Tag       string `help:"Only agents carrying this tag."`
	Query     string `short:"q" help:"Case-insensitive search over name and description."`
	Owner     string `help:"Only agents owned by this user."`
	Templates bool   `help:"Only templates."`
	Favorites bool   `help:"Only favorites."`
}

func (c *ListCmd) Run(cli *CLI) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx, cli)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	records, err := rt.Store().List(ctx, store.ListOptions{
		OwnerID:       c.Owner,
		Tag:           c.Tag,
		Query:         c.Query,
		TemplatesOnly: c.Templates,
		FavoritesOnly: c.Favorites,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tVERSION\tTAGS\tUPDATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Name, r.Config.Type(), r.InternalVersion,
			strings.Join(r.Tags, ","), r.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// writeRecord writes r to path, picking the format from the extension. An
// empty path derives the file name from the agent name.
func writeRecord(r *agentconfig.Record, path string) error {
	if path == "" {
		path = codec.ExportFileName(r.Name)
	}
	return writeTo(r, path, codec.FormatFromPath(path))
}

func writeTo(r *agentconfig.Record, path string, f codec.Format) error {
	data, err := codec.Encode(r, f)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Wrote %s\n", path)
	return nil
}
