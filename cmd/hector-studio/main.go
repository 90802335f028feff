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

// Command hector-studio is the CLI for Hector Studio.
//
// Usage:
//
//	hector-studio serve --config studio.yaml
//	hector-studio validate support.yaml --watch
//	hector-studio import support.yaml
//	hector-studio export <agent-id> -o support.yaml
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	studio "github.com/kadirpekel/hector-studio"
	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/config/provider"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the studio API server."`
	Validate ValidateCmd `cmd:"" help:"Validate an agent document."`
	Create   CreateCmd   `cmd:"" help:"Write a starter agent document."`
	Import   ImportCmd   `cmd:"" help:"Import an agent document into the store."`
	Export   ExportCmd   `cmd:"" help:"Export a stored agent."`
	List     ListCmd     `cmd:"" help:"List stored agents."`
	Schema   SchemaCmd   `cmd:"" help:"Print the JSON Schema of agent documents."`

	Config       string `short:"c" help:"Studio config file path, or Consul KV key with --config-type=consul."`
	ConfigType   string `help:"Config source: file, consul." default:"file" enum:"file,consul"`
	ConsulAddr   string `help:"Consul address for --config-type=consul (default: CONSUL_HTTP_ADDR or 127.0.0.1:8500)."`
	LogLevel     string `help:"Log level (debug, info, warn, error)."`
	LogFile      string `help:"Log file path (empty = stderr)."`
	LogFormat    string `help:"Log format (simple, verbose, json)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := studio.GetVersion()
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "(devel)" && bi.Main.Version != "" {
			info.Version = bi.Main.Version
		}
	}
	fmt.Fprintln(stdout, info.String())
	return nil
}

// configSource describes where --config points.
func (c *CLI) configSource() provider.ProviderConfig {
	src := provider.ProviderConfig{Type: provider.TypeFile, Path: c.Config}
	if c.ConfigType == string(provider.TypeConsul) {
		src.Type = provider.TypeConsul
		if c.ConsulAddr != "" {
			src.Endpoints = []string{c.ConsulAddr}
		}
	}
	return src
}

func main() {
	_ = config.LoadEnvFiles()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hector-studio"),
		kong.Description("Create, validate, import and export Hector agent configurations."),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		ctx.FatalIfErrorf(err)
	}
	err = ctx.Run(&cli)
	if cleanup != nil {
		cleanup()
	}
	ctx.FatalIfErrorf(err)
}
