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
	"os/signal"
	"syscall"

	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/runtime"
	"github.com/kadirpekel/hector-studio/pkg/server"
)

// ServeCmd starts the studio API server.
type ServeCmd struct {
	Port  int  `help:"Port to listen on (overrides config)."`
	Watch bool `help:"Watch the config file and restart on changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			slog.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	reloadCh := make(chan *config.Config, 1)
	cfg, loader, err := c.loadConfig(ctx, cli, reloadCh)
	if err != nil {
		return err
	}
	if loader != nil {
		defer loader.Close()
	}

	if c.Watch {
		if loader == nil {
			slog.Warn("--watch needs --config; ignoring")
		} else {
			go func() {
				if err := loader.Watch(ctx); err != nil && ctx.Err() == nil {
					slog.Error("Config watch error", "error", err)
				}
			}()
		}
	}

	for {
		next, err := c.serve(ctx, cli, cfg, reloadCh)
		if err != nil || next == nil {
			return err
		}
		slog.Info("Restarting with reloaded configuration")
		cfg = next
	}
}

// serve runs one server generation. It returns the next configuration when
// a reload arrives, or nil once ctx is cancelled.
func (c *ServeCmd) serve(ctx context.Context, cli *CLI, cfg *config.Config, reloadCh <-chan *config.Config) (*config.Config, error) {
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if cli.Config != "" {
		cleanup, err := initLoggerFromConfig(cli, cfg)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}
	}

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	defer rt.Close(context.Background())

	srv := server.New(rt)
	printBanner(srv.Address(), cfg)

	genCtx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(genCtx) }()

	select {
	case err := <-errCh:
		return nil, err
	case next := <-reloadCh:
		stop()
		if err := <-errCh; err != nil {
			return nil, err
		}
		return next, nil
	}
}

// loadConfig loads the configured source, or the defaults when none is given.
func (c *ServeCmd) loadConfig(ctx context.Context, cli *CLI, reloadCh chan *config.Config) (*config.Config, *config.Loader, error) {
	if cli.Config == "" {
		slog.Info("No config file given, using defaults")
		return config.Default(), nil, nil
	}

	cfg, loader, err := config.LoadConfigFrom(ctx, cli.configSource(), config.WithOnChange(func(next *config.Config) {
		// keep only the newest pending revision
		select {
		case <-reloadCh:
		default:
		}
		reloadCh <- next
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded configuration", "source", cli.ConfigType, "path", cli.Config)
	return cfg, loader, nil
}

func printBanner(addr string, cfg *config.Config) {
	green := "\033[38;2;16;185;129m"
	reset := "\033[0m"
	fmt.Fprintf(stdout, "\n%sHector Studio ready!%s\n", green, reset)
	fmt.Fprintf(stdout, "   API:         http://%s/api\n", addr)
	fmt.Fprintf(stdout, "   Schema:      http://%s/api/schema\n", addr)
	fmt.Fprintf(stdout, "   Health:      http://%s/health\n", addr)
	if cfg.Store.Backend == config.StoreBackendSQL {
		fmt.Fprintf(stdout, "   Storage:     %s (%s)\n", cfg.Store.Database.Driver, cfg.Store.Database.Database)
	} else {
		fmt.Fprintf(stdout, "   Storage:     in-memory (not persisted)\n")
	}
	fmt.Fprintf(stdout, "   Keys:        %s\n", cfg.KeyStore.Backend)
	fmt.Fprintf(stdout, "   Suggestions: %s\n", cfg.Suggest.Provider)
	if cfg.Observability.Metrics.Enabled {
		fmt.Fprintf(stdout, "   Metrics:     http://%s%s\n", addr, cfg.Observability.Metrics.Endpoint)
	}
	if cfg.Observability.Tracing.Enabled {
		fmt.Fprintf(stdout, "   Tracing:     %s\n", cfg.Observability.Tracing.Exporter)
	}
	fmt.Fprintln(stdout, "\nPress Ctrl+C to stop")
}
