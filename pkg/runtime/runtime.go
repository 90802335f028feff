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

// Package runtime assembles the studio's collaborators from configuration:
// agent store, key store, tool catalog, suggestion service, observability,
// authentication and the editor session manager.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/hector-studio/pkg/auth"
	"github.com/kadirpekel/hector-studio/pkg/config"
	"github.com/kadirpekel/hector-studio/pkg/editor"
	"github.com/kadirpekel/hector-studio/pkg/keystore"
	"github.com/kadirpekel/hector-studio/pkg/observability"
	"github.com/kadirpekel/hector-studio/pkg/store"
	"github.com/kadirpekel/hector-studio/pkg/suggest"
	"github.com/kadirpekel/hector-studio/pkg/toolconfig"
)

// Runtime owns everything built from one Config.
type Runtime struct {
	config        *config.Config
	logger        *slog.Logger
	observability *observability.Manager
	db            *sql.DB

	store     store.Store
	keys      keystore.Store
	catalog   *toolconfig.Catalog
	suggester suggest.Suggester
	validator *auth.JWTValidator
	editors   *editor.Manager
}

// Option overrides a collaborator that would otherwise be built from
// configuration.
type Option func(*Runtime)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

func WithStore(s store.Store) Option {
	return func(r *Runtime) { r.store = s }
}

func WithKeyStore(k keystore.Store) Option {
	return func(r *Runtime) { r.keys = k }
}

func WithSuggester(s suggest.Suggester) Option {
	return func(r *Runtime) { r.suggester = s }
}

// New builds a runtime. cfg must already carry its defaults.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	r := &Runtime{config: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	ok := false
	defer func() {
		if !ok {
			_ = r.Close(context.Background())
		}
	}()

	var err error
	if r.observability, err = observability.NewManager(ctx, cfg.Observability); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	if r.catalog, err = cfg.Catalog(); err != nil {
		return nil, fmt.Errorf("invalid tool catalog: %w", err)
	}
	if r.store == nil {
		if r.store, err = r.openStore(ctx, cfg.Store); err != nil {
			return nil, err
		}
	}
	if r.keys == nil {
		if r.keys, err = r.openKeyStore(cfg.KeyStore); err != nil {
			return nil, err
		}
	}
	if r.suggester == nil {
		if r.suggester, err = suggest.New(ctx, cfg.Suggest); err != nil {
			return nil, fmt.Errorf("failed to create suggester: %w", err)
		}
	}
	if r.validator, err = auth.NewValidatorFromConfig(&cfg.Server.Auth); err != nil {
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}

	r.editors = editor.NewManager(r.EditorDeps(), cfg.Editor)

	r.logger.Info("Studio runtime ready",
		"store", cfg.Store.Backend,
		"keystore", cfg.KeyStore.Backend,
		"suggest", cfg.Suggest.Provider,
		"tools", len(r.catalog.List()),
		"auth", r.validator != nil,
	)
	ok = true
	return r, nil
}

func (r *Runtime) openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreBackendSQL:
		db, err := config.OpenDatabase(ctx, cfg.Database, r.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open agent database: %w", err)
		}
		r.db = db
		s, err := store.NewSQL(db, cfg.Database.Dialect())
		if err != nil {
			return nil, fmt.Errorf("failed to open agent store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemory(), nil
	}
}

func (r *Runtime) openKeyStore(cfg config.KeyStoreConfig) (keystore.Store, error) {
	switch cfg.Backend {
	case "consul":
		k, err := keystore.NewConsul(keystore.ConsulOptions{
			Address:    cfg.Consul.Address,
			Token:      cfg.Consul.Token,
			Datacenter: cfg.Consul.Datacenter,
			Prefix:     cfg.Consul.Prefix,
			Logger:     r.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open key store: %w", err)
		}
		return k, nil
	default:
		return keystore.NewMemory(cfg.Keys...), nil
	}
}

func (r *Runtime) Config() *config.Config                { return r.config }
func (r *Runtime) Logger() *slog.Logger                  { return r.logger }
func (r *Runtime) Store() store.Store                    { return r.store }
func (r *Runtime) KeyStore() keystore.Store              { return r.keys }
func (r *Runtime) Catalog() *toolconfig.Catalog          { return r.catalog }
func (r *Runtime) Suggester() suggest.Suggester          { return r.suggester }
func (r *Runtime) Observability() *observability.Manager { return r.observability }
func (r *Runtime) Editors() *editor.Manager              { return r.editors }

// TokenValidator returns nil when authentication is disabled.
func (r *Runtime) TokenValidator() auth.TokenValidator {
	if r.validator == nil {
		return nil
	}
	return r.validator
}

// EditorDeps are the collaborators handed to editing sessions.
func (r *Runtime) EditorDeps() editor.Deps {
	d := editor.Deps{
		Store:     r.store,
		Keys:      r.keys,
		Catalog:   r.catalog,
		Suggester: r.suggester,
		Logger:    r.logger,
	}
	if r.observability != nil {
		d.Metrics = r.observability.Metrics()
		d.Tracer = r.observability.Tracer()
	}
	return d
}

// Close releases everything the runtime opened, in reverse order.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.editors != nil {
		r.editors.CloseAll()
	}
	if r.validator != nil {
		r.validator.Close()
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	if r.observability != nil {
		errs = append(errs, r.observability.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
