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

package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// StoreBackend identifies where agent records are kept.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendSQL    StoreBackend = "sql"
)

// DefaultSQLiteFile is used when the sql backend is selected without a
// database section.
const DefaultSQLiteFile = "hector-studio.db"

// StoreConfig configures the agent store.
//
//	store:
//	  backend: sql
//	  database:
//	    driver: postgres
//	    host: localhost
//	    database: studio
type StoreConfig struct {
	// Backend is memory or sql.
	// Default: memory
	Backend  StoreBackend    `yaml:"backend,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// SetDefaults applies default values to StoreConfig.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StoreBackendMemory
	}
	if c.Backend == StoreBackendSQL && c.Database == nil {
		c.Database = &DatabaseConfig{Driver: "sqlite", Database: DefaultSQLiteFile}
	}
	if c.Database != nil {
		c.Database.SetDefaults()
	}
}

// Validate checks the store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case StoreBackendMemory:
		return nil
	case StoreBackendSQL:
		if c.Database == nil {
			return fmt.Errorf("database is required for the sql backend")
		}
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("invalid backend %q (valid: memory, sql)", c.Backend)
	}
}

// DatabaseConfig locates the SQL database holding agent records.
type DatabaseConfig struct {
	// Driver is postgres, mysql or sqlite (sqlite3 is accepted as an alias).
	Driver string `yaml:"driver"`

	// Host and Port are ignored for sqlite.
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// Database is the database name, or the file path for sqlite.
	Database string `yaml:"database"`

	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// SSLMode is passed to postgres.
	// Default: disable
	SSLMode string `yaml:"ssl_mode,omitempty"`

	// Default: 10
	MaxConns int `yaml:"max_conns,omitempty"`
	// Default: 2
	MaxIdle int `yaml:"max_idle,omitempty"`
}

var defaultPorts = map[string]int{"postgres": 5432, "mysql": 3306}

// SetDefaults applies default values to the database config.
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 2
	}
	if c.Port == 0 {
		c.Port = defaultPorts[c.Driver]
	}
	if c.Driver == "postgres" && c.SSLMode == "" {
		c.SSLMode = "disable"
	}
}

// Validate checks the database configuration.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "":
		return fmt.Errorf("driver is required")
	case "postgres", "mysql":
		if c.Host == "" {
			return fmt.Errorf("host is required for %s", c.Driver)
		}
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("invalid driver %q (valid: postgres, mysql, sqlite)", c.Driver)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.MaxConns < 0 || c.MaxIdle < 0 {
		return fmt.Errorf("max_conns and max_idle must be non-negative")
	}
	return nil
}

// DSN returns the connection string for DriverName.
func (c *DatabaseConfig) DSN() string {
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	switch c.Dialect() {
	case "postgres":
		u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + c.Database}
		if c.Username != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		}
		if c.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
		}
		return u.String()
	case "mysql":
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = c.Database
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.ParseTime = true
		return mc.FormatDSN()
	default:
		return c.Database
	}
}

// DriverName is the database/sql driver registered for Driver.
func (c *DatabaseConfig) DriverName() string {
	if c.Dialect() == "sqlite" {
		return "sqlite3"
	}
	return c.Driver
}

// Dialect is the SQL flavour the agent store writes: postgres, mysql or
// sqlite.
func (c *DatabaseConfig) Dialect() string {
	if c.Driver == "sqlite3" {
		return "sqlite"
	}
	return c.Driver
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
}

// OpenDatabase opens and pings the configured database. SQLite gets a
// single connection since it allows one writer at a time.
func OpenDatabase(ctx context.Context, cfg *DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxConns, cfg.MaxIdle
	if cfg.Dialect() == "sqlite" {
		maxOpen, maxIdle = 1, 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database %q: %w", cfg.Dialect(), cfg.Database, err)
	}

	if cfg.Dialect() == "sqlite" {
		for _, pragma := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				logger.Warn("Failed to apply SQLite pragma", "pragma", pragma, "error", err)
			}
		}
	}

	logger.Info("Opened agent database", "driver", cfg.Dialect(), "database", cfg.Database)
	return db, nil
}
