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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kadirpekel/hector-studio/pkg/agentconfig"
	"github.com/kadirpekel/hector-studio/pkg/codec"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQL stores each version as a row holding the exported JSON document.
// Documents are validated again when read back.
type SQL struct {
	db      *sql.DB
	dialect string
}

var _ Store = (*SQL)(nil)

var schemas = map[string][]string{
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS agent_versions (
    id VARCHAR(64) PRIMARY KEY,
    original_agent_id VARCHAR(64) NOT NULL,
    internal_version INTEGER NOT NULL,
    is_latest INTEGER NOT NULL DEFAULT 0,
    owner_id VARCHAR(255) NOT NULL DEFAULT '',
    name VARCHAR(255) NOT NULL,
    updated_unix BIGINT NOT NULL,
    document TEXT NOT NULL,
    UNIQUE (original_agent_id, internal_version)
)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_versions_latest ON agent_versions(is_latest, owner_id)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS agent_versions (
    id VARCHAR(64) PRIMARY KEY,
    original_agent_id VARCHAR(64) NOT NULL,
    internal_version INTEGER NOT NULL,
    is_latest INTEGER NOT NULL DEFAULT 0,
    owner_id VARCHAR(255) NOT NULL DEFAULT '',
    name VARCHAR(255) NOT NULL,
    updated_unix BIGINT NOT NULL,
    document TEXT NOT NULL,
    UNIQUE (original_agent_id, internal_version)
)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_versions_latest ON agent_versions(is_latest, owner_id)`,
	},
	"mysql": {
		`CREATE TABLE IF NOT EXISTS agent_versions (
    id VARCHAR(64) NOT NULL PRIMARY KEY,
    original_agent_id VARCHAR(64) NOT NULL,
    internal_version INT NOT NULL,
    is_latest TINYINT NOT NULL DEFAULT 0,
    owner_id VARCHAR(255) NOT NULL DEFAULT '',
    name VARCHAR(255) NOT NULL,
    updated_unix BIGINT NOT NULL,
    document MEDIUMTEXT NOT NULL,
    UNIQUE KEY uq_agent_versions_chain (original_agent_id, internal_version),
    KEY idx_agent_versions_latest (is_latest, owner_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

const selectColumns = `SELECT id, is_latest, document FROM agent_versions`

// NewSQL wraps an open database. dialect is one of postgres, mysql or sqlite.
func NewSQL(db *sql.DB, dialect string) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if _, ok := schemas[dialect]; !ok {
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQL{db: db, dialect: dialect}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQL) initSchema(ctx context.Context) error {
	for _, stmt := range schemas[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders for postgres.
func (s *SQL) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQL) insert(ctx context.Context, ex execer, r *agentconfig.Record) error {
	doc, err := codec.Serialize(r)
	if err != nil {
		return fmt.Errorf("failed to serialize agent %s: %w", r.ID, err)
	}
	_, err = ex.ExecContext(ctx, s.rebind(`INSERT INTO agent_versions
(id, original_agent_id, internal_version, is_latest, owner_id, name, updated_unix, document)
VALUES (?, ?, ?, 1, ?, ?, ?, ?)`),
		r.ID, r.OriginalAgentID, r.InternalVersion, r.OwnerID, r.Name, r.UpdatedAt.UnixMilli(), string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert agent %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQL) Create(ctx context.Context, r *agentconfig.Record) (*agentconfig.Record, error) {
	if err := check(r); err != nil {
		return nil, err
	}
	c := prepareFirst(r, uuid.NewString)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM agent_versions WHERE id = ? OR original_agent_id = ?`), c.ID, c.ID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check agent %s: %w", c.ID, err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: agent %s already exists", ErrConflict, c.ID)
	}
	if err := s.insert(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit agent %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *SQL) Update(ctx context.Context, r *agentconfig.Record) (*agentconfig.Record, error) {
	if err := check(r); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var originalID string
	var version int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT original_agent_id, internal_version FROM agent_versions WHERE id = ?`), r.ID).Scan(&originalID, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent %s: %w", r.ID, err)
	}

	head, err := s.scanOne(tx.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE original_agent_id = ? AND is_latest = 1`), originalID))
	if err != nil {
		return nil, err
	}
	if head.ID != r.ID {
		return nil, fmt.Errorf("%w: %s is version %d, latest is %d", ErrConflict, r.ID, version, head.InternalVersion)
	}

	next := prepareNext(r, head, uuid.NewString)
	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE agent_versions SET is_latest = 0 WHERE id = ? AND is_latest = 1`), head.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to retire agent version %s: %w", head.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return nil, fmt.Errorf("%w: %s was superseded concurrently", ErrConflict, head.ID)
	}
	if err := s.insert(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit agent %s: %w", next.ID, err)
	}
	return next, nil
}

func (s *SQL) Get(ctx context.Context, id string) (*agentconfig.Record, error) {
	r, err := s.scanOne(s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ?`), id))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

func (s *SQL) Latest(ctx context.Context, originalID string) (*agentconfig.Record, error) {
	r, err := s.scanOne(s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE original_agent_id = ? AND is_latest = 1`), originalID))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, originalID)
	}
	return r, err
}

func (s *SQL) List(ctx context.Context, opts ListOptions) ([]*agentconfig.Record, error) {
	query := selectColumns + ` WHERE is_latest = 1`
	var args []any
	if opts.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, opts.OwnerID)
	}
	query += ` ORDER BY updated_unix DESC, id ASC`

	records, err := s.scanAll(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	out := make([]*agentconfig.Record, 0, len(records))
	for _, r := range records {
		if opts.matches(r) {
			out = append(out, r)
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (s *SQL) History(ctx context.Context, originalID string) ([]*agentconfig.Record, error) {
	records, err := s.scanAll(ctx, s.rebind(selectColumns+` WHERE original_agent_id = ? ORDER BY internal_version ASC`), originalID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, originalID)
	}
	return records, nil
}

func (s *SQL) Delete(ctx context.Context, originalID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM agent_versions WHERE original_agent_id = ?`), originalID)
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", originalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", originalID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, originalID)
	}
	return nil
}

// Close is a no-op; the database handle belongs to whoever opened it.
func (s *SQL) Close() error { return nil }

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQL) scanOne(row rowScanner) (*agentconfig.Record, error) {
	var id, doc string
	var latest int
	if err := row.Scan(&id, &latest, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read agent: %w", err)
	}
	return decodeRow(id, latest, doc)
}

func (s *SQL) scanAll(ctx context.Context, query string, args ...any) ([]*agentconfig.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var out []*agentconfig.Record
	for rows.Next() {
		r, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}
	return out, nil
}

// decodeRow validates a stored document. The is_latest column wins over
// the flag embedded in the document, which goes stale once a newer
// version is appended.
func decodeRow(id string, latest int, doc string) (*agentconfig.Record, error) {
	r, err := codec.Deserialize([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("stored agent %s is invalid: %w", id, err)
	}
	r.IsLatest = latest == 1
	return r, nil
}
