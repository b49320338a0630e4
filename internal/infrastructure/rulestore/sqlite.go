// Package rulestore persists the compatibility rule table. Rule logic lives
// in handlers registered by rule id in the usecase layer; the store only
// records which rules exist and whether they are enabled, so rules can be
// toggled without a deploy.
package rulestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bundleup/backend/internal/domain"
)

// Store manages the compatibility rule SQLite database
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the rule database at dbPath, creates the schema
// if needed and seeds it with the given defaults. Seeding never overwrites
// operator edits.
func NewStore(dbPath string, defaults []domain.RuleDefinition) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening rule database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.seed(defaults); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding rules: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS compatibility_rules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			arity TEXT NOT NULL CHECK (arity IN ('pairwise', 'collective')),
			enabled INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_enabled ON compatibility_rules(enabled)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) seed(defaults []domain.RuleDefinition) error {
	for _, def := range defaults {
		enabled := 0
		if def.Enabled {
			enabled = 1
		}
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO compatibility_rules (id, name, arity, enabled) VALUES (?, ?, ?, ?)`,
			def.ID, def.Name, string(def.Arity), enabled,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadRules returns all rule definitions in stable id order
func (s *Store) LoadRules(ctx context.Context) ([]domain.RuleDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, arity, enabled FROM compatibility_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRulesUnavailable, err)
	}
	defer rows.Close()

	var defs []domain.RuleDefinition
	for rows.Next() {
		var def domain.RuleDefinition
		var arity string
		var enabled int
		if err := rows.Scan(&def.ID, &def.Name, &arity, &enabled); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRulesUnavailable, err)
		}
		def.Arity = domain.RuleArity(arity)
		def.Enabled = enabled != 0
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRulesUnavailable, err)
	}

	return defs, nil
}

// SetEnabled toggles a rule without touching its definition
func (s *Store) SetEnabled(ctx context.Context, ruleID string, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE compatibility_rules SET enabled = ? WHERE id = ?`, value, ruleID)
	if err != nil {
		return fmt.Errorf("updating rule %q: %w", ruleID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	return nil
}
