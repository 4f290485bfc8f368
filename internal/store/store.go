// Package store provides SQLite-backed persistence for promptgate.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/promptgate/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store provides access to the promptgate SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auto_submit_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enabled INTEGER NOT NULL DEFAULT 0,
		timeout_seconds INTEGER NOT NULL DEFAULT 60,
		prompt_source TEXT NOT NULL DEFAULT 'continue',
		custom_prompt_id TEXT NOT NULL DEFAULT '',
		manual_prompt TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS prompt_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'normal',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetAutoSubmitConfig returns the persisted auto-submit configuration, or the
// compiled-in defaults when nothing has been saved yet.
func (s *Store) GetAutoSubmitConfig() (models.AutoSubmitConfig, error) {
	row := s.db.QueryRow(`SELECT enabled, timeout_seconds, prompt_source, custom_prompt_id, manual_prompt
		FROM auto_submit_config WHERE id = 1`)

	var cfg models.AutoSubmitConfig
	var enabled int
	err := row.Scan(&enabled, &cfg.TimeoutSeconds, &cfg.PromptSource, &cfg.CustomPromptID, &cfg.ManualPrompt)
	if err == sql.ErrNoRows {
		return models.DefaultAutoSubmitConfig(), nil
	}
	if err != nil {
		return models.DefaultAutoSubmitConfig(), fmt.Errorf("get auto-submit config: %w", err)
	}
	cfg.Enabled = enabled != 0
	return cfg.Normalized(), nil
}

// SetAutoSubmitConfig persists the auto-submit configuration. The timeout is
// clamped to the valid range before writing.
func (s *Store) SetAutoSubmitConfig(cfg models.AutoSubmitConfig) error {
	cfg = cfg.Normalized()
	enabled := 0
	if cfg.Enabled {
		enabled = 1
	}
	_, err := s.db.Exec(`INSERT INTO auto_submit_config (id, enabled, timeout_seconds, prompt_source, custom_prompt_id, manual_prompt, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled,
			timeout_seconds = excluded.timeout_seconds,
			prompt_source = excluded.prompt_source,
			custom_prompt_id = excluded.custom_prompt_id,
			manual_prompt = excluded.manual_prompt,
			updated_at = excluded.updated_at`,
		enabled, cfg.TimeoutSeconds, string(cfg.PromptSource), cfg.CustomPromptID, cfg.ManualPrompt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set auto-submit config: %w", err)
	}
	return nil
}

// ListPromptTemplates returns templates, optionally filtered by kind.
// Pass an empty kind for all templates.
func (s *Store) ListPromptTemplates(kind models.TemplateKind) ([]models.PromptTemplate, error) {
	query := `SELECT id, name, content, kind FROM prompt_templates`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prompt templates: %w", err)
	}
	defer rows.Close()

	var templates []models.PromptTemplate
	for rows.Next() {
		var t models.PromptTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Content, &t.Kind); err != nil {
			return nil, fmt.Errorf("scan prompt template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetPromptTemplate returns a single template by id.
func (s *Store) GetPromptTemplate(id string) (*models.PromptTemplate, error) {
	row := s.db.QueryRow(`SELECT id, name, content, kind FROM prompt_templates WHERE id = ?`, id)
	var t models.PromptTemplate
	if err := row.Scan(&t.ID, &t.Name, &t.Content, &t.Kind); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prompt template: %w", err)
	}
	return &t, nil
}

// CreatePromptTemplate stores a new template and returns it with its id set.
func (s *Store) CreatePromptTemplate(name, content string, kind models.TemplateKind) (*models.PromptTemplate, error) {
	if kind == "" {
		kind = models.TemplateKindNormal
	}
	t := models.PromptTemplate{
		ID:      uuid.New().String(),
		Name:    name,
		Content: content,
		Kind:    kind,
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO prompt_templates (id, name, content, kind, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Content, string(t.Kind), now, now)
	if err != nil {
		return nil, fmt.Errorf("create prompt template: %w", err)
	}
	return &t, nil
}

// DeletePromptTemplate removes a template. Deleting an unknown id returns
// ErrNotFound.
func (s *Store) DeletePromptTemplate(id string) error {
	res, err := s.db.Exec(`DELETE FROM prompt_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prompt template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
