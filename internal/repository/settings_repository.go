package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/utia/guesthouse-booking/internal/model"
)

// SettingsRepo persists the single validated settings record.  The
// record is stored as a JSON blob in a one-row table and schema
// checked on every load and update, so a malformed blob can never
// reach the pricing or policy code.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo returns a new SettingsRepo bound to the database.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get loads and validates the settings record.  ErrNotFound is
// returned when no settings row has been written yet.
func (r *SettingsRepo) Get(ctx context.Context) (*model.Settings, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s model.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("settings: corrupt record: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update validates and writes the settings record, creating the row on
// first use.
func (r *SettingsRepo) Update(ctx context.Context, s *model.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	const q = `INSERT INTO settings (id, data) VALUES (1, ?)
			   ON DUPLICATE KEY UPDATE data = VALUES(data)`
	_, err = r.db.ExecContext(ctx, q, raw)
	return err
}
