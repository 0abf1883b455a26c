package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/utia/guesthouse-booking/internal/model"
)

// AdminRepo provides data access to administrator accounts.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo returns a new AdminRepo bound to the provided database.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// GetByEmail returns the admin with the given address or ErrNotFound.
// The lookup is case-insensitive on the email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	const q = `SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`
	var a model.Admin
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(email))).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns the admin with the given id or ErrNotFound.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (*model.Admin, error) {
	const q = `SELECT id, email, password_hash, created_at FROM admins WHERE id = ?`
	var a model.Admin
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
