package model

import "time"

// Admin is an administrator account.  Administrators manage the room
// catalog, blockages, price settings and may edit or delete any
// booking regardless of the self-service rules.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – creation timestamp.
type Admin struct {
	ID           uint64    // admins.id
	Email        string    // admins.email
	PasswordHash string    // admins.password_hash
	CreatedAt    time.Time // admins.created_at
}
