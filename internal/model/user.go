package model

import "time"

// User represents an application user record as stored in the
// `users` table. It has no json tags: handlers define their own
// response types and the password hash must never be serialized.
type User struct {
	ID           int64     // users.id
	Email        string    // users.email, unique and lower-cased
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role, "user" or "admin"
	CreatedAt    time.Time // users.created_at
}
