// Package auth is responsible for authentication: user registration, login,
// session-token issuance and revocation, and the middleware that gates every
// task route. This file defines the domain models of the auth module.
package auth

import "time"

// User represents an account in the system. The bcrypt hash is never exposed
// in API responses.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Session is the server-side record behind one issued token. A token
// authenticates only while its session exists, is unrevoked, and has not
// expired; logout flips Revoked. One user may hold many live sessions.
type Session struct {
	ID        string    `json:"id"` // UUID, doubles as the token's jti claim
	UserID    int       `json:"user_id"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
