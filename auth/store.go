// Package auth, storage layer. The Store interface decouples the service from
// the backing store; PgStore is the production implementation on pgx, and an
// in-memory implementation lives in memstore.go.
package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage-level sentinel errors. The service maps these onto apperror kinds;
// handlers never see them directly.
var (
	ErrUsernameTaken   = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Store is the persistence contract of the auth module.
type Store interface {
	// CreateUser persists a new user. Returns ErrUsernameTaken when the
	// username is already present; the check is atomic with the insert.
	CreateUser(ctx context.Context, username, hashedPassword string) (*User, error)
	// GetUserByUsername returns ErrUserNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// CreateSession persists a new session record.
	CreateSession(ctx context.Context, session *Session) error
	// GetSession returns ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (*Session, error)
	// RevokeSession marks a session revoked. Returns ErrSessionNotFound for
	// unknown ids; revoking an already revoked session is not an error.
	RevokeSession(ctx context.Context, id string) error
	// PurgeSessions deletes sessions that are revoked or expired, returning
	// the number removed. Used by the background sweeper.
	PurgeSessions(ctx context.Context) (int64, error)
}

// PgStore implements Store on a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) CreateUser(ctx context.Context, username, hashedPassword string) (*User, error) {
	user := &User{Username: username, HashedPassword: hashedPassword}
	query := `INSERT INTO users (username, password)
	          VALUES ($1, $2)
	          RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query, username, hashedPassword).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *PgStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := `SELECT id, username, password, created_at FROM users WHERE username = $1`
	err := s.pool.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *PgStore) CreateSession(ctx context.Context, session *Session) error {
	query := `INSERT INTO sessions (id, user_id, revoked, expires_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	return s.pool.QueryRow(ctx, query, session.ID, session.UserID, session.Revoked, session.ExpiresAt).
		Scan(&session.CreatedAt)
}

func (s *PgStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	query := `SELECT id, user_id, revoked, expires_at, created_at FROM sessions WHERE id = $1`
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.Revoked, &session.ExpiresAt, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *PgStore) RevokeSession(ctx context.Context, id string) error {
	query := `UPDATE sessions SET revoked = TRUE WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PgStore) PurgeSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE revoked OR expires_at < now()`
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
