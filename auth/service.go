// Package auth, business logic. The service issues session tokens: HS256 JWTs
// whose jti claim names a server-side session row. Verifying a token therefore
// checks both the signature/expiry and that the session is still live, which
// is what makes logout observable: a revoked session rejects the token on
// every later call even though the JWT itself is still well formed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskserver-go/apperror"
	"github.com/user/taskserver-go/config"
)

// Service provides authentication operations over a Store.
type Service struct {
	store      Store
	authConfig config.AuthConfig
}

// NewService creates a new auth Service.
func NewService(store Store, authConfig config.AuthConfig) *Service {
	return &Service{
		store:      store,
		authConfig: authConfig,
	}
}

// Claims is the JWT payload of a session token. The session id rides in the
// registered jti claim; UserID is duplicated as a custom claim so the
// middleware can scope requests without a user lookup.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Register creates a new user and issues a fresh token bound to it.
func (s *Service) Register(ctx context.Context, req CredentialsRequest) (*AuthData, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperror.NewValidationError("username and password are required", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user, err := s.store.CreateUser(ctx, req.Username, string(hashedPassword))
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, apperror.NewConflictError("username already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	return s.issueToken(ctx, user)
}

// Login verifies credentials and issues a fresh token. Outstanding tokens for
// the same user stay valid; concurrent sessions are permitted.
func (s *Service) Login(ctx context.Context, req CredentialsRequest) (*AuthData, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperror.NewValidationError("username and password are required", nil)
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same reply for an unknown username and a wrong password.
			return nil, apperror.NewAuthError("invalid username or password", nil)
		}
		log.Printf("database error in Login looking up user: %v", err)
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("invalid username or password", nil)
	}

	return s.issueToken(ctx, user)
}

// Logout revokes the session behind the given token. The token is rejected by
// Authenticate from then on.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return apperror.NewAuthError("invalid token", err)
	}

	session, err := s.store.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apperror.NewAuthError("invalid token", nil)
		}
		return apperror.NewDatabaseError("failed to look up session", err)
	}
	if session.Revoked {
		return apperror.NewAuthError("invalid token", nil)
	}

	if err := s.store.RevokeSession(ctx, session.ID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apperror.NewAuthError("invalid token", nil)
		}
		return apperror.NewDatabaseError("failed to revoke session", err)
	}
	return nil
}

// Authenticate resolves a bearer token to the owning user id. It fails for
// missing, malformed, expired, or revoked tokens. Used by the middleware on
// every protected route.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (int, error) {
	if tokenString == "" {
		return 0, apperror.NewAuthError("missing x-auth-token header", nil)
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		return 0, apperror.NewAuthError("invalid token", err)
	}

	session, err := s.store.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return 0, apperror.NewAuthError("invalid token", nil)
		}
		return 0, apperror.NewDatabaseError("failed to look up session", err)
	}
	if session.Revoked || time.Now().After(session.ExpiresAt) {
		return 0, apperror.NewAuthError("invalid token", nil)
	}
	if session.UserID != claims.UserID {
		// A signed token whose claims disagree with the session row should
		// never happen; treat it as invalid rather than trusting either side.
		return 0, apperror.NewAuthError("invalid token", nil)
	}

	return session.UserID, nil
}

// issueToken creates a session row and the signed JWT naming it.
func (s *Service) issueToken(ctx context.Context, user *User) (*AuthData, error) {
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.authConfig.TokenDuration),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, apperror.NewDatabaseError("failed to create session", err)
	}

	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   fmt.Sprintf("%d", user.ID),
			Issuer:    "taskserver",
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return nil, apperror.NewInternalError("failed to sign token", err)
	}

	return &AuthData{
		ID:       user.ID,
		Username: user.Username,
		Token:    tokenString,
	}, nil
}

// parseToken verifies the signature and standard claims of a token string.
func (s *Service) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, errors.New("token claims are incomplete")
	}
	return claims, nil
}
