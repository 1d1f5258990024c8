// Package auth, HTTP handlers for the auth endpoints, plus the shared
// writeJSON/WriteError response helpers used across the application.
package auth

import (
	"encoding/json"
	"net/http"

	"github.com/user/taskserver-go/apperror"
)

// Handlers wraps the auth Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary Register a new user
// @Description Creates a user account and returns its id, username, and a fresh session token.
// @Tags Users
// @Accept json
// @Produce json
// @Param credentials body auth.CredentialsRequest true "Username and password"
// @Success 200 {object} auth.DataResponse "User created"
// @Failure 400 {object} apperror.ErrorResponse "Missing or empty fields, malformed body"
// @Failure 409 {object} apperror.ErrorResponse "Username already exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/users [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		data, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		// The contract uses 200 for every success, registration included.
		writeJSON(w, http.StatusOK, DataResponse{Data: *data})
	}
}

// HandleLogin godoc
// @Summary Log in an existing user
// @Description Verifies credentials and returns a fresh session token. Tokens from earlier logins stay valid.
// @Tags Users
// @Accept json
// @Produce json
// @Param credentials body auth.CredentialsRequest true "Username and password"
// @Success 200 {object} auth.DataResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Missing or empty fields, malformed body"
// @Failure 401 {object} apperror.ErrorResponse "Invalid username or password"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/users/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		data, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, DataResponse{Data: *data})
	}
}

// HandleLogout godoc
// @Summary Log out
// @Description Revokes the presented token. The same token is rejected on every later call.
// @Tags Users
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Success 200 {object} auth.MessageResponse "user logged out"
// @Failure 401 {object} apperror.ErrorResponse "Missing, invalid, or already revoked token"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/users/logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			WriteError(w, r, apperror.NewAuthError("missing x-auth-token header", nil))
			return
		}

		if err := h.service.Logout(r.Context(), token); err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "user logged out"})
	}
}

// writeJSON serializes data to JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteJSON is the exported variant of writeJSON for use by other packages'
// handlers, so every response in the application is written the same way.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data)
}

// WriteError converts any error into the standard apperror JSON body and
// status code. Errors that are not AppErrors become generic 500s; internal
// detail is never echoed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
