// Package auth, request/response payloads for the auth endpoints.
package auth

// CredentialsRequest is the request body shared by registration and login.
type CredentialsRequest struct {
	Username string `json:"username" example:"woodroww"`
	Password string `json:"password" example:"myfancypass"`
}

// AuthData is the payload returned on successful registration or login,
// wrapped in the standard data envelope.
type AuthData struct {
	ID       int    `json:"id" example:"3"`
	Username string `json:"username" example:"woodroww"`
	Token    string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// DataResponse wraps a single-item success payload. The task list endpoint is
// the one deliberate exception to this envelope.
type DataResponse struct {
	Data AuthData `json:"data"`
}

// MessageResponse carries fixed confirmation messages such as the logout reply.
type MessageResponse struct {
	Message string `json:"message" example:"user logged out"`
}
