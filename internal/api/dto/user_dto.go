package dto

import "github.com/spec-kit/ticket-desk/internal/domain"

// CredentialsRequest carries a username and password for login or signup.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SessionResponse describes the session state.
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// NewSessionResponse maps the current identity; ok false means anonymous.
func NewSessionResponse(user domain.SessionUser, ok bool) SessionResponse {
	if !ok {
		return SessionResponse{}
	}
	return SessionResponse{
		Authenticated: true,
		User:          &UserResponse{ID: user.ID, Username: user.Username},
	}
}
