package model

import (
	"errors"
	"strings"
)

// ErrIncompleteSession is returned when a session would be missing a field.
var ErrIncompleteSession = errors.New("incomplete session")

// User is the identity record returned by the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session is an authenticated identity plus its bearer credential.
// Build it with NewSession; a zero Session is never handed out.
type Session struct {
	User  User
	Token string
}

// NewSession validates that every field is present before building a Session.
func NewSession(user User, token string) (*Session, error) {
	switch {
	case strings.TrimSpace(user.ID) == "",
		strings.TrimSpace(user.Name) == "",
		strings.TrimSpace(user.Email) == "",
		!user.Role.Valid(),
		strings.TrimSpace(token) == "":
		return nil, ErrIncompleteSession
	}
	return &Session{User: user, Token: token}, nil
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required,oneof=student teacher admin"`
}

// SignupRequest is the payload for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required,oneof=student teacher admin"`
	Name     string `json:"name" binding:"required"`
}

// AuthResponse is the data block of a successful login or signup.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Person is the compact user shape nested inside exams and submissions.
type Person struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
