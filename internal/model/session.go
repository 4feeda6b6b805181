package model

import (
	"errors"
	"time"
)

// Session is the server-side record behind a session token.
type Session struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"userId"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Caller is the resolved identity of an authenticated request. It is passed
// explicitly to every operation that acts on behalf of a user.
type Caller struct {
	UserID    int64
	SessionID string
	User      *User
}

var (
	// ErrUnauthenticated covers every reason a session cannot be resolved.
	ErrUnauthenticated = errors.New("not authenticated")

	ErrSessionNotFound = errors.New("session not found")
)
