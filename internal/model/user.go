package model

import (
	"errors"
	"time"
)

// User is a registered identity. ID is internal; UniqueID is the public
// handle used in every URL and friend lookup.
type User struct {
	ID           int64     `db:"id" json:"id"`
	ExternalID   string    `db:"external_id" json:"externalId"`
	UniqueID     string    `db:"unique_id" json:"uniqueId"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	Email        *string   `db:"email" json:"email"`
	ProfileImage *string   `db:"profile_image" json:"profileImage"`
	Followers    int       `db:"followers" json:"followers"`
	Bio          string    `db:"bio" json:"bio"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	TokenExpiry  int64     `db:"token_expiry" json:"-"` // unix seconds
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// NewUser holds the profile fields known when an identity is first seen.
type NewUser struct {
	ExternalID   string
	DisplayName  string
	Email        *string
	ProfileImage *string
	Followers    int
	AccessToken  string
	RefreshToken string
	TokenExpiry  int64
}

// UserSummary is the public projection attached to requests, posts and lists.
type UserSummary struct {
	ID           int64   `db:"id" json:"id"`
	UniqueID     string  `db:"unique_id" json:"uniqueId"`
	DisplayName  string  `db:"display_name" json:"displayName"`
	ProfileImage *string `db:"profile_image" json:"profileImage"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		UniqueID:     u.UniqueID,
		DisplayName:  u.DisplayName,
		ProfileImage: u.ProfileImage,
	}
}

// TokenExpired reports whether the stored upstream credential is past its
// expiry at now.
func (u *User) TokenExpired(now time.Time) bool {
	return u.TokenExpiry <= now.Unix()
}

// Profile is a user as seen by another user.
type Profile struct {
	UserSummary
	Bio              string           `json:"bio"`
	FriendshipStatus FriendshipStatus `json:"friendshipStatus,omitempty"`
}

type UpdateProfileRequest struct {
	Bio *string `json:"bio"`
}

const (
	UniqueIDLength   = 8
	UniqueIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	MinSearchQueryLength = 2
	MaxBioLength         = 500
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUniqueIDExhausted is returned when no free public id could be generated
	ErrUniqueIDExhausted = errors.New("could not allocate a unique id")

	// ErrUniqueIDTaken is returned by stores when a generated public id collides
	ErrUniqueIDTaken = errors.New("unique id already taken")

	ErrExternalIDExists = errors.New("external id already registered")
)

// ProviderIdentity is what the external auth provider yields for a callback code.
type ProviderIdentity struct {
	ExternalID   string
	DisplayName  string
	Email        *string
	ProfileImage *string
	Followers    int
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}
