package model

import (
	"errors"
	"time"
)

// Friendship is one direction of a symmetric link. Both directions always
// exist together.
type Friendship struct {
	UserID    int64     `db:"user_id" json:"userId"`
	FriendID  int64     `db:"friend_id" json:"friendId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type FriendshipStatus string

const (
	FriendshipNone     FriendshipStatus = "none"
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipFriends  FriendshipStatus = "friends"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
)
