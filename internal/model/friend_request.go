package model

import (
	"errors"
	"time"
)

type FriendRequestStatus string

const (
	RequestPending  FriendRequestStatus = "pending"
	RequestAccepted FriendRequestStatus = "accepted"
	RequestRejected FriendRequestStatus = "rejected"
)

func (s FriendRequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a status a receiver may respond with.
func (s FriendRequestStatus) IsDecision() bool {
	return s == RequestAccepted || s == RequestRejected
}

type FriendRequest struct {
	ID         int64               `db:"id" json:"id"`
	SenderID   int64               `db:"sender_id" json:"senderId"`
	ReceiverID int64               `db:"receiver_id" json:"receiverId"`
	Status     FriendRequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time           `db:"updated_at" json:"updatedAt"`
}

// Involves reports whether the request is between a and b in either direction.
func (r *FriendRequest) Involves(a, b int64) bool {
	return (r.SenderID == a && r.ReceiverID == b) || (r.SenderID == b && r.ReceiverID == a)
}

// OtherParty returns the id of the user on the other side from userID.
func (r *FriendRequest) OtherParty(userID int64) int64 {
	if r.SenderID == userID {
		return r.ReceiverID
	}
	return r.SenderID
}

// FriendRequestView is a request as listed for one of its parties.
type FriendRequestView struct {
	ID        int64               `json:"id"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	IsSender  bool                `json:"isSender"`
	User      *UserSummary        `json:"user"`
}

type SendFriendRequestRequest struct {
	ReceiverUniqueID string `json:"receiverUniqueId"`
}

type RespondFriendRequestRequest struct {
	Status FriendRequestStatus `json:"status"`
}

var (
	ErrRequestNotFound    = errors.New("friend request not found")
	ErrCannotFriendSelf   = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends     = errors.New("already friends with this user")
	ErrRequestPending     = errors.New("friend request already sent or received")
	ErrRequestNotPending  = errors.New("friend request has already been answered")
	ErrNotRequestReceiver = errors.New("only the receiver can respond to this request")
)
