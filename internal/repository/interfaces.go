package repository

import (
	"context"

	"github.com/Mizu-20/statify/internal/model"
)

type UserRepository interface {
	// Create stores a new identity under uniqueID. It returns
	// model.ErrUniqueIDTaken when uniqueID is already in use and
	// model.ErrExternalIDExists when the external id is registered.
	Create(ctx context.Context, user *model.NewUser, uniqueID string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
	// UpdateProfile refreshes the provider-owned profile fields. Tokens are
	// written through UpdateTokens.
	UpdateProfile(ctx context.Context, id int64, profile *model.NewUser) (*model.User, error)
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry int64) error
	UpdateBio(ctx context.Context, id int64, bio string) (*model.User, error)
	Search(ctx context.Context, query string) ([]model.User, error)
}

type FriendRequestRepository interface {
	// CreatePending checks the pair for an existing friendship or a pending
	// or accepted request and inserts a new pending request as one atomic
	// step.
	CreatePending(ctx context.Context, senderID, receiverID int64) (*model.FriendRequest, error)
	GetByID(ctx context.Context, id int64) (*model.FriendRequest, error)
	// Resolve moves a pending request to status. When status is accepted the
	// friendship pair is created in the same atomic step.
	Resolve(ctx context.Context, id int64, status model.FriendRequestStatus) (*model.FriendRequest, error)
	ListByUser(ctx context.Context, userID int64, status model.FriendRequestStatus) ([]model.FriendRequest, error)
	LatestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error)
}

type FriendshipRepository interface {
	Link(ctx context.Context, userID, friendID int64) error
	// Unlink removes both directions and reports whether anything existed.
	Unlink(ctx context.Context, userID, friendID int64) (bool, error)
	Exists(ctx context.Context, userID, friendID int64) (bool, error)
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

type MoodPostRepository interface {
	// Create assigns ID and CreatedAt on post.
	Create(ctx context.Context, post *model.MoodPost) error
	GetByID(ctx context.Context, id int64) (*model.MoodPost, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.MoodPost, error)
	ListByAuthors(ctx context.Context, authorIDs []int64) ([]model.MoodPost, error)
	Delete(ctx context.Context, id int64) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}
