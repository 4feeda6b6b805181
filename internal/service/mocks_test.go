package service

import (
	"context"

	"github.com/Mizu-20/statify/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Each mock returns the zero "not found" answer unless a test sets the
// matching function field.

type mockUserRepository struct {
	createFn          func(ctx context.Context, user *model.NewUser, uniqueID string) (*model.User, error)
	getByIDFn         func(ctx context.Context, id int64) (*model.User, error)
	getByExternalIDFn func(ctx context.Context, externalID string) (*model.User, error)
	getByUniqueIDFn   func(ctx context.Context, uniqueID string) (*model.User, error)
	getByIDsFn        func(ctx context.Context, ids []int64) (map[int64]*model.User, error)
	searchFn          func(ctx context.Context, query string) ([]model.User, error)
	updateTokensFn    func(ctx context.Context, id int64, accessToken, refreshToken string, expiry int64) error

	createCalls []string
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.NewUser, uniqueID string) (*model.User, error) {
	m.createCalls = append(m.createCalls, uniqueID)
	if m.createFn != nil {
		return m.createFn(ctx, user, uniqueID)
	}
	return &model.User{ID: 1, ExternalID: user.ExternalID, UniqueID: uniqueID, DisplayName: user.DisplayName}, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	if m.getByExternalIDFn != nil {
		return m.getByExternalIDFn(ctx, externalID)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*model.User, error) {
	if m.getByUniqueIDFn != nil {
		return m.getByUniqueIDFn(ctx, uniqueID)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return map[int64]*model.User{}, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, p *model.NewUser) (*model.User, error) {
	return &model.User{ID: id, ExternalID: p.ExternalID, DisplayName: p.DisplayName, TokenExpiry: p.TokenExpiry}, nil
}

func (m *mockUserRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry int64) error {
	if m.updateTokensFn != nil {
		return m.updateTokensFn(ctx, id, accessToken, refreshToken, expiry)
	}
	return nil
}

func (m *mockUserRepository) UpdateBio(ctx context.Context, id int64, bio string) (*model.User, error) {
	return &model.User{ID: id, Bio: bio}, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string) ([]model.User, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

type mockFriendRequestRepository struct {
	createPendingFn func(ctx context.Context, senderID, receiverID int64) (*model.FriendRequest, error)
	getByIDFn       func(ctx context.Context, id int64) (*model.FriendRequest, error)
	resolveFn       func(ctx context.Context, id int64, status model.FriendRequestStatus) (*model.FriendRequest, error)
	listByUserFn    func(ctx context.Context, userID int64, status model.FriendRequestStatus) ([]model.FriendRequest, error)

	createPendingCalls int
	resolveCalls       int
}

func (m *mockFriendRequestRepository) CreatePending(ctx context.Context, senderID, receiverID int64) (*model.FriendRequest, error) {
	m.createPendingCalls++
	if m.createPendingFn != nil {
		return m.createPendingFn(ctx, senderID, receiverID)
	}
	return &model.FriendRequest{ID: 1, SenderID: senderID, ReceiverID: receiverID, Status: model.RequestPending}, nil
}

func (m *mockFriendRequestRepository) GetByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrRequestNotFound
}

func (m *mockFriendRequestRepository) Resolve(ctx context.Context, id int64, status model.FriendRequestStatus) (*model.FriendRequest, error) {
	m.resolveCalls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, id, status)
	}
	return nil, model.ErrRequestNotFound
}

func (m *mockFriendRequestRepository) ListByUser(ctx context.Context, userID int64, status model.FriendRequestStatus) ([]model.FriendRequest, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, status)
	}
	return nil, nil
}

func (m *mockFriendRequestRepository) LatestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error) {
	return nil, model.ErrRequestNotFound
}
