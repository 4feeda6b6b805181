package memory

import (
	"context"
	"sort"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

type friendRequestRepository struct {
	s *Store
}

func NewFriendRequestRepository(s *Store) repository.FriendRequestRepository {
	return &friendRequestRepository{s: s}
}

func (r *friendRequestRepository) CreatePending(ctx context.Context, senderID, receiverID int64) (*model.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.linkedLocked(senderID, receiverID) {
		return nil, model.ErrAlreadyFriends
	}
	for _, req := range r.s.requests {
		if !req.Involves(senderID, receiverID) {
			continue
		}
		switch req.Status {
		case model.RequestPending:
			return nil, model.ErrRequestPending
		case model.RequestAccepted:
			return nil, model.ErrAlreadyFriends
		}
	}

	now := r.s.now()
	r.s.nextRequestID++
	req := &model.FriendRequest{
		ID:         r.s.nextRequestID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.RequestPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.s.requests[req.ID] = req

	out := *req
	return &out, nil
}

func (r *friendRequestRepository) GetByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	out := *req
	return &out, nil
}

func (r *friendRequestRepository) Resolve(ctx context.Context, id int64, status model.FriendRequestStatus) (*model.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	if req.Status != model.RequestPending {
		return nil, model.ErrRequestNotPending
	}

	now := r.s.now()
	req.Status = status
	req.UpdatedAt = now
	if status == model.RequestAccepted {
		r.s.linkLocked(req.SenderID, req.ReceiverID, now)
	}

	out := *req
	return &out, nil
}

func (r *friendRequestRepository) ListByUser(ctx context.Context, userID int64, status model.FriendRequestStatus) ([]model.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.FriendRequest
	for _, req := range r.s.requests {
		if req.SenderID != userID && req.ReceiverID != userID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *friendRequestRepository) LatestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *model.FriendRequest
	for _, req := range r.s.requests {
		if req.Involves(a, b) && (latest == nil || req.ID > latest.ID) {
			latest = req
		}
	}
	if latest == nil {
		return nil, model.ErrRequestNotFound
	}
	out := *latest
	return &out, nil
}
