package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

const requestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

type friendRequestRepository struct {
	db *sqlx.DB
}

func NewFriendRequestRepository(db *sqlx.DB) repository.FriendRequestRepository {
	return &friendRequestRepository{db: db}
}

// CreatePending runs the pair checks (friendship, then any pending or
// accepted request) and the insert in one transaction. Two racing inserts
// for the same pair are settled by the partial unique index
// friend_requests_pending_pair.
func (r *friendRequestRepository) CreatePending(ctx context.Context, senderID, receiverID int64) (*model.FriendRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var friends bool
	err = tx.GetContext(ctx, &friends,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`,
		senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if friends {
		return nil, model.ErrAlreadyFriends
	}

	var existing []model.FriendRequestStatus
	err = tx.SelectContext(ctx, &existing, `
		SELECT DISTINCT status FROM friend_requests
		WHERE status IN ('pending', 'accepted')
		  AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))`,
		senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}
	for _, status := range existing {
		if status == model.RequestPending {
			return nil, model.ErrRequestPending
		}
	}
	if len(existing) > 0 {
		return nil, model.ErrAlreadyFriends
	}

	var req model.FriendRequest
	err = tx.GetContext(ctx, &req, `
		INSERT INTO friend_requests (sender_id, receiver_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+requestColumns, senderID, receiverID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, model.ErrRequestPending
		}
		return nil, fmt.Errorf("failed to insert friend request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, model.ErrRequestPending
		}
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &req, nil
}

func (r *friendRequestRepository) GetByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.GetContext(ctx, &req, `SELECT `+requestColumns+` FROM friend_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return &req, nil
}

func (r *friendRequestRepository) Resolve(ctx context.Context, id int64, status model.FriendRequestStatus) (*model.FriendRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var req model.FriendRequest
	err = tx.GetContext(ctx, &req, `
		UPDATE friend_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friend_requests WHERE id = $1)`, id); err != nil {
			return nil, fmt.Errorf("failed to check friend request: %w", err)
		}
		if !exists {
			return nil, model.ErrRequestNotFound
		}
		return nil, model.ErrRequestNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update friend request: %w", err)
	}

	if status == model.RequestAccepted {
		if err := linkTx(ctx, tx, req.SenderID, req.ReceiverID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &req, nil
}

func (r *friendRequestRepository) ListByUser(ctx context.Context, userID int64, status model.FriendRequestStatus) ([]model.FriendRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM friend_requests
		WHERE (sender_id = $1 OR receiver_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY id DESC
	`

	requests := []model.FriendRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, userID, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return requests, nil
}

func (r *friendRequestRepository) LatestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY id DESC
		LIMIT 1
	`

	var req model.FriendRequest
	if err := r.db.GetContext(ctx, &req, query, a, b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get latest friend request: %w", err)
	}
	return &req, nil
}
