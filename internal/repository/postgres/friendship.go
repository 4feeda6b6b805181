package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Mizu-20/statify/internal/repository"
)

type friendshipRepository struct {
	db *sqlx.DB
}

func NewFriendshipRepository(db *sqlx.DB) repository.FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Link(ctx context.Context, userID, friendID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := linkTx(ctx, tx, userID, friendID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Unlink deletes both directions with one statement, so readers never see a
// half-removed pair.
func (r *friendshipRepository) Unlink(ctx context.Context, userID, friendID int64) (bool, error) {
	query := `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	result, err := r.db.ExecContext(ctx, query, userID, friendID)
	if err != nil {
		return false, fmt.Errorf("failed to delete friendship: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *friendshipRepository) Exists(ctx context.Context, userID, friendID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, friendID); err != nil {
		return false, fmt.Errorf("failed to check friendship existence: %w", err)
	}
	return exists, nil
}

func (r *friendshipRepository) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT friend_id FROM friendships WHERE user_id = $1 ORDER BY created_at, friend_id`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	return ids, nil
}
