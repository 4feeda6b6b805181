// Package postgres implements the repositories on PostgreSQL through sqlx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

// linkTx writes both directions of a friendship. It is the only statement
// that inserts into friendships.
func linkTx(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	query := `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, a, b); err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}
