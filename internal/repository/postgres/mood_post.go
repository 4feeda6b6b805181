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

const postColumns = `id, user_id, track_id, track_name, artist_name, album_cover, note, start_time_ms, created_at`

type moodPostRepository struct {
	db *sqlx.DB
}

func NewMoodPostRepository(db *sqlx.DB) repository.MoodPostRepository {
	return &moodPostRepository{db: db}
}

func (r *moodPostRepository) Create(ctx context.Context, post *model.MoodPost) error {
	query := `
		INSERT INTO mood_posts (user_id, track_id, track_name, artist_name, album_cover, note, start_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		post.UserID, post.TrackID, post.TrackName, post.ArtistName,
		post.AlbumCover, post.Note, post.StartTimeMs,
	)
	if err := row.Scan(&post.ID, &post.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert mood post: %w", err)
	}
	return nil
}

func (r *moodPostRepository) GetByID(ctx context.Context, id int64) (*model.MoodPost, error) {
	var p model.MoodPost
	err := r.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM mood_posts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrMoodPostNotFound
		}
		return nil, fmt.Errorf("failed to get mood post: %w", err)
	}
	return &p, nil
}

func (r *moodPostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.MoodPost, error) {
	return r.ListByAuthors(ctx, []int64{authorID})
}

func (r *moodPostRepository) ListByAuthors(ctx context.Context, authorIDs []int64) ([]model.MoodPost, error) {
	posts := []model.MoodPost{}
	if len(authorIDs) == 0 {
		return posts, nil
	}

	query := `
		SELECT ` + postColumns + `
		FROM mood_posts
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &posts, query, pq.Array(authorIDs)); err != nil {
		return nil, fmt.Errorf("failed to list mood posts: %w", err)
	}
	return posts, nil
}

func (r *moodPostRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM mood_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mood post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrMoodPostNotFound
	}
	return nil
}
