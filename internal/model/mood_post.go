package model

import (
	"cmp"
	"errors"
	"slices"
	"time"
)

type MoodPost struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	TrackID     string    `db:"track_id" json:"trackId"`
	TrackName   string    `db:"track_name" json:"trackName"`
	ArtistName  string    `db:"artist_name" json:"artistName"`
	AlbumCover  *string   `db:"album_cover" json:"albumCover"`
	Note        *string   `db:"note" json:"note"`
	StartTimeMs int64     `db:"start_time_ms" json:"startTimeMs"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// FeedPost is a mood post with its author resolved at read time.
type FeedPost struct {
	MoodPost
	User *UserSummary `json:"user"`
}

// CreateMoodPostRequest carries the client payload. Timestamps are never
// accepted from the client.
type CreateMoodPostRequest struct {
	TrackID     string  `json:"trackId"`
	TrackName   string  `json:"trackName"`
	ArtistName  string  `json:"artistName"`
	AlbumCover  *string `json:"albumCover"`
	Note        *string `json:"note"`
	StartTimeMs *int64  `json:"startTimeMs"`
}

const MaxNoteLength = 280

var (
	ErrMoodPostNotFound = errors.New("mood post not found")
	ErrNotPostAuthor    = errors.New("only the author can delete this mood post")
)

// SortNewestFirst orders posts by creation time descending, breaking ties by
// id descending so the order is total.
func SortNewestFirst(posts []MoodPost) {
	slices.SortFunc(posts, func(a, b MoodPost) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
