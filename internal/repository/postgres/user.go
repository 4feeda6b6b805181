package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
	"github.com/Mizu-20/statify/internal/secret"
)

const userColumns = `id, external_id, unique_id, display_name, email, profile_image, followers, bio,
	access_token, refresh_token, token_expiry, created_at`

// userRepository stores identities with upstream credentials sealed at rest.
type userRepository struct {
	db     *sqlx.DB
	sealer *secret.Sealer
}

func NewUserRepository(db *sqlx.DB, sealer *secret.Sealer) repository.UserRepository {
	return &userRepository{db: db, sealer: sealer}
}

func (r *userRepository) Create(ctx context.Context, nu *model.NewUser, uniqueID string) (*model.User, error) {
	access, refresh, err := r.seal(nu.AccessToken, nu.RefreshToken)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (external_id, unique_id, display_name, email, profile_image, followers,
		                   access_token, refresh_token, token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	var u model.User
	err = r.db.GetContext(ctx, &u, query,
		nu.ExternalID, uniqueID, nu.DisplayName, nu.Email, nu.ProfileImage, nu.Followers,
		access, refresh, nu.TokenExpiry,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == "users_unique_id_key" {
				return nil, model.ErrUniqueIDTaken
			}
			return nil, model.ErrExternalIDExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return r.open(&u)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
}

func (r *userRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE unique_id = $1`, uniqueID)
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	out := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}

	for i := range users {
		u, err := r.open(&users[i])
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, p *model.NewUser) (*model.User, error) {
	query := `
		UPDATE users
		SET display_name = $2, email = $3, profile_image = $4, followers = $5
		WHERE id = $1
		RETURNING ` + userColumns

	return r.getOne(ctx, query, id, p.DisplayName, p.Email, p.ProfileImage, p.Followers)
}

func (r *userRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry int64) error {
	access, refresh, err := r.seal(accessToken, refreshToken)
	if err != nil {
		return err
	}

	query := `UPDATE users SET access_token = $2, refresh_token = $3, token_expiry = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, access, refresh, expiry)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateBio(ctx context.Context, id int64, bio string) (*model.User, error) {
	query := `UPDATE users SET bio = $2 WHERE id = $1 RETURNING ` + userColumns
	return r.getOne(ctx, query, id, bio)
}

func (r *userRepository) Search(ctx context.Context, query string) ([]model.User, error) {
	searchQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE display_name ILIKE $1 OR unique_id ILIKE $1
		ORDER BY id
	`

	var users []model.User
	if err := r.db.SelectContext(ctx, &users, searchQuery, "%"+escapeLike(query)+"%"); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	for i := range users {
		// search results never expose credentials
		users[i].AccessToken = ""
		users[i].RefreshToken = ""
	}
	return users, nil
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return r.open(&u)
}

func (r *userRepository) seal(access, refresh string) (string, string, error) {
	a, err := r.sealer.Seal(access)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal access token: %w", err)
	}
	b, err := r.sealer.Seal(refresh)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal refresh token: %w", err)
	}
	return a, b, nil
}

func (r *userRepository) open(u *model.User) (*model.User, error) {
	var err error
	if u.AccessToken, err = r.sealer.Open(u.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to open access token for user %d: %w", u.ID, err)
	}
	if u.RefreshToken, err = r.sealer.Open(u.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to open refresh token for user %d: %w", u.ID, err)
	}
	return u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
