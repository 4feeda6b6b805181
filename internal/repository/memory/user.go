package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Mizu-20/statify/internal/model"
	"github.com/Mizu-20/statify/internal/repository"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(ctx context.Context, nu *model.NewUser, uniqueID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byUnique[uniqueID]; ok {
		return nil, model.ErrUniqueIDTaken
	}
	if _, ok := r.s.byExternal[nu.ExternalID]; ok {
		return nil, model.ErrExternalIDExists
	}

	r.s.nextUserID++
	user := &model.User{
		ID:           r.s.nextUserID,
		ExternalID:   nu.ExternalID,
		UniqueID:     uniqueID,
		DisplayName:  nu.DisplayName,
		Email:        nu.Email,
		ProfileImage: nu.ProfileImage,
		Followers:    nu.Followers,
		AccessToken:  nu.AccessToken,
		RefreshToken: nu.RefreshToken,
		TokenExpiry:  nu.TokenExpiry,
		CreatedAt:    r.s.now(),
	}
	r.s.users[user.ID] = user
	r.s.byExternal[user.ExternalID] = user.ID
	r.s.byUnique[user.UniqueID] = user.ID

	out := *user
	return &out, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.getLocked(id)
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byExternal[externalID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return r.getLocked(id)
}

func (r *userRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byUnique[uniqueID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return r.getLocked(id)
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[int64]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, p *model.NewUser) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u.DisplayName = p.DisplayName
	u.Email = p.Email
	u.ProfileImage = p.ProfileImage
	u.Followers = p.Followers

	out := *u
	return &out, nil
}

func (r *userRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.AccessToken = accessToken
	u.RefreshToken = refreshToken
	u.TokenExpiry = expiry
	return nil
}

func (r *userRepository) UpdateBio(ctx context.Context, id int64, bio string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u.Bio = bio

	out := *u
	return &out, nil
}

func (r *userRepository) Search(ctx context.Context, query string) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []model.User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.DisplayName), q) ||
			strings.Contains(strings.ToLower(u.UniqueID), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepository) getLocked(id int64) (*model.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	out := *u
	return &out, nil
}
