package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"postboard/internal/models"
)

// memPostRepo is an in-memory repository.PostRepository.
type memPostRepo struct {
	mu       sync.Mutex
	nextID   uint
	rows     map[uint]models.Post
	clock    time.Time
	updateFn func(*models.Post) error
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{
		rows:  map[uint]models.Post{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memPostRepo) List(_ context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Post, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memPostRepo) GetByID(_ context.Context, id uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	return &p, nil
}

func (r *memPostRepo) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	post.ID = r.nextID
	post.CreatedAt = r.clock
	post.UpdatedAt = r.clock
	r.rows[post.ID] = *post
	return nil
}

func (r *memPostRepo) Update(_ context.Context, post *models.Post) error {
	if r.updateFn != nil {
		if err := r.updateFn(post); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[post.ID] = *post
	return nil
}

func (r *memPostRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return models.NewNotFoundError("Post", id)
	}
	delete(r.rows, id)
	return nil
}

// memUserRepo is an in-memory repository.UserRepository.
type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{rows: map[uint]models.User{}}
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return &u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.rows[user.ID] = *user
	return nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// memTokenRepo is an in-memory repository.TokenRepository.
type memTokenRepo struct {
	mu   sync.Mutex
	rows map[string]models.PersonalAccessToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{rows: map[string]models.PersonalAccessToken{}}
}

func (r *memTokenRepo) Create(_ context.Context, token *models.PersonalAccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[token.TokenID] = *token
	return nil
}

func (r *memTokenRepo) GetByTokenID(_ context.Context, tokenID string) (*models.PersonalAccessToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[tokenID]
	if !ok {
		return nil, models.NewNotFoundError("Token", tokenID)
	}
	return &t, nil
}

func (r *memTokenRepo) DeleteByUserID(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.rows {
		if t.UserID == userID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}
