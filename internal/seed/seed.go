// Package seed creates demo users and posts for development databases.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"postboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options tune the generated data.
type Options struct {
	// MaxDays spreads post creation times over the last MaxDays days.
	MaxDays int
	// Seed makes the generated content reproducible when non-zero.
	Seed int64
}

// Seeder persists generated users and posts.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	rng   *rand.Rand
	opts  Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Seeder{
		db:    db,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
		opts:  opts,
	}
}

// ClearAll removes every token, post and user.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.PersonalAccessToken{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}

// Users creates n users sharing DefaultPassword.
func (s *Seeder) Users(n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		name := s.faker.Name()
		if len(name) > 60 {
			name = name[:60]
		}
		users = append(users, models.User{
			Name:     name,
			Email:    fmt.Sprintf("%d.%s", i, s.faker.Email()),
			Password: string(hash),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// BuildPost returns an unsaved post with a created_at inside the configured window.
func (s *Seeder) BuildPost() models.Post {
	back := time.Duration(s.rng.Intn(s.opts.MaxDays*24*60)) * time.Minute
	title := s.faker.Sentence(6)
	if len(title) > 255 {
		title = title[:255]
	}
	created := time.Now().Add(-back)
	return models.Post{
		Title:       title,
		Description: s.faker.Paragraph(1, 3, 12, "\n"),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

// Posts creates n posts without images.
func (s *Seeder) Posts(n int) ([]models.Post, error) {
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, s.BuildPost())
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := s.db.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}
