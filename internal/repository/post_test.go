package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"postboard/internal/cache"
	"postboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Test Post", Description: "Body"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" ORDER BY created_at DESC,id DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(2, "newer").AddRow(1, "older"))

	posts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Lifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	old := &models.Post{Title: "old", Description: "d", CreatedAt: base}
	mid := &models.Post{Title: "mid", Description: "d", CreatedAt: base.Add(time.Hour)}
	newest := &models.Post{Title: "new", Description: "d", CreatedAt: base.Add(2 * time.Hour)}
	for _, p := range []*models.Post{mid, old, newest} {
		require.NoError(t, repo.Create(ctx, p))
	}

	posts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{posts[0].Title, posts[1].Title, posts[2].Title})

	img := "x.png"
	mid.Image = &img
	mid.Title = "mid edited"
	require.NoError(t, repo.Update(ctx, mid))

	got, err := repo.GetByID(ctx, mid.ID)
	require.NoError(t, err)
	assert.Equal(t, "mid edited", got.Title)
	require.NotNil(t, got.Image)
	assert.Equal(t, "x.png", *got.Image)

	require.NoError(t, repo.Delete(ctx, mid.ID))
	_, err = repo.GetByID(ctx, mid.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	err = repo.Delete(ctx, mid.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostRepository_UpdateOfDeletedPostIsNotFound(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "t", Description: "d"}
	require.NoError(t, repo.Create(ctx, post))
	stale, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, post.ID))

	stale.Title = "edited"
	err = repo.Update(ctx, stale)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostRepository_ShowRacingDeleteIsNotCached(t *testing.T) {
	db := setupSQLiteDB(t)
	setupRedisCache(t)

	repo := NewPostRepository(db)
	ctx := context.Background()
	post := &models.Post{Title: "t", Description: "d"}
	require.NoError(t, repo.Create(ctx, post))

	reached, release := pauseAfterFirstQuery(t, db, "posts")
	done := make(chan error, 1)
	go func() {
		_, err := repo.GetByID(ctx, post.ID)
		done <- err
	}()
	<-reached

	require.NoError(t, repo.Delete(ctx, post.ID))
	close(release)
	require.NoError(t, <-done)

	_, err := repo.GetByID(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostRepository_CacheServesUntilWrite(t *testing.T) {
	db := setupSQLiteDB(t)
	mr := setupRedisCache(t)

	repo := NewPostRepository(db)
	ctx := context.Background()
	post := &models.Post{Title: "t", Description: "d"}
	require.NoError(t, repo.Create(ctx, post))

	_, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.VersionedKey(cache.PostKey(post.ID), 1)))

	post.Title = "edited"
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
}
