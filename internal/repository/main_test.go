package repository

import (
	"sync/atomic"
	"testing"

	"postboard/internal/cache"
	"postboard/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	cache.SetClient(nil)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// pauseAfterFirstQuery blocks the first SELECT on table after its rows are
// read, until release is closed. reached fires once the query is parked.
func pauseAfterFirstQuery(t *testing.T, db *gorm.DB, table string) (reached <-chan struct{}, release chan<- struct{}) {
	t.Helper()
	reachedCh := make(chan struct{})
	releaseCh := make(chan struct{})
	var armed atomic.Bool
	armed.Store(true)

	err := db.Callback().Query().After("gorm:query").Register("test:pause_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !armed.CompareAndSwap(true, false) {
			return
		}
		close(reachedCh)
		<-releaseCh
	})
	require.NoError(t, err)
	return reachedCh, releaseCh
}

func setupRedisCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	require.NotNil(t, cache.InitRedis(mr.Addr()))
	t.Cleanup(cache.Close)
	return mr
}
