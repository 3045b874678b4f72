package ratelimit

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) *Limiter {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Counter{}))

	return NewLimiter(db, limit, window)
}

func TestAllowUnderLimit(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow("user-a")
		require.NoError(t, err)
		require.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow("user-a")
	require.NoError(t, err)
	require.False(t, allowed, "fourth request should be rejected")
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1, time.Minute)

	allowed, err := limiter.Allow("user-a")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow("user-a")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = limiter.Allow("user-b")
	require.NoError(t, err)
	require.True(t, allowed, "a different key should have its own bucket")
}

func TestWindowRollsOver(t *testing.T) {
	limiter := newTestLimiter(t, 1, time.Minute)

	base := time.Date(2025, 6, 1, 10, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	allowed, err := limiter.Allow("user-a")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow("user-a")
	require.NoError(t, err)
	require.False(t, allowed)

	limiter.now = func() time.Time { return base.Add(time.Minute) }

	allowed, err = limiter.Allow("user-a")
	require.NoError(t, err)
	require.True(t, allowed, "a new window should reset the count")
}

func TestCleanupDropsOldWindows(t *testing.T) {
	limiter := newTestLimiter(t, 5, time.Minute)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	_, err := limiter.Allow("user-a")
	require.NoError(t, err)

	limiter.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = limiter.Allow("user-a")
	require.NoError(t, err)

	require.NoError(t, limiter.Cleanup(base.Add(time.Hour)))

	var count int64
	require.NoError(t, limiter.db.Model(&Counter{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
