package ratelimit

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter is one fixed-window bucket for a single key.
type Counter struct {
	Key         string    `gorm:"primary_key" json:"key"`
	WindowStart time.Time `gorm:"primary_key" json:"window_start"`
	Count       int       `json:"count"`
}

func (Counter) TableName() string {
	return "rate_limit_counters"
}

// Limiter counts requests per key in fixed windows backed by the database,
// so the limit holds across multiple API instances.
type Limiter struct {
	db     *gorm.DB
	limit  int
	window time.Duration

	now func() time.Time
}

func NewLimiter(db *gorm.DB, limit int, window time.Duration) *Limiter {
	return &Limiter{
		db:     db,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records one hit for key and reports whether it is still within the
// limit for the current window.
func (l *Limiter) Allow(key string) (bool, error) {
	windowStart := l.now().UTC().Truncate(l.window)

	var counter Counter
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}, {Name: "window_start"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("rate_limit_counters.count + 1")}),
		}).Create(&Counter{Key: key, WindowStart: windowStart, Count: 1}).Error; err != nil {
			return err
		}
		return tx.Where("key = ? AND window_start = ?", key, windowStart).First(&counter).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return counter.Count <= l.limit, nil
}

// Cleanup deletes windows older than the given cutoff. Meant to run from the
// scheduler so the counters table does not grow without bound.
func (l *Limiter) Cleanup(before time.Time) error {
	return l.db.Where("window_start < ?", before.UTC()).Delete(&Counter{}).Error
}
