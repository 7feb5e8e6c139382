// Package budget persists extraction token counters in the cache database
// so provider budgets survive restarts.
package budget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/db"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Retention maps a budget window name ("daily", "monthly") to how long its
// counters are kept. Counters outlive their window so the previous period
// can still be read after rollover.
type Retention map[string]time.Duration

// DefaultRetention keeps daily counters two days and monthly counters a
// little over two months.
func DefaultRetention() Retention {
	return Retention{
		"daily":   48 * time.Hour,
		"monthly": 62 * 24 * time.Hour,
	}
}

// Store satisfies extraction.BudgetStore. Keys have the form
// {prefix}budget:{provider}:{window}:{period}.
type Store struct {
	store     store
	retention Retention
	fallback  time.Duration
}

// New creates a budget store. Keys whose window is not in r get the
// longest configured retention.
func New(s store, r Retention) *Store {
	if len(r) == 0 {
		r = DefaultRetention()
	}
	var longest time.Duration
	for _, ttl := range r {
		longest = max(longest, ttl)
	}
	return &Store{store: s, retention: r, fallback: longest}
}

// IncrBy adds val to the counter. The first write of a period fixes its
// expiry (EXPIRE NX), later writes leave it alone.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget incr %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, key, s.ttl(key), true); err != nil {
		return fmt.Errorf("budget expire %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 for a missing key.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(bytes.TrimSpace(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	}
	return val, nil
}

func (s *Store) ttl(key string) time.Duration {
	// window is the second to last segment
	parts := strings.Split(key, ":")
	if len(parts) >= 2 {
		if ttl, ok := s.retention[parts[len(parts)-2]]; ok {
			return ttl
		}
	}
	return s.fallback
}
