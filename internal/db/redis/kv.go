package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/db"
)

// Get returns db.ErrKeyNotFound for a missing key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// SetWithTTL stores value under key. A ttl below one second stores the
// value without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value))
	var cmd rueidis.Completed
	if secs := int64(ttl / time.Second); secs > 0 {
		cmd = set.Ex(time.Duration(secs) * time.Second).Build()
	} else {
		cmd = set.Build()
	}
	return s.exec(ctx, db.OpSet, key, cmd)
}

// IncrBy atomically adds val to key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	return s.exec(ctx, db.OpIncrBy, key, s.client.B().Incrby().Key(key).Increment(val).Build())
}

// Expire sets a TTL on key, rounded down to whole seconds with a minimum
// of one. With nx only a key without an expiry is touched (EXPIRE NX).
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	secs := max(int64(ttl/time.Second), 1)
	exp := s.client.B().Expire().Key(key).Seconds(secs)
	if nx {
		return s.exec(ctx, db.OpExpire, key, exp.Nx().Build())
	}
	return s.exec(ctx, db.OpExpire, key, exp.Build())
}

func (s *Store) exec(ctx context.Context, op, key string, cmd rueidis.Completed) error {
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: op, Key: key, Err: err}
	}
	return nil
}
