package rescache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/db"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

type mockReader struct {
	detail resource.Detail
	err    error
	calls  int
}

func (m *mockReader) GetResource(_ context.Context, _ string) (resource.Detail, error) {
	m.calls++
	return m.detail, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedReader(t *testing.T, inner *mockReader) (*CachedReader, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cr := New(inner, ms, 5*time.Minute, "crisisportal:", nil, zap.NewNop())
	return cr, ms
}
