package budget

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/db"
)

type fakeKV struct {
	values  map[string][]byte
	ttls    map[string]time.Duration
	nxFlags map[string]bool
	getErr  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values:  map[string][]byte{},
		ttls:    map[string]time.Duration{},
		nxFlags: map[string]bool{},
	}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) IncrBy(_ context.Context, key string, val int64) error {
	cur, _ := strconv.ParseInt(string(f.values[key]), 10, 64)
	f.values[key] = []byte(strconv.FormatInt(cur+val, 10))
	return nil
}

func (f *fakeKV) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	f.ttls[key] = ttl
	f.nxFlags[key] = nx
	return nil
}

func TestIncrBy_SetsTTLByPeriod(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, DefaultRetention())
	ctx := context.Background()

	daily := "crisisportal:budget:openai:daily:2026-10-18"
	monthly := "crisisportal:budget:openai:monthly:2026-10"

	if err := s.IncrBy(ctx, daily, 120); err != nil {
		t.Fatalf("IncrBy daily: %v", err)
	}
	if err := s.IncrBy(ctx, monthly, 120); err != nil {
		t.Fatalf("IncrBy monthly: %v", err)
	}

	if kv.ttls[daily] != 48*time.Hour {
		t.Errorf("daily ttl = %v", kv.ttls[daily])
	}
	if kv.ttls[monthly] != 62*24*time.Hour {
		t.Errorf("monthly ttl = %v", kv.ttls[monthly])
	}
	if !kv.nxFlags[daily] || !kv.nxFlags[monthly] {
		t.Error("expiry must be set with NX")
	}
}

func TestGet(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, Retention{"daily": time.Hour})
	ctx := context.Background()

	v, err := s.Get(ctx, "missing")
	if err != nil || v != 0 {
		t.Fatalf("missing key: v=%d err=%v", v, err)
	}

	_ = s.IncrBy(ctx, "k:daily:x", 7)
	_ = s.IncrBy(ctx, "k:daily:x", 5)
	v, err = s.Get(ctx, "k:daily:x")
	if err != nil || v != 12 {
		t.Fatalf("v=%d err=%v, want 12", v, err)
	}
}

func TestGet_StoreError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection reset")
	s := New(kv, Retention{"daily": time.Hour})

	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_Unparseable(t *testing.T) {
	kv := newFakeKV()
	kv.values["k"] = []byte("not-a-number")
	s := New(kv, Retention{"daily": time.Hour})

	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIncrBy_UnknownWindowUsesLongestRetention(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, Retention{"daily": time.Hour, "monthly": 10 * time.Hour})

	key := "crisisportal:budget:openai:weekly:2026-42"
	if err := s.IncrBy(context.Background(), key, 1); err != nil {
		t.Fatalf("IncrBy: %v", err)
	}
	if kv.ttls[key] != 10*time.Hour {
		t.Errorf("ttl = %v, want longest retention", kv.ttls[key])
	}
}

func TestNew_EmptyRetentionUsesDefaults(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, nil)

	key := "p:budget:anthropic:monthly:2026-10"
	if err := s.IncrBy(context.Background(), key, 3); err != nil {
		t.Fatalf("IncrBy: %v", err)
	}
	if kv.ttls[key] != 62*24*time.Hour {
		t.Errorf("ttl = %v", kv.ttls[key])
	}
}

func TestGet_TrimsWhitespace(t *testing.T) {
	kv := newFakeKV()
	kv.values["k"] = []byte(" 42\n")
	s := New(kv, nil)

	v, err := s.Get(context.Background(), "k")
	if err != nil || v != 42 {
		t.Fatalf("v=%d err=%v, want 42", v, err)
	}
}
