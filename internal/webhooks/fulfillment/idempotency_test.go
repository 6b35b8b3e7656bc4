package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubIdempotencyStore struct {
	setNXResult bool
	setNXErr    error
	gotKey      string
	gotTTL      time.Duration
	deletedKeys []string
}

func (s *stubIdempotencyStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	s.gotKey = key
	s.gotTTL = ttl
	return s.setNXResult, s.setNXErr
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "sb:idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	s.deletedKeys = append(s.deletedKeys, keys...)
	return nil
}

func TestNewIdempotencyGuardValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewIdempotencyGuard(nil, time.Hour, "webhook"); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := NewIdempotencyGuard(&stubIdempotencyStore{}, time.Hour, ""); err == nil {
		t.Fatalf("expected error without scope")
	}
}

func TestCheckAndMarkClaimsDelivery(t *testing.T) {
	t.Parallel()

	store := &stubIdempotencyStore{setNXResult: true}
	guard, err := NewIdempotencyGuard(store, time.Hour, "webhook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	duplicate, err := guard.CheckAndMark(context.Background(), "100:order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if duplicate {
		t.Fatalf("fresh delivery must not report duplicate")
	}
	if store.gotKey != "sb:idempotency:webhook:100:order-1" {
		t.Fatalf("unexpected key %q", store.gotKey)
	}
	if store.gotTTL != time.Hour {
		t.Fatalf("unexpected ttl %v", store.gotTTL)
	}
}

func TestCheckAndMarkReportsDuplicate(t *testing.T) {
	t.Parallel()

	store := &stubIdempotencyStore{setNXResult: false}
	guard, _ := NewIdempotencyGuard(store, time.Hour, "webhook")

	duplicate, err := guard.CheckAndMark(context.Background(), "100:order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !duplicate {
		t.Fatalf("claimed delivery must report duplicate")
	}
}

func TestCheckAndMarkSurfacesStoreError(t *testing.T) {
	t.Parallel()

	store := &stubIdempotencyStore{setNXErr: errors.New("redis down")}
	guard, _ := NewIdempotencyGuard(store, time.Hour, "webhook")

	if _, err := guard.CheckAndMark(context.Background(), "100:order-1"); err == nil {
		t.Fatalf("expected store error to surface")
	}
}

func TestDeleteReleasesClaim(t *testing.T) {
	t.Parallel()

	store := &stubIdempotencyStore{}
	guard, _ := NewIdempotencyGuard(store, time.Hour, "webhook")

	if err := guard.Delete(context.Background(), "100:order-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deletedKeys) != 1 || store.deletedKeys[0] != "sb:idempotency:webhook:100:order-1" {
		t.Fatalf("unexpected deleted keys %v", store.deletedKeys)
	}
}
