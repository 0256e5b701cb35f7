package runlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/testutil"
)

func TestAcquireAndRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	guard := NewGuard(client, time.Minute)
	key := "dispatch:mode=false:2025-04-15"

	release, err := guard.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, held, err := guard.Holder(ctx, key); err != nil || !held {
		t.Fatalf("expected lock to be held, held=%v err=%v", held, err)
	}

	_, err = guard.Acquire(ctx, key)
	if !errors.Is(err, domain.ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}
	var inProgress *domain.RunInProgressError
	if !errors.As(err, &inProgress) {
		t.Fatalf("expected *domain.RunInProgressError, got %T", err)
	}
	if inProgress.HeldSince.IsZero() {
		t.Error("expected the holder's acquisition time")
	}
	if inProgress.Key != key {
		t.Errorf("key = %q, want %q", inProgress.Key, key)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}

	if _, held, err := guard.Holder(ctx, key); err != nil || held {
		t.Fatalf("expected lock to be free, held=%v err=%v", held, err)
	}

	release2, err := guard.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("expected reacquire to succeed: %v", err)
	}
	if err := release2(ctx); err != nil {
		t.Errorf("unexpected release error: %v", err)
	}
}

func TestReleaseDoesNotDropForeignLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	guard := NewGuard(client, time.Minute)
	key := "dispatch:mode=true:2025-04-15"

	release, err := guard.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate expiry followed by another holder taking the key.
	if err := client.Del(ctx, lockKeyPrefix+key).Err(); err != nil {
		t.Fatalf("failed to expire lock: %v", err)
	}
	releaseOther, err := guard.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if _, held, _ := guard.Holder(ctx, key); !held {
		t.Error("stale release must not remove the new holder's lock")
	}

	if err := releaseOther(ctx); err != nil {
		t.Errorf("unexpected release error: %v", err)
	}
}

func TestNewGuardDefaultTTL(t *testing.T) {
	if g := NewGuard(nil, 0); g.ttl != defaultLockTTL {
		t.Errorf("ttl = %v, want %v", g.ttl, defaultLockTTL)
	}
}
