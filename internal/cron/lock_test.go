package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgredis "github.com/angelmondragon/stockledger-backend/pkg/redis"
)

type fakeReleaser struct {
	released *int
	err      error
}

func (f fakeReleaser) Release(context.Context) error {
	*f.released++
	return f.err
}

type fakeLocker struct {
	key        string
	ttl        time.Duration
	obtainErr  error
	releaseErr error
	released   int
}

func (f *fakeLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (pkgredis.Releaser, error) {
	return f.TryObtain(ctx, key, ttl)
}

func (f *fakeLocker) TryObtain(_ context.Context, key string, ttl time.Duration) (pkgredis.Releaser, error) {
	f.key, f.ttl = key, ttl
	if f.obtainErr != nil {
		return nil, f.obtainErr
	}
	return fakeReleaser{released: &f.released, err: f.releaseErr}, nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	locker := &fakeLocker{}
	lock, err := NewRedisLock(locker, "cron:journal", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected lock acquired, got ok=%v err=%v", ok, err)
	}
	if locker.key != "cron:journal" || locker.ttl != defaultLockTTL {
		t.Fatalf("unexpected lock request key=%q ttl=%v", locker.key, locker.ttl)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if locker.released != 1 {
		t.Fatalf("expected one release, got %d", locker.released)
	}
}

func TestRedisLockHeldElsewhere(t *testing.T) {
	lock, _ := NewRedisLock(&fakeLocker{obtainErr: pkgredis.ErrLockNotObtained}, "cron:journal", time.Minute)
	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatal("expected lock to be refused")
	}
}

func TestRedisLockObtainError(t *testing.T) {
	lock, _ := NewRedisLock(&fakeLocker{obtainErr: errors.New("conn refused")}, "cron:journal", time.Minute)
	if _, err := lock.Acquire(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRedisLockExpiredBeforeRelease(t *testing.T) {
	lock, _ := NewRedisLock(&fakeLocker{releaseErr: pkgredis.ErrLockNotHeld}, "cron:journal", time.Minute)
	if _, err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("expected expired lock to release cleanly, got %v", err)
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", time.Minute); err == nil {
		t.Fatal("expected error for nil locker")
	}
	if _, err := NewRedisLock(&fakeLocker{}, "", time.Minute); err == nil {
		t.Fatal("expected error for empty key")
	}
}
