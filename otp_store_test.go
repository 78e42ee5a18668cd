package authkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCodeStoreSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpRegister, "u@x.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Consume(ctx, OpRegister, "u@x.com", "123456"); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if mr.Exists("otp:u@x.com") {
		t.Fatal("expected code to be deleted on successful consume")
	}
	if err := store.Consume(ctx, OpRegister, "u@x.com", "123456"); !errors.Is(err, errCodeInvalid) {
		t.Fatalf("expected replayed code to be invalid, got %v", err)
	}
}

func TestCodeStoreMismatchMutatesNothing(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpRegister, "u@x.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Consume(ctx, OpRegister, "u@x.com", "654321"); !errors.Is(err, errCodeInvalid) {
		t.Fatalf("expected mismatch to be invalid, got %v", err)
	}
	if !mr.Exists("otp:u@x.com") {
		t.Fatal("mismatched attempt must not delete the stored code")
	}
	if err := store.Consume(ctx, OpRegister, "u@x.com", "123456"); err != nil {
		t.Fatalf("correct code should still consume after a mismatch: %v", err)
	}
}

func TestCodeStoreExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpReset, "u@x.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(5*time.Minute + time.Second)

	if err := store.Consume(ctx, OpReset, "u@x.com", "123456"); !errors.Is(err, errCodeInvalid) {
		t.Fatalf("expected expired code to be invalid, got %v", err)
	}
}

func TestCodeStoreOverwriteInvalidatesPriorCode(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpRegister, "u@x.com", "111111", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, OpRegister, "u@x.com", "222222", 5*time.Minute); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if err := store.Consume(ctx, OpRegister, "u@x.com", "111111"); !errors.Is(err, errCodeInvalid) {
		t.Fatalf("expected overwritten code to be invalid, got %v", err)
	}
	if err := store.Consume(ctx, OpRegister, "u@x.com", "222222"); err != nil {
		t.Fatalf("expected fresh code to consume, got %v", err)
	}
}

func TestCodeStoreTrimsCandidateWhitespace(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpRegister, "u@x.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Consume(ctx, OpRegister, "u@x.com", "  123456\n"); err != nil {
		t.Fatalf("expected whitespace-padded candidate to match, got %v", err)
	}
}

func TestCodeStoreNamespacesAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpRegister, "u@x.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A registration code must not satisfy the reset flow.
	if err := store.Consume(ctx, OpReset, "u@x.com", "123456"); !errors.Is(err, errCodeInvalid) {
		t.Fatalf("expected cross-operation consume to fail, got %v", err)
	}
	if err := store.Consume(ctx, OpRegister, "u@x.com", "123456"); err != nil {
		t.Fatalf("registration code should remain live, got %v", err)
	}
}

func TestCodeStoreConcurrentConsumeSingleWinner(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newCodeStore(rdb)

	if err := store.Save(ctx, OpRegister, "u@x.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = store.Consume(ctx, OpRegister, "u@x.com", "123456")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, errCodeInvalid):
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", wins)
	}
}
