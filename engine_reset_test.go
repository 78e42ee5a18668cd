package authkit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResetPasswordRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newMemStore()
	seedIdentity(t, store, "u@x.com", "uma", "OldPass1!", StatusActive)
	mailer := &captureMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestResetOTP(ctx, "u@x.com"); err != nil {
		t.Fatalf("RequestResetOTP failed: %v", err)
	}
	code := mailer.lastCode(t)

	if err := engine.ResetPassword(ctx, "u@x.com", code, "NewPass1!"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := engine.Login(ctx, "u@x.com", "OldPass1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to stop authenticating, got %v", err)
	}
	if _, err := engine.Login(ctx, "u@x.com", "NewPass1!"); err != nil {
		t.Fatalf("expected new password to authenticate, got %v", err)
	}
}

func TestRequestResetOTPUnknownEmail(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	mailer := &captureMailer{}
	engine := newTestEngine(t, rdb, newMemStore(), mailer)

	if err := engine.RequestResetOTP(ctx, "nobody@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected unknown email error, got %v", err)
	}
	if mailer.sentCount() != 0 {
		t.Fatal("no mail may be dispatched for an unknown email")
	}
}

func TestRequestResetOTPRateLimited(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newMemStore()
	seedIdentity(t, store, "u@x.com", "uma", "OldPass1!", StatusActive)
	engine := newTestEngine(t, rdb, store, &captureMailer{})

	for i := 0; i < 3; i++ {
		if err := engine.RequestResetOTP(ctx, "u@x.com"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	err := engine.RequestResetOTP(ctx, "u@x.com")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected 4th request to be throttled, got %v", err)
	}
	if RetryAfter(err) <= 0 {
		t.Fatal("expected positive retry-after")
	}

	// The reset window is 15 minutes; 5 are not enough.
	mr.FastForward(5 * time.Minute)
	if err := engine.RequestResetOTP(ctx, "u@x.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected request within window to stay throttled, got %v", err)
	}

	mr.FastForward(10*time.Minute + time.Second)
	if err := engine.RequestResetOTP(ctx, "u@x.com"); err != nil {
		t.Fatalf("expected request after window to pass, got %v", err)
	}
}

func TestResetPasswordInvalidCode(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newMemStore()
	seedIdentity(t, store, "u@x.com", "uma", "OldPass1!", StatusActive)
	engine := newTestEngine(t, rdb, store, &captureMailer{})

	if err := engine.ResetPassword(ctx, "u@x.com", "000000", "NewPass1!"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	if _, err := engine.Login(ctx, "u@x.com", "OldPass1!"); err != nil {
		t.Fatalf("old password must survive a failed reset, got %v", err)
	}
}

func TestResetPasswordExpiredCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newMemStore()
	seedIdentity(t, store, "u@x.com", "uma", "OldPass1!", StatusActive)
	mailer := &captureMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestResetOTP(ctx, "u@x.com"); err != nil {
		t.Fatalf("RequestResetOTP failed: %v", err)
	}
	code := mailer.lastCode(t)

	mr.FastForward(5*time.Minute + time.Second)

	if err := engine.ResetPassword(ctx, "u@x.com", code, "NewPass1!"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected expired code to be invalid, got %v", err)
	}
}

func TestResetPasswordWeakReplacement(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := newMemStore()
	seedIdentity(t, store, "u@x.com", "uma", "OldPass1!", StatusActive)
	mailer := &captureMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestResetOTP(ctx, "u@x.com"); err != nil {
		t.Fatalf("RequestResetOTP failed: %v", err)
	}
	code := mailer.lastCode(t)

	err := engine.ResetPassword(ctx, "u@x.com", code, "Weakpass1")
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected password policy error, got %v", err)
	}
	if !strings.Contains(err.Error(), "special character") {
		t.Fatalf("expected error naming the symbol requirement, got %q", err.Error())
	}
	if _, err := engine.Login(ctx, "u@x.com", "OldPass1!"); err != nil {
		t.Fatalf("old password must survive a rejected replacement, got %v", err)
	}
}
