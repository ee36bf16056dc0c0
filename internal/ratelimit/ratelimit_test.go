package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowRespectsBurst(t *testing.T) {
	krl := New(1, 2)

	if !krl.Allow("lookup") {
		t.Error("first request should be allowed")
	}
	if !krl.Allow("lookup") {
		t.Error("second request within burst should be allowed")
	}
	if krl.Allow("lookup") {
		t.Error("third request should exceed the burst")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	krl := New(1, 1)

	if !krl.Allow("a") {
		t.Error("key a should be allowed")
	}
	if !krl.Allow("b") {
		t.Error("key b has its own bucket and should be allowed")
	}
	if krl.Allow("a") {
		t.Error("key a should be exhausted")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	krl := New(0.001, 1)
	krl.Allow("lookup") // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := krl.Wait(ctx, "lookup"); err == nil {
		t.Error("wait on a drained bucket should fail when the context expires")
	}
}

func TestWaitImmediateWhenTokensAvailable(t *testing.T) {
	krl := New(100, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := krl.Wait(ctx, "lookup"); err != nil {
		t.Errorf("wait with tokens available should not block: %v", err)
	}
}
