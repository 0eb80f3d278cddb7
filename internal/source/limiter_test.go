package source

import (
	"context"
	"testing"
	"time"
)

func TestWaitURLSharesBucketPerHost(t *testing.T) {
	// rate 1/s with burst 1: the second request on the same host must wait,
	// a different host has its own fresh bucket.
	hl := NewHostLimiter(1, 1)
	ctx := context.Background()

	if err := hl.WaitURL(ctx, "https://boards.example.com/feed"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := hl.WaitURL(ctx, "https://other.example.com/feed"); err != nil {
		t.Fatalf("fresh host should not be throttled: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := hl.WaitURL(short, "https://boards.example.com/jobs"); err == nil {
		t.Error("second request on a drained host bucket should block past the deadline")
	}
}

func TestWaitURLUnparseableFallsBack(t *testing.T) {
	hl := NewHostLimiter(100, 10)
	if err := hl.WaitURL(context.Background(), "::not a url"); err != nil {
		t.Errorf("unparseable url should use the fallback bucket, got %v", err)
	}
}
