package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore[int](time.Minute)

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Fatal("expected miss on empty store")
	}

	s.Set(ctx, "k", 42)
	v, ok := s.Get(ctx, "k")
	if !ok || v != 42 {
		t.Fatalf("expected 42, got %v ok=%v", v, ok)
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewStore[string](10 * time.Millisecond)

	s.Set(ctx, "k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestStoreGetOrLoad(t *testing.T) {
	ctx := context.Background()
	s := NewStore[string](time.Minute)

	loads := 0
	loader := func(context.Context) (string, error) {
		loads++
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		v, err := s.GetOrLoad(ctx, "k", loader)
		if err != nil {
			t.Fatalf("load %d failed: %v", i, err)
		}
		if v != "loaded" {
			t.Fatalf("expected loaded value, got %q", v)
		}
	}
	if loads != 1 {
		t.Fatalf("expected one load, got %d", loads)
	}

	wantErr := errors.New("backend down")
	_, err := s.GetOrLoad(ctx, "other", func(context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error passthrough, got %v", err)
	}
}
