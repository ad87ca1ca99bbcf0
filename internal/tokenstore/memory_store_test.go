package tokenstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRevocationExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Revoke(ctx, "abc", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked, _ := s.IsRevoked(ctx, "abc"); !revoked {
		t.Fatalf("expected token to be revoked")
	}
	if revoked, _ := s.IsRevoked(ctx, "other"); revoked {
		t.Fatalf("unrelated token must not be revoked")
	}

	now = now.Add(2 * time.Minute)
	if revoked, _ := s.IsRevoked(ctx, "abc"); revoked {
		t.Fatalf("expected revocation to lapse after ttl")
	}
}

func TestMemoryStoreIgnoresNonPositiveTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Revoke(ctx, "expired", 0)
	if revoked, _ := s.IsRevoked(ctx, "expired"); revoked {
		t.Fatalf("zero ttl must not revoke")
	}
}

func TestMemoryStoreSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Revoke(ctx, "old", time.Second)
	now = now.Add(time.Hour)
	_ = s.Revoke(ctx, "new", time.Minute)

	if _, ok := s.items["old"]; ok {
		t.Fatalf("expected expired entry to be swept")
	}
}
