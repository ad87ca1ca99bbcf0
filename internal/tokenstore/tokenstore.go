// Package tokenstore records revoked session token ids until they expire.
package tokenstore

import (
	"context"
	"time"
)

// Store is the revocation list consulted by the authenticator.
type Store interface {
	// Revoke marks jti as revoked for ttl. A non-positive ttl is a no-op.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
