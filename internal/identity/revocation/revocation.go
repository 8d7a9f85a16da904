// Package revocation tracks revoked token IDs until their natural expiry.
// Logout revokes the presented token's jti; the auth middleware rejects
// revoked tokens on every request.
package revocation

import (
	"context"
	"time"
)

// List is the token revocation list contract.
type List interface {
	// Revoke marks a token ID as revoked for the given duration.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether a token ID has been revoked and not yet
	// expired.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
