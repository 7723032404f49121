package identity

import (
	"context"
	"time"
)

// UserStore manages user and credential rows.
type UserStore interface {
	Create(ctx context.Context, u *User, passwordHash string) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Credential(ctx context.Context, userID string) (*Credential, error)
}

// RefreshTokenStore manages the refresh-token ledger.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error

	// Consume atomically revokes the record matching {jti, revoked=false} and
	// reports whether exactly one record transitioned. A false return is the
	// reuse-detection signal: the store's conditional update is the sole
	// synchronization point for concurrent rotations.
	Consume(ctx context.Context, jti string) (bool, error)

	// Revoke unconditionally marks the matching record revoked. Idempotent;
	// revoking a missing or already-revoked record is not an error.
	Revoke(ctx context.Context, jti string) error

	// PurgeExpired removes ledger rows whose expiry precedes the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
