package identity

import "time"

// User is an immutable identity record created at registration.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	TimeCreated time.Time  `json:"time_created"`
	TimeUpdated *time.Time `json:"time_updated,omitempty"`
}

// Credential is the password digest owned 1:1 by a user. It is consulted only
// at login and never leaves this package.
type Credential struct {
	UserID       string
	PasswordHash string
}

// RefreshToken is one row of the refresh-token ledger. The ledger exists
// solely to make refresh tokens revocable and single-use; the signed token is
// stateless and cannot otherwise be invalidated before its expiry.
type RefreshToken struct {
	ID          string
	UserID      string
	JTI         string
	TimeExpires time.Time
	Revoked     bool
	TimeCreated time.Time
}

// TokenPair is an access/refresh credential pair with expirations.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
