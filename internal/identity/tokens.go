package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"crewbase.org/internal/ids"
)

const (
	// TokenTypeAccess marks short-lived bearer credentials presented on every
	// privileged request.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks the long-lived credential exchanged at rotation.
	TokenTypeRefresh = "refresh"

	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are carried by both token kinds. TokenType distinguishes them;
// refresh tokens additionally carry the ledger key in the registered ID (jti).
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues, verifies, rotates and revokes access/refresh pairs.
// Access and refresh tokens are signed with independent secrets so a leaked
// access token (which shows up in logs and headers far more often) can never
// be replayed as a refresh credential.
type TokenService struct {
	store         RefreshTokenStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService. Both secrets are required and
// must differ.
func NewTokenService(store RefreshTokenStore, accessSecret, refreshSecret string, opts ...TokenOption) (*TokenService, error) {
	if store == nil {
		return nil, errors.New("refresh token store is required")
	}
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("both access and refresh signing secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh signing secrets must differ")
	}
	svc := &TokenService{
		store:         store,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     DefaultAccessTTL,
		refreshTTL:    DefaultRefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IssuePair mints a fresh access/refresh pair for the user and records the
// refresh token's jti in the ledger with revoked=false.
func (s *TokenService) IssuePair(ctx context.Context, userID string) (TokenPair, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TokenPair{}, errors.New("user id is required")
	}
	now := s.now().UTC()

	accessExp := now.Add(s.accessTTL)
	access, err := s.sign(s.accessSecret, Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	jti := uuid.NewString()
	refreshExp := now.Add(s.refreshTTL)
	refresh, err := s.sign(s.refreshSecret, Claims{
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.Create(ctx, &RefreshToken{
		ID:          ids.New(),
		UserID:      userID,
		JTI:         jti,
		TimeExpires: refreshExp,
	}); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess decodes an access token and returns its subject.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.parse(token, s.accessSecret)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Rotate exchanges a refresh token for a brand-new pair. Rotation is a
// single-use, at-most-once operation per jti: of N concurrent calls with the
// same token, exactly one wins the ledger's conditional update and the rest
// fail with ErrTokenReused.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	consumed, err := s.store.Consume(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !consumed {
		return TokenPair{}, ErrTokenReused
	}
	return s.IssuePair(ctx, claims.Subject)
}

// Revoke invalidates a refresh token for logout. Idempotent: revoking an
// already-revoked token succeeds.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parseRefresh(refreshToken)
	if err != nil {
		return err
	}
	return s.store.Revoke(ctx, claims.ID)
}

func (s *TokenService) parseRefresh(token string) (*Claims, error) {
	claims, err := s.parse(token, s.refreshSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) sign(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) parse(token string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
