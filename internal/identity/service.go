package identity

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"crewbase.org/internal/ids"
)

// Service owns registration, login and principal resolution. It is stateless
// beyond the injected store handles: every resolution re-decodes the token and
// re-queries the user, which keeps multi-instance deployment correct without
// shared cache invalidation.
type Service struct {
	users  UserStore
	tokens *TokenService
}

// NewService constructs the identity service.
func NewService(users UserStore, tokens *TokenService) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	return &Service{users: users, tokens: tokens}, nil
}

// Tokens exposes the token lifecycle for refresh/logout handlers, which use
// the refresh token itself as the credential and bypass principal resolution.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// RegisterForm carries the registration input.
type RegisterForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginForm carries the login input.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user plus credential and issues the first token pair.
func (s *Service) Register(ctx context.Context, form RegisterForm) (*User, TokenPair, error) {
	form.Email = NormalizeEmail(form.Email)
	form.Name = strings.TrimSpace(form.Name)

	fields := FieldErrors{}
	if form.Name == "" {
		fields["name"] = append(fields["name"], "name is required")
	}
	if form.Email == "" || !strings.Contains(form.Email, "@") {
		fields["email"] = append(fields["email"], "a valid email is required")
	}
	for _, msg := range passwordPolicyViolations(form.Password) {
		fields["password"] = append(fields["password"], msg)
	}
	if len(fields) > 0 {
		return nil, TokenPair{}, fields
	}

	hash, err := HashPassword(form.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user := &User{
		ID:    ids.New(),
		Email: form.Email,
		Name:  form.Name,
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, TokenPair{}, FieldErrors{"email": {"email already registered"}}
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Login verifies the credential and issues a fresh pair. Every failure path
// collapses into ErrUnauthenticated so a caller cannot probe which emails
// exist.
func (s *Service) Login(ctx context.Context, form LoginForm) (*User, TokenPair, error) {
	email := NormalizeEmail(form.Email)
	if email == "" || form.Password == "" {
		return nil, TokenPair{}, ErrUnauthenticated
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrUnauthenticated
		}
		return nil, TokenPair{}, err
	}
	cred, err := s.users.Credential(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrUnauthenticated
		}
		return nil, TokenPair{}, err
	}
	if err := VerifyPassword(cred.PasswordHash, form.Password); err != nil {
		return nil, TokenPair{}, ErrUnauthenticated
	}
	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Resolve turns a bearer access token into the authenticated user. All
// failures — bad signature, expiry, wrong token type, unknown subject —
// collapse into ErrUnauthenticated; unexpected store errors pass through.
func (s *Service) Resolve(ctx context.Context, bearer string) (*User, error) {
	subject, err := s.tokens.VerifyAccess(bearer)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.Find(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// UserByEmail looks up a live user by normalized email.
func (s *Service) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.FindByEmail(ctx, NormalizeEmail(email))
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func passwordPolicyViolations(password string) []string {
	var out []string
	if len(password) < 6 || len(password) > 128 {
		out = append(out, "password must be between 6 and 128 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		out = append(out, "password must contain at least one uppercase letter")
	}
	if !lower {
		out = append(out, "password must contain at least one lowercase letter")
	}
	if !digit {
		out = append(out, "password must contain at least one digit")
	}
	return out
}
