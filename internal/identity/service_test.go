package identity

import (
	"context"
	"errors"
	"testing"
)

type fakeUserStore struct {
	users   map[string]*User
	byEmail map[string]string
	creds   map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   map[string]*User{},
		byEmail: map[string]string{},
		creds:   map[string]string{},
	}
}

func (s *fakeUserStore) Create(ctx context.Context, u *User, passwordHash string) error {
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrConflict
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	s.creds[u.ID] = passwordHash
	return nil
}

func (s *fakeUserStore) Find(ctx context.Context, id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Find(ctx, id)
}

func (s *fakeUserStore) Credential(ctx context.Context, userID string) (*Credential, error) {
	hash, ok := s.creds[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &Credential{UserID: userID, PasswordHash: hash}, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore) {
	t.Helper()
	users := newFakeUserStore()
	tokens, err := NewTokenService(newFakeTokenStore(), "access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc, err := NewService(users, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, users
}

func TestRegisterIssuesFirstPair(t *testing.T) {
	svc, _ := newTestService(t)

	user, pair, err := svc.Register(context.Background(), RegisterForm{
		Name:     "Alice",
		Email:    "  ALICE@Example.COM ",
		Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected token pair on registration")
	}

	resolved, err := svc.Resolve(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("resolved wrong principal: %s", resolved.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Register(context.Background(), RegisterForm{
		Name:     "",
		Email:    "nonsense",
		Password: "weak",
	})
	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, key := range []string{"name", "email", "password"} {
		if len(fields[key]) == 0 {
			t.Fatalf("expected violations for %q: %v", key, fields)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	form := RegisterForm{Name: "Alice", Email: "alice@example.com", Password: "Sup3rSecret"}
	if _, _, err := svc.Register(context.Background(), form); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, _, err := svc.Register(context.Background(), form)
	var fields FieldErrors
	if !errors.As(err, &fields) || len(fields["email"]) == 0 {
		t.Fatalf("expected email field error, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _ := newTestService(t)

	if _, _, err := svc.Register(context.Background(), RegisterForm{
		Name: "Alice", Email: "alice@example.com", Password: "Sup3rSecret",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []LoginForm{
		{Email: "nobody@example.com", Password: "Sup3rSecret"}, // unknown email
		{Email: "alice@example.com", Password: "WrongPass1"},   // bad password
		{Email: "", Password: ""},                              // empty input
	}
	for _, form := range cases {
		if _, _, err := svc.Login(context.Background(), form); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("Login(%q): expected ErrUnauthenticated, got %v", form.Email, err)
		}
	}

	if _, _, err := svc.Login(context.Background(), LoginForm{
		Email: "Alice@Example.com", Password: "Sup3rSecret",
	}); err != nil {
		t.Fatalf("valid login failed: %v", err)
	}
}

func TestResolveRejectsUnknownSubject(t *testing.T) {
	svc, users := newTestService(t)

	_, pair, err := svc.Register(context.Background(), RegisterForm{
		Name: "Alice", Email: "alice@example.com", Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Delete the user behind a still-valid token.
	users.users = map[string]*User{}
	if _, err := svc.Resolve(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for orphaned token, got %v", err)
	}
}
