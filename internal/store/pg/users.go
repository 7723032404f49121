package pg

import (
	"context"
	"database/sql"
	"errors"

	"crewbase.org/internal/identity"
)

// UserStore implements identity.UserStore.
type UserStore struct {
	db *sql.DB
}

var _ identity.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, u *identity.User, passwordHash string) error {
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash)
		values ($1, $2, $3, $4)
		returning time_created
	`, u.ID, u.Email, u.Name, passwordHash)
	if err := row.Scan(&u.TimeCreated); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return identity.ErrConflict
		}
		return err
	}
	return nil
}

func (s *UserStore) Find(ctx context.Context, id string) (*identity.User, error) {
	return s.findWhere(ctx, `id = $1`, id)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.findWhere(ctx, `email = $1`, email)
}

func (s *UserStore) findWhere(ctx context.Context, where string, arg any) (*identity.User, error) {
	var u identity.User
	err := s.db.QueryRowContext(ctx, `
		select id, email, name, time_created, time_updated
		from users
		where `+where, arg).Scan(&u.ID, &u.Email, &u.Name, &u.TimeCreated, &u.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Credential(ctx context.Context, userID string) (*identity.Credential, error) {
	var c identity.Credential
	err := s.db.QueryRowContext(ctx, `
		select id, password_hash from users where id = $1
	`, userID).Scan(&c.UserID, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
