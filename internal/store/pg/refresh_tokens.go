package pg

import (
	"context"
	"database/sql"
	"time"

	"crewbase.org/internal/identity"
)

// RefreshTokenStore implements identity.RefreshTokenStore over the
// refresh_tokens ledger table.
type RefreshTokenStore struct {
	db *sql.DB
}

var _ identity.RefreshTokenStore = (*RefreshTokenStore)(nil)

func (s *RefreshTokenStore) Create(ctx context.Context, tok *identity.RefreshToken) error {
	row := s.db.QueryRowContext(ctx, `
		insert into refresh_tokens (id, user_id, jti, time_expires)
		values ($1, $2, $3, $4)
		returning time_created
	`, tok.ID, tok.UserID, tok.JTI, tok.TimeExpires)
	if err := row.Scan(&tok.TimeCreated); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return identity.ErrConflict
			case pgErrForeignKeyViolation:
				return identity.ErrNotFound
			}
		}
		return err
	}
	return nil
}

// Consume flips exactly one live ledger row to revoked. Under concurrent
// rotations of the same token the database serializes the update and only one
// caller observes an affected row; everyone else gets false.
func (s *RefreshTokenStore) Consume(ctx context.Context, jti string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		update refresh_tokens
		set revoked = true
		where jti = $1 and revoked = false
	`, jti)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func (s *RefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	_, err := s.db.ExecContext(ctx, `
		update refresh_tokens set revoked = true where jti = $1
	`, jti)
	return err
}

func (s *RefreshTokenStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		delete from refresh_tokens where time_expires < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
