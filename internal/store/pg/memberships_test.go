package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"crewbase.org/internal/team"
)

func TestMembershipFindFiltersTombstones(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &MembershipStore{db: db}

	// The live-rows join finds nothing when either side is tombstoned.
	mock.ExpectQuery("select m.id, m.team_id, m.member_id, m.role").
		WithArgs("team-1", "user-1").
		WillReturnError(sql.ErrNoRows)

	_, err = store.Find(context.Background(), "team-1", "user-1")
	if !errors.Is(err, team.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMembershipCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &MembershipStore{db: db}

	mock.ExpectQuery("insert into team_memberships").
		WithArgs("m-1", "team-1", "user-1", team.RoleMember).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err = store.Create(context.Background(), &team.Membership{
		ID:       "m-1",
		TeamID:   "team-1",
		MemberID: "user-1",
		Role:     team.RoleMember,
	})
	if !errors.Is(err, team.ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
