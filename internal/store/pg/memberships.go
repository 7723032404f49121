package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crewbase.org/internal/team"
)

// MembershipStore implements team.MembershipStore. Find joins the teams
// table so a tombstoned team hides its memberships from every role gate.
type MembershipStore struct {
	db *sql.DB
}

var _ team.MembershipStore = (*MembershipStore)(nil)

func (s *MembershipStore) Create(ctx context.Context, m *team.Membership) error {
	row := s.db.QueryRowContext(ctx, `
		insert into team_memberships (id, team_id, member_id, role)
		values ($1, $2, $3, $4)
		returning time_created
	`, m.ID, m.TeamID, m.MemberID, m.Role)
	if err := row.Scan(&m.TimeCreated); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return team.ErrDuplicateMember
			case pgErrForeignKeyViolation:
				return team.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *MembershipStore) Find(ctx context.Context, teamID, memberID string) (*team.Membership, error) {
	var m team.Membership
	err := s.db.QueryRowContext(ctx, `
		select m.id, m.team_id, m.member_id, m.role, m.time_created, m.time_updated
		from team_memberships m
		join teams t on t.id = m.team_id
		where m.team_id = $1 and m.member_id = $2
		  and m.deleted = false and t.deleted = false
	`, teamID, memberID).Scan(&m.ID, &m.TeamID, &m.MemberID, &m.Role, &m.TimeCreated, &m.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, team.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MembershipStore) ListMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		select m.member_id, m.role, u.name, u.email
		from team_memberships m
		join users u on u.id = m.member_id
		where m.team_id = $1 and m.deleted = false
		order by m.time_created
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []team.Member
	for rows.Next() {
		var mb team.Member
		if err := rows.Scan(&mb.MemberID, &mb.Role, &mb.Name, &mb.Email); err != nil {
			return nil, err
		}
		members = append(members, mb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *MembershipStore) UpdateRole(ctx context.Context, teamID, memberID string, role team.Role) (*team.Membership, error) {
	var m team.Membership
	err := s.db.QueryRowContext(ctx, `
		update team_memberships
		set role = $3, time_updated = now()
		where team_id = $1 and member_id = $2 and deleted = false
		returning id, team_id, member_id, role, time_created, time_updated
	`, teamID, memberID, role).Scan(&m.ID, &m.TeamID, &m.MemberID, &m.Role, &m.TimeCreated, &m.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, team.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MembershipStore) Tombstone(ctx context.Context, teamID, memberID, deletedBy string) error {
	res, err := s.db.ExecContext(ctx, `
		update team_memberships
		set deleted = true, time_deleted = now(), deleted_by = $3
		where team_id = $1 and member_id = $2 and deleted = false
	`, teamID, memberID, deletedBy)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return team.ErrNotFound
	}
	return nil
}

// PurgeTombstoned hard-deletes memberships tombstoned before the cutoff.
func (s *MembershipStore) PurgeTombstoned(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		delete from team_memberships where deleted = true and time_deleted < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
