package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crewbase.org/internal/team"
)

// TeamStore implements team.TeamStore. Reads exclude tombstoned rows.
type TeamStore struct {
	db *sql.DB
}

var _ team.TeamStore = (*TeamStore)(nil)

// Create inserts the team and the creator membership in one transaction.
func (s *TeamStore) Create(ctx context.Context, t *team.Team, creator *team.Membership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into teams (id, creator_id, name)
		values ($1, $2, $3)
		returning time_created
	`, t.ID, t.CreatorID, t.Name)
	if err := row.Scan(&t.TimeCreated); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return team.ErrNameTaken
			case pgErrForeignKeyViolation:
				return team.ErrNotFound
			}
		}
		return err
	}

	row = tx.QueryRowContext(ctx, `
		insert into team_memberships (id, team_id, member_id, role)
		values ($1, $2, $3, $4)
		returning time_created
	`, creator.ID, creator.TeamID, creator.MemberID, creator.Role)
	if err := row.Scan(&creator.TimeCreated); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TeamStore) Find(ctx context.Context, id string) (*team.Team, error) {
	var t team.Team
	err := s.db.QueryRowContext(ctx, `
		select id, creator_id, name, time_created, time_updated
		from teams
		where id = $1 and deleted = false
	`, id).Scan(&t.ID, &t.CreatorID, &t.Name, &t.TimeCreated, &t.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, team.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TeamStore) ListByMember(ctx context.Context, memberID string) ([]*team.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		select t.id, t.creator_id, t.name, t.time_created, t.time_updated
		from teams t
		join team_memberships m on m.team_id = t.id
		where m.member_id = $1 and m.deleted = false and t.deleted = false
		order by t.time_created
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*team.Team
	for rows.Next() {
		var t team.Team
		if err := rows.Scan(&t.ID, &t.CreatorID, &t.Name, &t.TimeCreated, &t.TimeUpdated); err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *TeamStore) Rename(ctx context.Context, id, name string) (*team.Team, error) {
	var t team.Team
	err := s.db.QueryRowContext(ctx, `
		update teams
		set name = $2, time_updated = now()
		where id = $1 and deleted = false
		returning id, creator_id, name, time_created, time_updated
	`, id, name).Scan(&t.ID, &t.CreatorID, &t.Name, &t.TimeCreated, &t.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, team.ErrNotFound
	}
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, team.ErrNameTaken
		}
		return nil, err
	}
	return &t, nil
}

func (s *TeamStore) Tombstone(ctx context.Context, id, deletedBy string) error {
	res, err := s.db.ExecContext(ctx, `
		update teams
		set deleted = true, time_deleted = now(), deleted_by = $2
		where id = $1 and deleted = false
	`, id, deletedBy)
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

// PurgeTombstoned hard-deletes teams tombstoned before the cutoff.
// Memberships and comments cascade at the schema level.
func (s *TeamStore) PurgeTombstoned(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		delete from teams where deleted = true and time_deleted < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
