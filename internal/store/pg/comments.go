package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crewbase.org/internal/comment"
)

// CommentStore implements comment.Store. Reads exclude tombstoned rows.
type CommentStore struct {
	db *sql.DB
}

var _ comment.Store = (*CommentStore)(nil)

func (s *CommentStore) Create(ctx context.Context, c *comment.Comment) error {
	row := s.db.QueryRowContext(ctx, `
		insert into comments (id, team_id, thread_id, author_id, message)
		values ($1, $2, $3, $4, $5)
		returning time_created
	`, c.ID, c.TeamID, c.ThreadID, c.AuthorID, c.Message)
	if err := row.Scan(&c.TimeCreated); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return comment.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CommentStore) Find(ctx context.Context, id string) (*comment.Comment, error) {
	var c comment.Comment
	err := s.db.QueryRowContext(ctx, `
		select id, team_id, thread_id, author_id, message, time_created, time_updated
		from comments
		where id = $1 and deleted = false
	`, id).Scan(&c.ID, &c.TeamID, &c.ThreadID, &c.AuthorID, &c.Message, &c.TimeCreated, &c.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommentStore) ListThread(ctx context.Context, teamID, threadID string, page comment.Page) ([]*comment.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, team_id, thread_id, author_id, message, time_created, time_updated
		from comments
		where team_id = $1 and thread_id = $2 and deleted = false
		order by time_created
		limit $3 offset $4
	`, teamID, threadID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*comment.Comment
	for rows.Next() {
		var c comment.Comment
		if err := rows.Scan(&c.ID, &c.TeamID, &c.ThreadID, &c.AuthorID, &c.Message, &c.TimeCreated, &c.TimeUpdated); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *CommentStore) UpdateMessage(ctx context.Context, id, message string) (*comment.Comment, error) {
	var c comment.Comment
	err := s.db.QueryRowContext(ctx, `
		update comments
		set message = $2, time_updated = now()
		where id = $1 and deleted = false
		returning id, team_id, thread_id, author_id, message, time_created, time_updated
	`, id, message).Scan(&c.ID, &c.TeamID, &c.ThreadID, &c.AuthorID, &c.Message, &c.TimeCreated, &c.TimeUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommentStore) Tombstone(ctx context.Context, id, deletedBy string) error {
	res, err := s.db.ExecContext(ctx, `
		update comments
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
		return comment.ErrNotFound
	}
	return nil
}

func (s *CommentStore) TombstoneThread(ctx context.Context, teamID, threadID, deletedBy string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		update comments
		set deleted = true, time_deleted = now(), deleted_by = $3
		where team_id = $1 and thread_id = $2 and deleted = false
	`, teamID, threadID, deletedBy)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CommentStore) TombstoneByTeam(ctx context.Context, teamID, deletedBy string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		update comments
		set deleted = true, time_deleted = now(), deleted_by = $2
		where team_id = $1 and deleted = false
	`, teamID, deletedBy)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeTombstoned hard-deletes comments tombstoned before the cutoff.
func (s *CommentStore) PurgeTombstoned(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		delete from comments where deleted = true and time_deleted < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
