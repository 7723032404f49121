package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crewbase.org/internal/ids"
	"crewbase.org/internal/team"
)

// TeamAuthorizer is the slice of the team service this package needs: role
// gates resolved against live memberships.
type TeamAuthorizer interface {
	RequireMember(ctx context.Context, teamID, principalID string) (*team.Membership, error)
	RequireAdmin(ctx context.Context, teamID, principalID string) (*team.Membership, error)
}

// Service owns comment operations. Creation and listing are gated on team
// membership; per-comment mutation is gated on authorship, not role; bulk
// deletion is an admin action.
type Service struct {
	store Store
	teams TeamAuthorizer
}

// NewService constructs the comment service.
func NewService(store Store, teams TeamAuthorizer) (*Service, error) {
	if store == nil || teams == nil {
		return nil, errors.New("comment store and team authorizer are required")
	}
	return &Service{store: store, teams: teams}, nil
}

// Create posts a comment to a thread. Requires team membership.
func (s *Service) Create(ctx context.Context, authorID, teamID, threadID, message string) (*Comment, error) {
	if _, err := s.teams.RequireMember(ctx, teamID, authorID); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, fmt.Errorf("%w: thread id is required", ErrInvalidInput)
	}
	c := &Comment{
		ID:       ids.New(),
		TeamID:   teamID,
		ThreadID: threadID,
		AuthorID: authorID,
		Message:  message,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListThread returns the live comments of a thread in creation order.
// Requires team membership.
func (s *Service) ListThread(ctx context.Context, principalID, teamID, threadID string, page Page) ([]*Comment, error) {
	if _, err := s.teams.RequireMember(ctx, teamID, principalID); err != nil {
		return nil, err
	}
	return s.store.ListThread(ctx, teamID, threadID, page.Clamp())
}

// Update edits a comment's message. Author only.
func (s *Service) Update(ctx context.Context, actorID, commentID, message string) (*Comment, error) {
	c, err := s.requireOwned(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	return s.store.UpdateMessage(ctx, c.ID, message)
}

// Delete tombstones a comment. Author only.
func (s *Service) Delete(ctx context.Context, actorID, commentID string) error {
	c, err := s.requireOwned(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	return s.store.Tombstone(ctx, c.ID, actorID)
}

// DeleteThread tombstones every live comment in a thread. Requires admin.
func (s *Service) DeleteThread(ctx context.Context, actorID, teamID, threadID string) (int64, error) {
	m, err := s.teams.RequireAdmin(ctx, teamID, actorID)
	if err != nil {
		return 0, err
	}
	return s.store.TombstoneThread(ctx, teamID, threadID, m.MemberID)
}

// DeleteByTeam tombstones every live comment in a team. Requires admin.
func (s *Service) DeleteByTeam(ctx context.Context, actorID, teamID string) (int64, error) {
	m, err := s.teams.RequireAdmin(ctx, teamID, actorID)
	if err != nil {
		return 0, err
	}
	return s.store.TombstoneByTeam(ctx, teamID, m.MemberID)
}

func (s *Service) requireOwned(ctx context.Context, actorID, commentID string) (*Comment, error) {
	c, err := s.store.Find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actorID {
		return nil, ErrNotOwner
	}
	return c, nil
}
