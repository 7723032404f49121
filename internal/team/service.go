package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crewbase.org/internal/identity"
	"crewbase.org/internal/ids"
)

// Service owns team and membership operations plus the role gates handlers
// compose explicitly. It holds no mutable state; conflicting concurrent
// writes serialize at the store's uniqueness constraints.
type Service struct {
	teams   TeamStore
	members MembershipStore
	users   identity.UserStore
}

// NewService constructs the team service.
func NewService(teams TeamStore, members MembershipStore, users identity.UserStore) (*Service, error) {
	if teams == nil || members == nil || users == nil {
		return nil, errors.New("team, membership and user stores are required")
	}
	return &Service{teams: teams, members: members, users: users}, nil
}

// Create makes a team and atomically installs the creator membership.
func (s *Service) Create(ctx context.Context, creatorID, name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	t := &Team{
		ID:        ids.New(),
		CreatorID: creatorID,
		Name:      name,
	}
	creator := &Membership{
		ID:       ids.New(),
		TeamID:   t.ID,
		MemberID: creatorID,
		Role:     RoleCreator,
	}
	if err := s.teams.Create(ctx, t, creator); err != nil {
		return nil, err
	}
	return t, nil
}

// MyTeams lists the live teams the user holds a live membership in.
func (s *Service) MyTeams(ctx context.Context, memberID string) ([]*Team, error) {
	return s.teams.ListByMember(ctx, memberID)
}

// Rename updates a team's name. Requires admin.
func (s *Service) Rename(ctx context.Context, actorID, teamID, name string) (*Team, error) {
	if _, err := s.RequireAdmin(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	return s.teams.Rename(ctx, teamID, name)
}

// Delete tombstones the team. Requires creator; the deleting actor is
// recorded on the tombstone.
func (s *Service) Delete(ctx context.Context, actorID, teamID string) error {
	m, err := s.RequireCreator(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	return s.teams.Tombstone(ctx, teamID, m.MemberID)
}

// AddMember enrolls the user with the given email as a plain member.
// Requires admin. Concurrent adds for the same user race on the store's
// uniqueness constraint; the loser sees ErrDuplicateMember.
func (s *Service) AddMember(ctx context.Context, actorID, teamID, email string) (*Membership, error) {
	if _, err := s.RequireAdmin(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user with that email", ErrNotFound)
		}
		return nil, err
	}
	m := &Membership{
		ID:       ids.New(),
		TeamID:   teamID,
		MemberID: user.ID,
		Role:     RoleMember,
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMembers returns the live members of the team joined with their profile
// fields. Requires membership.
func (s *Service) ListMembers(ctx context.Context, actorID, teamID string) ([]Member, error) {
	if _, err := s.RequireMember(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, teamID)
}

// UpdateMemberRole changes a member's role to admin or member. Requires
// admin. A creator's role is immutable: no call may change it, whatever the
// requested target.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, teamID, memberID string, role Role) (*Membership, error) {
	if _, err := s.RequireAdmin(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	if role != RoleAdmin && role != RoleMember {
		return nil, fmt.Errorf("%w: role must be admin or member", ErrInvalidInput)
	}
	current, err := s.members.Find(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}
	if current.Role == RoleCreator {
		return nil, fmt.Errorf("%w: cannot change creator role", ErrForbidden)
	}
	return s.members.UpdateRole(ctx, teamID, memberID, role)
}

// RemoveMember tombstones the membership, preserving who removed whom for
// audit. Requires admin. The creator membership cannot be removed; the team
// would lose its one immutable creator.
func (s *Service) RemoveMember(ctx context.Context, actorID, teamID, memberID string) error {
	actor, err := s.RequireAdmin(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	current, err := s.members.Find(ctx, teamID, memberID)
	if err != nil {
		return err
	}
	if current.Role == RoleCreator {
		return fmt.Errorf("%w: cannot remove the team creator", ErrForbidden)
	}
	return s.members.Tombstone(ctx, teamID, memberID, actor.MemberID)
}

// RequireRole resolves the actor's live membership in a live team and checks
// it against the minimum role. Absent or tombstoned memberships fail exactly
// like insufficient ones.
func (s *Service) RequireRole(ctx context.Context, teamID, principalID string, min Role) (*Membership, error) {
	m, err := s.members.Find(ctx, teamID, principalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errRequiresRole(min)
		}
		return nil, err
	}
	if !m.Role.AtLeast(min) {
		return nil, errRequiresRole(min)
	}
	return m, nil
}

// RequireMember gates on any live membership.
func (s *Service) RequireMember(ctx context.Context, teamID, principalID string) (*Membership, error) {
	return s.RequireRole(ctx, teamID, principalID, RoleMember)
}

// RequireAdmin gates on admin-or-above.
func (s *Service) RequireAdmin(ctx context.Context, teamID, principalID string) (*Membership, error) {
	return s.RequireRole(ctx, teamID, principalID, RoleAdmin)
}

// RequireCreator gates on the creator alone.
func (s *Service) RequireCreator(ctx context.Context, teamID, principalID string) (*Membership, error) {
	return s.RequireRole(ctx, teamID, principalID, RoleCreator)
}
