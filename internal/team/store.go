package team

import "context"

// TeamStore persists teams. All reads exclude tombstoned rows.
type TeamStore interface {
	// Create inserts the team and its creator membership in one atomic unit,
	// so there is never a team without exactly one creator.
	Create(ctx context.Context, t *Team, creator *Membership) error
	Find(ctx context.Context, id string) (*Team, error)
	ListByMember(ctx context.Context, memberID string) ([]*Team, error)
	Rename(ctx context.Context, id, name string) (*Team, error)
	Tombstone(ctx context.Context, id, deletedBy string) error
}

// MembershipStore persists team memberships. Find only returns live
// memberships of live teams: a tombstoned membership or team must never
// authorize anything.
type MembershipStore interface {
	Create(ctx context.Context, m *Membership) error
	Find(ctx context.Context, teamID, memberID string) (*Membership, error)
	ListMembers(ctx context.Context, teamID string) ([]Member, error)
	UpdateRole(ctx context.Context, teamID, memberID string, role Role) (*Membership, error)
	Tombstone(ctx context.Context, teamID, memberID, deletedBy string) error
}
