package team

import (
	"time"

	"crewbase.org/internal/softdelete"
)

// Team is a tenant boundary. Deletion tombstones the row; reads exclude
// tombstoned teams.
type Team struct {
	ID          string     `json:"id"`
	CreatorID   string     `json:"creator_id"`
	Name        string     `json:"name"`
	TimeCreated time.Time  `json:"time_created"`
	TimeUpdated *time.Time `json:"time_updated,omitempty"`

	softdelete.Tombstone
}

// Membership binds a user to a team with a role. Unique per (team, member);
// exactly one creator per team, assigned atomically at team creation and
// immutable thereafter.
type Membership struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	MemberID    string     `json:"member_id"`
	Role        Role       `json:"role"`
	TimeCreated time.Time  `json:"time_created"`
	TimeUpdated *time.Time `json:"time_updated,omitempty"`

	softdelete.Tombstone
}

// Member is the listing projection of a live membership joined with the
// user's profile fields.
type Member struct {
	MemberID string `json:"member_id"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}
