package team

import (
	"fmt"
	"strings"
)

// Role is a team-scoped privilege tag.
type Role string

const (
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
)

// roleRanks is the explicit privilege order: lower rank means more privilege.
// Kept as a literal table rather than anything derived from declaration order
// so the hierarchy survives refactors and is visible to a reader.
var roleRanks = map[Role]int{
	RoleCreator: 0,
	RoleAdmin:   1,
	RoleMember:  2,
}

// ParseRole validates a wire-level role tag.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Rank returns the role's position in the hierarchy. Unknown roles rank below
// everything.
func (r Role) Rank() (int, bool) {
	rank, ok := roleRanks[r]
	return rank, ok
}

// AtLeast reports whether r carries at least the privilege of required.
// Comparisons involving an unknown role are always false.
func (r Role) AtLeast(required Role) bool {
	actual, ok := roleRanks[r]
	if !ok {
		return false
	}
	min, ok := roleRanks[required]
	if !ok {
		return false
	}
	return actual <= min
}
