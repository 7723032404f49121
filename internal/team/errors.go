package team

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("team: not found")
	ErrInvalidInput = errors.New("team: invalid input")

	// ErrForbidden covers every role and ownership gate failure.
	ErrForbidden = errors.New("team: forbidden")

	// ErrDuplicateMember surfaces the store's uniqueness constraint on
	// (team_id, member_id); concurrent add-member losers must see this, not a
	// generic error.
	ErrDuplicateMember = errors.New("team: user is already a member of this team")

	// ErrNameTaken is raised when a creator already owns a live team with the
	// same case-insensitive name.
	ErrNameTaken = errors.New("team: name already exists")
)

func errRequiresRole(role Role) error {
	return fmt.Errorf("%w: action requires %s role", ErrForbidden, role)
}
