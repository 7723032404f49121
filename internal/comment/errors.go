package comment

import "errors"

var (
	ErrNotFound     = errors.New("comment: not found")
	ErrInvalidInput = errors.New("comment: invalid input")

	// ErrNotOwner gates comment mutation on authorship, independent of team
	// role.
	ErrNotOwner = errors.New("comment: only the author may modify a comment")
)
