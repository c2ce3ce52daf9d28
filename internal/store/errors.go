package store

import "github.com/pkg/errors"

var (
	// ErrUserNotFound means a username has no row in the users table.
	ErrUserNotFound = errors.New("user not found")

	// ErrContactNotFound means no contact with the given id exists for the
	// given owner. A contact owned by somebody else yields the same error.
	ErrContactNotFound = errors.New("contact not found")

	// ErrUsernameTaken means an insert collided with the unique username key.
	ErrUsernameTaken = errors.New("username already taken")
)
