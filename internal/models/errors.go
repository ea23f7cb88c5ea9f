package models

import "errors"

var (
	// ErrPreferencesNotFound is returned when a user has no preference record.
	ErrPreferencesNotFound = errors.New("preferences not found")

	// ErrDuplicateMatch is returned when a match with the same
	// (user, movie, showtime) identity already exists.
	ErrDuplicateMatch = errors.New("match already exists")

	// ErrContactNotFound is returned when a user has no email address on file.
	ErrContactNotFound = errors.New("user contact not found")

	// ErrInvalidRecipient is returned when a transport rejects one
	// recipient while staying healthy for everyone else.
	ErrInvalidRecipient = errors.New("invalid recipient")
)
