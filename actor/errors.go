package actor

import "errors"

var (
	// ErrNotFound is returned when a name does not belong to a local actor.
	ErrNotFound = errors.New("actor: not found")

	// ErrInvalidName is returned for names that cannot be part of an actor
	// URL.
	ErrInvalidName = errors.New("actor: invalid name")

	// ErrInvalidOptions is returned by NewResolver for unusable options.
	ErrInvalidOptions = errors.New("actor: invalid options")
)
