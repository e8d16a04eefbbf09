package webfinger

import "errors"

var (
	// ErrInvalidResource is returned when the resource is not of the form
	// acct:user@domain.
	ErrInvalidResource = errors.New("webfinger: invalid resource")

	// ErrWrongDomain is returned when the resource names another domain.
	ErrWrongDomain = errors.New("webfinger: wrong domain")

	// ErrNotFound is returned when the user part does not resolve to an
	// actor.
	ErrNotFound = errors.New("webfinger: not found")
)
