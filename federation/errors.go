package federation

import "errors"

var (
	// ErrInvalidKeyID is returned for key ids that are not http(s) URLs.
	ErrInvalidKeyID = errors.New("federation: invalid key id")

	// ErrForbiddenAddress is returned when a key id points at a loopback,
	// private or link-local address.
	ErrForbiddenAddress = errors.New("federation: forbidden address")

	// ErrRefreshLimited is returned by KeyFetcher.Refresh when the key was
	// fetched too recently.
	ErrRefreshLimited = errors.New("federation: key refresh rate limited")

	// ErrKeyMismatch is returned when a fetched document does not carry
	// the requested key.
	ErrKeyMismatch = errors.New("federation: key id mismatch")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("federation: unexpected response status")

	// ErrInvalidHandle is returned when a handle cannot be parsed.
	ErrInvalidHandle = errors.New("federation: invalid handle")

	// ErrNoActorLink is returned when a WebFinger response has no
	// ActivityPub self link.
	ErrNoActorLink = errors.New("federation: no actor link")
)
