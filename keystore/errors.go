package keystore

import "errors"

var (
	// ErrKeyNotFound is returned when no key material is stored for an
	// actor.
	ErrKeyNotFound = errors.New("keystore: key not found")

	// ErrInvalidLayout is returned for an unknown file layout.
	ErrInvalidLayout = errors.New("keystore: invalid file layout")

	// ErrInvalidName is returned when an actor name cannot be mapped to a
	// storage location.
	ErrInvalidName = errors.New("keystore: invalid actor name")

	// ErrNotWritable is returned by Cached.Put when the wrapped store is
	// read-only.
	ErrNotWritable = errors.New("keystore: store does not accept writes")
)
