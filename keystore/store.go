// Package keystore loads PEM-encoded actor key material.
//
// Stores return the PEM text unchanged; parsing is left to the caller so
// that either PKCS#1 or PKCS#8 documents can be stored. Repeated loads are
// idempotent. Cached adds an expiring in-memory layer in front of any
// Store without changing its results.
package keystore

import "context"

// Store loads the key material of local actors.
type Store interface {
	// LoadPublicKeyPEM returns the public key of the actor as PEM.
	LoadPublicKeyPEM(ctx context.Context, name string) (string, error)

	// LoadPrivateKeyPEM returns the private key of the actor as PEM.
	LoadPrivateKeyPEM(ctx context.Context, name string) (string, error)
}

// Writer is implemented by stores that accept new key material.
type Writer interface {
	Put(ctx context.Context, name, publicPEM, privatePEM string) error
}

// Kind names one half of a key pair.
type Kind string

const (
	KindPublic  Kind = "public"
	KindPrivate Kind = "private"
)

func load(ctx context.Context, s Store, kind Kind, name string) (string, error) {
	if kind == KindPrivate {
		return s.LoadPrivateKeyPEM(ctx, name)
	}

	return s.LoadPublicKeyPEM(ctx, name)
}
