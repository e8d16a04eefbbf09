// Package actor resolves local actor names to identities, actor documents
// and key material.
package actor

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vitalvas/apkit/httpsig"
	"github.com/vitalvas/apkit/keystore"
)

// Options configures a Resolver.
type Options struct {
	// BaseURL is the absolute URL all actor URLs are derived from, e.g.
	// "https://example.com". A trailing slash is removed.
	BaseURL string

	// Keys supplies the key material of local actors. Required.
	Keys keystore.Store

	// Strict makes names without stored keys resolve to ErrNotFound. When
	// false every well-formed name is an actor.
	Strict bool

	// Type is the actor type of documents. Defaults to TypePerson.
	Type string
}

// Resolver maps local actor names to identities and documents. It holds
// no mutable state and is safe for concurrent use.
type Resolver struct {
	base      string
	keys      keystore.Store
	strict    bool
	actorType string
}

// NewResolver validates opts and returns a Resolver.
func NewResolver(opts Options) (*Resolver, error) {
	base := strings.TrimRight(opts.BaseURL, "/")

	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q is not absolute", ErrInvalidOptions, opts.BaseURL)
	}

	if opts.Keys == nil {
		return nil, fmt.Errorf("%w: key store is required", ErrInvalidOptions)
	}

	actorType := opts.Type
	if actorType == "" {
		actorType = TypePerson
	}

	return &Resolver{
		base:      base,
		keys:      opts.Keys,
		strict:    opts.Strict,
		actorType: actorType,
	}, nil
}

// BaseURL returns the normalized base URL.
func (r *Resolver) BaseURL() string {
	return r.base
}

// Lookup returns the identity of name. In strict mode the name must have
// stored keys.
func (r *Resolver) Lookup(ctx context.Context, name string) (Identity, error) {
	if err := ValidateName(name); err != nil {
		return Identity{}, err
	}

	if r.strict {
		if _, err := r.keys.LoadPublicKeyPEM(ctx, name); err != nil {
			if errors.Is(err, keystore.ErrKeyNotFound) {
				return Identity{}, fmt.Errorf("%w: %s", ErrNotFound, name)
			}

			return Identity{}, err
		}
	}

	return Derive(r.base, name), nil
}

// Resolve returns the actor document of name.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Document, error) {
	id, err := r.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	pem, err := r.PublicKeyPEM(ctx, name)
	if err != nil {
		return nil, err
	}

	return newDocument(id, r.actorType, pem), nil
}

// PublicKeyPEM returns the stored public key of name.
func (r *Resolver) PublicKeyPEM(ctx context.Context, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	pem, err := r.keys.LoadPublicKeyPEM(ctx, name)
	if err != nil {
		return "", fmt.Errorf("load public key of %s: %w", name, err)
	}

	return pem, nil
}

// PrivateKeyPEM returns the stored private key of name.
func (r *Resolver) PrivateKeyPEM(ctx context.Context, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	pem, err := r.keys.LoadPrivateKeyPEM(ctx, name)
	if err != nil {
		return "", fmt.Errorf("load private key of %s: %w", name, err)
	}

	return pem, nil
}

// PublicKey returns the parsed public key of name.
func (r *Resolver) PublicKey(ctx context.Context, name string) (*rsa.PublicKey, error) {
	pem, err := r.PublicKeyPEM(ctx, name)
	if err != nil {
		return nil, err
	}

	return httpsig.ParsePublicKey(pem)
}

// Signer returns an httpsig.Signer for name using its private key and key
// id.
func (r *Resolver) Signer(ctx context.Context, name string) (httpsig.Signer, error) {
	id, err := r.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	pem, err := r.PrivateKeyPEM(ctx, name)
	if err != nil {
		return nil, err
	}

	key, err := httpsig.ParsePrivateKey(pem)
	if err != nil {
		return nil, err
	}

	return httpsig.NewRSASigner(id.KeyID, key)
}

// IsLocalKeyID reports whether keyID belongs to an actor of this server.
func (r *Resolver) IsLocalKeyID(keyID string) bool {
	_, ok := NameFromKeyID(r.base, keyID)

	return ok
}

// LocalKey returns the public key behind a local key id. It fails with
// ErrNotFound for key ids of other servers.
func (r *Resolver) LocalKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	name, ok := NameFromKeyID(r.base, keyID)
	if !ok {
		return nil, fmt.Errorf("%w: key id %q is not local", ErrNotFound, keyID)
	}

	if _, err := r.Lookup(ctx, name); err != nil {
		return nil, err
	}

	return r.PublicKey(ctx, name)
}
