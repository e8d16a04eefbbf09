// Package webfinger resolves acct: handles to actor ids (RFC 7033).
package webfinger

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitalvas/apkit/actor"
)

// Link relation and media type of the actor link.
const (
	RelSelf      = "self"
	MediaTypeJRD = "application/jrd+json"
	MediaTypeAP  = "application/activity+json"
)

const acctScheme = "acct"

// Result is a JSON Resource Descriptor with the actor link.
type Result struct {
	Subject string `json:"subject"`
	Links   []Link `json:"links"`
}

// Link is one entry of Result.Links.
type Link struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

// ActorURL returns the href of the self link with the ActivityPub media
// type.
func (r *Result) ActorURL() (string, bool) {
	for _, l := range r.Links {
		if l.Rel == RelSelf && l.Type == MediaTypeAP {
			return l.Href, true
		}
	}

	return "", false
}

// ActorLookup maps a local name to an actor identity.
type ActorLookup interface {
	Lookup(ctx context.Context, name string) (actor.Identity, error)
}

// Resolver answers WebFinger queries for one canonical domain.
type Resolver struct {
	domain string
	actors ActorLookup
}

// NewResolver returns a Resolver for domain.
func NewResolver(domain string, actors ActorLookup) *Resolver {
	return &Resolver{domain: domain, actors: actors}
}

// ParseResource splits an acct:user@domain resource. The prefix is split
// off at the first ':' and the user at the first '@', so the domain keeps
// any further '@'.
func ParseResource(resource string) (user, domain string, err error) {
	scheme, rest, ok := strings.Cut(resource, ":")
	if !ok || scheme != acctScheme {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidResource, resource)
	}

	user, domain, ok = strings.Cut(rest, "@")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidResource, resource)
	}

	return user, domain, nil
}

// Resolve resolves resource to a Result whose single link points at the
// actor id. The domain must match exactly.
func (r *Resolver) Resolve(ctx context.Context, resource string) (*Result, error) {
	user, domain, err := ParseResource(resource)
	if err != nil {
		return nil, err
	}

	if domain != r.domain {
		return nil, fmt.Errorf("%w: %q", ErrWrongDomain, domain)
	}

	id, err := r.actors.Lookup(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return &Result{
		Subject: resource,
		Links: []Link{{
			Rel:  RelSelf,
			Type: MediaTypeAP,
			Href: id.ID,
		}},
	}, nil
}
