package federation

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/containerd/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vitalvas/apkit/httpsig"
	"golang.org/x/sync/singleflight"
)

// defaultRefreshInterval is the minimum time between two fetches of one key
// id triggered by Refresh.
const defaultRefreshInterval = time.Minute

// KeyFetcher resolves remote key ids to public keys by fetching the
// document the key id points at. Results are cached.
type KeyFetcher struct {
	client          *http.Client
	userAgent       string
	refreshInterval time.Duration
	allowPrivate    bool
	cache           *expirable.LRU[string, fetchedKey]
	group           singleflight.Group
}

// fetchedKey is a cached key and the time it was last fetched.
type fetchedKey struct {
	key *rsa.PublicKey
	at  time.Time
}

// KeyFetcherOptions configures a KeyFetcher.
type KeyFetcherOptions struct {
	// Client performs the requests. Defaults to a client that refuses to
	// connect to loopback, private and link-local addresses.
	Client *http.Client

	// Timeout bounds each request made by the default client.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// CacheSize bounds the number of cached keys; zero means unlimited.
	CacheSize int

	// CacheTTL is how long a key is cached; zero means forever.
	CacheTTL time.Duration

	// RefreshInterval is the minimum time between Refresh fetches of one
	// key id. Defaults to one minute.
	RefreshInterval time.Duration

	// AllowPrivateAddresses permits key ids on loopback, private and
	// link-local hosts. Meant for local development.
	AllowPrivateAddresses bool
}

// NewKeyFetcher returns a KeyFetcher.
func NewKeyFetcher(opts KeyFetcherOptions) *KeyFetcher {
	client := opts.Client
	switch {
	case client != nil:
	case opts.AllowPrivateAddresses:
		client = &http.Client{Timeout: opts.Timeout}
	default:
		client = newGuardedClient(opts.Timeout)
	}

	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	return &KeyFetcher{
		client:          client,
		userAgent:       opts.UserAgent,
		refreshInterval: interval,
		allowPrivate:    opts.AllowPrivateAddresses,
		cache:           expirable.NewLRU[string, fetchedKey](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// remoteKeyDocument is the part of an actor or key document holding the
// key.
type remoteKeyDocument struct {
	ID        string `json:"id"`
	PublicKey struct {
		ID           string `json:"id"`
		Owner        string `json:"owner"`
		PublicKeyPEM string `json:"publicKeyPem"`
	} `json:"publicKey"`
}

// Fetch returns the public key identified by keyID. It matches the
// httpsig.KeyResolver signature.
func (f *KeyFetcher) Fetch(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	if cached, ok := f.cache.Get(keyID); ok {
		return cached.key, nil
	}

	return f.load(ctx, keyID)
}

// Refresh refetches keyID, e.g. after a signature did not verify against
// the cached key because the remote actor rotated it. A key fetched less
// than the refresh interval ago is not fetched again and ErrRefreshLimited
// is returned. It matches the httpsig.KeyResolver signature.
func (f *KeyFetcher) Refresh(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	if cached, ok := f.cache.Peek(keyID); ok && time.Since(cached.at) < f.refreshInterval {
		return nil, fmt.Errorf("%w: %s", ErrRefreshLimited, keyID)
	}

	return f.load(ctx, keyID)
}

// load fetches keyID once for all concurrent callers. A failed fetch keeps
// the previously cached key and counts as a fetch for rate limiting.
func (f *KeyFetcher) load(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	ch := f.group.DoChan(keyID, func() (any, error) {
		key, err := f.fetch(context.WithoutCancel(ctx), keyID)
		if err != nil {
			if stale, ok := f.cache.Peek(keyID); ok {
				f.cache.Add(keyID, fetchedKey{key: stale.key, at: time.Now()})
			}

			return nil, err
		}

		f.cache.Add(keyID, fetchedKey{key: key, at: time.Now()})

		return key, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*rsa.PublicKey), nil
	}
}

func (f *KeyFetcher) fetch(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	u, err := url.Parse(keyID)
	if err != nil || !isHTTPURL(keyID) || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyID, keyID)
	}

	if !f.allowPrivate {
		if err := checkHost(u.Hostname()); err != nil {
			return nil, err
		}
	}

	u.Fragment = ""

	var doc remoteKeyDocument
	if err := getJSON(ctx, f.client, f.userAgent, u.String(), acceptActivity, &doc); err != nil {
		return nil, err
	}

	if doc.PublicKey.ID != keyID {
		return nil, fmt.Errorf("%w: document at %s carries %q", ErrKeyMismatch, u, doc.PublicKey.ID)
	}

	// An actor document must own the key it publishes.
	if doc.ID == u.String() && doc.PublicKey.Owner != doc.ID {
		return nil, fmt.Errorf("%w: key owner %q is not %q", ErrKeyMismatch, doc.PublicKey.Owner, doc.ID)
	}

	key, err := httpsig.ParsePublicKey(doc.PublicKey.PublicKeyPEM)
	if err != nil {
		return nil, err
	}

	log.G(ctx).WithField("key_id", keyID).Debug("fetched remote key")

	return key, nil
}
