// Package federation talks to remote servers: it fetches remote actor
// keys, looks up remote handles and delivers signed activities.
package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/containerd/log"
	"github.com/vitalvas/apkit/actor"
	"github.com/vitalvas/apkit/httpsig"
	"github.com/vitalvas/apkit/webfinger"
)

// SignerSource returns the request signer of a local actor.
type SignerSource interface {
	Signer(ctx context.Context, name string) (httpsig.Signer, error)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Signers supplies the keys of local actors. Required for Deliver.
	Signers SignerSource

	// Transport is the base transport. Nil means a clone of
	// http.DefaultTransport.
	Transport *http.Transport

	// Timeout bounds every request. Zero means no timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Scheme is used for WebFinger lookups. Defaults to "https".
	Scheme string
}

// Client performs outbound federation requests.
type Client struct {
	signers   SignerSource
	transport *http.Transport
	timeout   time.Duration
	userAgent string
	scheme    string
	plain     *http.Client
}

// NewClient returns a Client.
func NewClient(opts ClientOptions) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	scheme := opts.Scheme
	if scheme == "" {
		scheme = "https"
	}

	return &Client{
		signers:   opts.Signers,
		transport: transport,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		scheme:    scheme,
		plain:     &http.Client{Transport: transport, Timeout: opts.Timeout},
	}
}

// HTTPClient returns the unsigned client used for lookups.
func (c *Client) HTTPClient() *http.Client {
	return c.plain
}

// SigningClient returns an http.Client signing every request as the local
// actor name.
func (c *Client) SigningClient(ctx context.Context, name string) (*http.Client, error) {
	if c.signers == nil {
		return nil, httpsig.ErrNoSigner
	}

	signer, err := c.signers.Signer(ctx, name)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: httpsig.NewTransport(c.transport, httpsig.SignConfig{Signer: signer}),
		Timeout:   c.timeout,
	}, nil
}

// Deliver POSTs activity to inboxURL signed by the local actor name. It
// makes exactly one attempt and fails for any non-2xx response.
func (c *Client) Deliver(ctx context.Context, name, inboxURL string, activity any) error {
	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	client, err := c.SigningClient(ctx, name)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inboxURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", webfinger.MediaTypeAP)
	req.Header.Set("Accept", acceptActivity)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", inboxURL, err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))

	logger := log.G(ctx).WithFields(log.Fields{
		"actor":  name,
		"inbox":  inboxURL,
		"status": resp.StatusCode,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("delivery rejected")
		return fmt.Errorf("%w: deliver to %s: %d", ErrUnexpectedStatus, inboxURL, resp.StatusCode)
	}

	logger.Info("delivered activity")

	return nil
}

// RemoteActor is the part of a remote actor document used for
// federation. Unlike actor.Document it tolerates any @context.
type RemoteActor struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	PreferredUsername string          `json:"preferredUsername"`
	Name              string          `json:"name"`
	Inbox             string          `json:"inbox"`
	Outbox            string          `json:"outbox"`
	Endpoints         actor.Endpoints `json:"endpoints"`
	PublicKey         actor.PublicKey `json:"publicKey"`
}

// DeliveryInbox returns the shared inbox when the actor has one, else its
// own inbox.
func (a *RemoteActor) DeliveryInbox() string {
	if a.Endpoints.SharedInbox != "" {
		return a.Endpoints.SharedInbox
	}

	return a.Inbox
}

// Lookup resolves a remote handle to its actor document. The handle may
// be given as acct:user@domain, user@domain or @user@domain.
func (c *Client) Lookup(ctx context.Context, handle string) (*RemoteActor, error) {
	resource := normalizeHandle(handle)

	_, domain, err := webfinger.ParseResource(resource)
	if err != nil || domain == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}

	query := url.Values{"resource": {resource}}
	target := c.scheme + "://" + domain + webfinger.Path + "?" + query.Encode()

	var jrd webfinger.Result
	if err := getJSON(ctx, c.plain, c.userAgent, target, webfinger.MediaTypeJRD, &jrd); err != nil {
		return nil, err
	}

	actorURL, ok := jrd.ActorURL()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActorLink, resource)
	}

	if !isHTTPURL(actorURL) {
		return nil, fmt.Errorf("%w: %q", ErrNoActorLink, actorURL)
	}

	var doc RemoteActor
	if err := getJSON(ctx, c.plain, c.userAgent, actorURL, acceptActivity, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

func normalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)

	if strings.HasPrefix(handle, "acct:") {
		return handle
	}

	return "acct:" + strings.TrimPrefix(handle, "@")
}
