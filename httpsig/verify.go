package httpsig

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// KeyResolver returns the RSA public key identified by keyID. It is
// called during request verification after the envelope has been parsed.
type KeyResolver func(ctx context.Context, keyID string) (*rsa.PublicKey, error)

// defaultRequiredComponents must be covered by every verified request.
// ComponentDigest is added when the request has a body.
var defaultRequiredComponents = []string{ComponentRequestTarget, ComponentHost, ComponentDate}

// VerifyConfig configures request signature verification.
type VerifyConfig struct {
	// Resolver looks up the public key for a keyId. Required.
	Resolver KeyResolver

	// Refresh is called at most once, when the signature does not verify
	// against the key returned by Resolver. A different key returned by
	// Refresh is tried before the request is rejected. Errors from Refresh
	// are not reported; the original mismatch is.
	Refresh KeyResolver

	// RequiredComponents lists components that must be covered by the
	// signature. Defaults to (request-target) host date. The digest
	// component is always required when the request has a body.
	RequiredComponents []string

	// MaxSkew is the maximum distance between the Date header and the
	// current time. When zero, the Date header is not checked.
	MaxSkew time.Duration

	// Now returns the current time for the skew check. Defaults to
	// time.Now.
	Now func() time.Time
}

// VerifyRequest verifies the signature of r and returns the parsed
// envelope on success.
//
// Cryptographic mismatches, including a body that does not match its
// Digest header and a keyId the resolver cannot serve, all satisfy
// errors.Is(err, ErrVerificationFailed).
func VerifyRequest(r *http.Request, cfg VerifyConfig) (*Envelope, error) {
	if cfg.Resolver == nil {
		return nil, ErrNoResolver
	}

	raw, ok := envelopeHeader(r)
	if !ok {
		return nil, ErrSignatureNotFound
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	if !env.Algorithm.supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, env.Algorithm)
	}

	body, err := readAndRestoreBody(r)
	if err != nil {
		return nil, err
	}

	required := cfg.RequiredComponents
	if len(required) == 0 {
		required = defaultRequiredComponents
	}

	if len(body) > 0 {
		required = append(lowerAll(required), ComponentDigest)
	}

	for _, id := range required {
		if !env.Covers(id) {
			return nil, fmt.Errorf("%w: %s", ErrUncoveredComponent, id)
		}
	}

	if env.Covers(ComponentDigest) {
		if err := VerifyDigest(r); err != nil {
			if errors.Is(err, ErrDigestMismatch) {
				return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
			}

			return nil, err
		}
	}

	if cfg.MaxSkew > 0 {
		if err := checkDate(r, cfg); err != nil {
			return nil, err
		}
	}

	signingString, err := SigningStringForRequest(r, env.Headers)
	if err != nil {
		return nil, err
	}

	key, err := cfg.Resolver(r.Context(), env.KeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve key %q: %w", ErrVerificationFailed, env.KeyID, err)
	}

	err = Verify(key, env.Signature, signingString)
	if errors.Is(err, ErrVerificationFailed) && cfg.Refresh != nil {
		if fresh, rerr := cfg.Refresh(r.Context(), env.KeyID); rerr == nil && fresh != nil && !fresh.Equal(key) {
			err = Verify(fresh, env.Signature, signingString)
		}
	}

	if err != nil {
		return nil, err
	}

	return env, nil
}

// checkDate rejects requests whose Date header is missing, unparsable or
// further than cfg.MaxSkew from the current time in either direction.
func checkDate(r *http.Request, cfg VerifyConfig) error {
	header := r.Header.Get(DateHeader)
	if header == "" {
		return fmt.Errorf("%w: %s", ErrMissingComponent, ComponentDate)
	}

	date, err := http.ParseTime(header)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", ErrMalformedHeader, header)
	}

	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	skew := now().Sub(date)
	if skew < 0 {
		skew = -skew
	}

	if skew > cfg.MaxSkew {
		return ErrDateSkew
	}

	return nil
}
