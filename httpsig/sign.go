package httpsig

import (
	"net/http"
	"slices"
	"strings"
	"time"
)

// DateHeader is the header carrying the message date.
const DateHeader = "Date"

// FormatDate renders t as an HTTP date with the literal GMT zone, e.g.
// "Mon, 14 Nov 2022 03:08:11 GMT".
func FormatDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// SignConfig configures request signing.
type SignConfig struct {
	// Signer produces signatures. Required.
	Signer Signer

	// Components lists the covered components in signing order. Defaults
	// to DefaultComponents: (request-target) host date digest.
	Components []string

	// Now returns the time used for the Date header when the request has
	// none. Defaults to time.Now.
	Now func() time.Time
}

// SignRequest signs r in place and sets the Signature header.
//
// Before building the signing string it fills in what the covered
// components need: Request.Host from the URL when unset, a Date header
// when absent, and a Digest header computed from the body.
func SignRequest(r *http.Request, cfg SignConfig) error {
	if cfg.Signer == nil {
		return ErrNoSigner
	}

	components := cfg.Components
	if len(components) == 0 {
		components = DefaultComponents
	}

	components = lowerAll(components)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	if r.Host == "" && r.URL != nil {
		r.Host = r.URL.Host
	}

	if slices.Contains(components, ComponentDate) && r.Header.Get(DateHeader) == "" {
		r.Header.Set(DateHeader, FormatDate(now()))
	}

	if slices.Contains(components, ComponentDigest) {
		if err := SetDigest(r); err != nil {
			return err
		}
	}

	signingString, err := SigningStringForRequest(r, components)
	if err != nil {
		return err
	}

	sig, err := cfg.Signer.Sign(signingString)
	if err != nil {
		return err
	}

	env := Envelope{
		KeyID:     cfg.Signer.KeyID(),
		Algorithm: cfg.Signer.Algorithm(),
		Headers:   components,
		Signature: sig,
	}

	r.Header.Set(SignatureHeader, env.String())

	return nil
}

func lowerAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.ToLower(id)
	}

	return out
}
