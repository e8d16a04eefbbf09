package httpsig

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// SignatureHeader is the header carrying the signature envelope.
const SignatureHeader = "Signature"

// authorizationScheme prefixes the envelope when it is sent in the
// Authorization header instead of the Signature header.
const authorizationScheme = "Signature "

// Envelope is the parsed value of a Signature header.
type Envelope struct {
	// KeyID is the URL of the signer's public key, usually
	// "<actor-id>#main-key".
	KeyID string

	// Algorithm is the optional algorithm parameter.
	Algorithm Algorithm

	// Headers lists the covered components in signing-string order.
	Headers []string

	// Signature is the base64-encoded signature.
	Signature string
}

// ParseEnvelope parses a Signature header value. Parameters are
// key="value" pairs separated by commas and may appear in any order;
// unknown parameters are ignored. keyId and signature are required. When
// headers is absent it defaults to "date".
func ParseEnvelope(header string) (*Envelope, error) {
	env := &Envelope{}
	seen := make(map[string]bool, 4)

	for _, part := range splitQuoteAware(header, ',') {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q has no value", ErrMalformedHeader, part)
		}

		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrMalformedHeader, key)
		}
		seen[key] = true

		switch key {
		case "keyId":
			env.KeyID = value

		case "algorithm":
			env.Algorithm = Algorithm(strings.ToLower(value))

		case "headers":
			headers := strings.Fields(value)
			for i, h := range headers {
				id, err := normalizeComponent(h)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
				}

				headers[i] = id
			}

			env.Headers = headers

		case "signature":
			env.Signature = value
		}
	}

	if env.KeyID == "" {
		return nil, fmt.Errorf("%w: missing keyId parameter", ErrMalformedHeader)
	}

	if env.Signature == "" {
		return nil, fmt.Errorf("%w: missing signature parameter", ErrMalformedHeader)
	}

	if !seen["headers"] {
		env.Headers = []string{ComponentDate}
	}

	if len(env.Headers) == 0 {
		return nil, fmt.Errorf("%w: empty headers parameter", ErrMalformedHeader)
	}

	return env, nil
}

// String renders the envelope as a Signature header value with the
// parameters in keyId, algorithm, headers, signature order.
func (e *Envelope) String() string {
	var b strings.Builder

	b.WriteString("keyId=")
	b.WriteString(quote(e.KeyID))

	if e.Algorithm != "" {
		b.WriteString(",algorithm=")
		b.WriteString(quote(e.Algorithm.String()))
	}

	b.WriteString(",headers=")
	b.WriteString(quote(strings.Join(e.Headers, " ")))
	b.WriteString(",signature=")
	b.WriteString(quote(e.Signature))

	return b.String()
}

// Covers reports whether the envelope lists the component id.
func (e *Envelope) Covers(id string) bool {
	return slices.Contains(e.Headers, strings.ToLower(id))
}

// envelopeHeader returns the raw envelope from the Signature header or,
// failing that, from an Authorization header using the Signature scheme.
func envelopeHeader(r *http.Request) (string, bool) {
	if v := r.Header.Get(SignatureHeader); v != "" {
		return v, true
	}

	auth := r.Header.Get("Authorization")
	if len(auth) > len(authorizationScheme) && strings.EqualFold(auth[:len(authorizationScheme)], authorizationScheme) {
		return auth[len(authorizationScheme):], true
	}

	return "", false
}
