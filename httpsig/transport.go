package httpsig

import "net/http"

// Transport is an http.RoundTripper that signs every request it carries
// as one key holder.
type Transport struct {
	base   http.RoundTripper
	config SignConfig
}

// NewTransport returns a Transport signing with cfg and sending through
// base. A nil base uses a clone of http.DefaultTransport so the signer
// gets its own connection pool.
func NewTransport(base http.RoundTripper, cfg SignConfig) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{base: base, config: cfg}
}

// RoundTrip signs a copy of req and hands it to the base transport. The
// caller's request keeps its headers, and its body too when GetBody is
// set. Requests without a body cover BodylessComponents unless components
// were configured explicitly.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if req.Body != nil && req.Body != http.NoBody && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		out.Body = body
	}

	cfg := t.config
	if len(cfg.Components) == 0 && (out.Body == nil || out.Body == http.NoBody) {
		cfg.Components = BodylessComponents
	}

	if err := SignRequest(out, cfg); err != nil {
		return nil, err
	}

	return t.base.RoundTrip(out)
}
