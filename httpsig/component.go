package httpsig

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ComponentRequestTarget is the pseudo component covering the lower-cased
// method and the request path, e.g. "post /inbox".
const ComponentRequestTarget = "(request-target)"

// Header component names used by federated servers.
const (
	ComponentHost   = "host"
	ComponentDate   = "date"
	ComponentDigest = "digest"
)

// DefaultComponents are signed when SignConfig.Components is empty.
var DefaultComponents = []string{ComponentRequestTarget, ComponentHost, ComponentDate, ComponentDigest}

// BodylessComponents are signed by Transport for requests without a body
// when SignConfig.Components is empty, as servers expect for signed GETs.
var BodylessComponents = []string{ComponentRequestTarget, ComponentHost, ComponentDate}

// normalizeComponent lower-cases a component name and checks that it is
// either the request-target pseudo component or a valid header token.
func normalizeComponent(id string) (string, error) {
	id = strings.ToLower(id)

	if id == ComponentRequestTarget {
		return id, nil
	}

	if strings.HasPrefix(id, "(") || !httpguts.ValidHeaderFieldName(id) {
		return "", fmt.Errorf("%w: %q", ErrUnknownComponent, id)
	}

	return id, nil
}

// requestTargetValue renders the (request-target) value: the lower-cased
// method, one space, and the path without its query string.
func requestTargetValue(method, path string) string {
	path, _, _ = strings.Cut(path, "?")
	if path == "" {
		path = "/"
	}

	return strings.ToLower(method) + " " + path
}

// requestHeaders returns the request headers keyed by lower-cased name.
// Multiple values for the same header are trimmed and joined with ", ".
//
// The "host" header is special-cased because net/http stores it in
// Request.Host rather than in the header map.
func requestHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)

	for name, values := range r.Header {
		trimmed := make([]string, len(values))
		for i, v := range values {
			trimmed[i] = strings.TrimSpace(v)
		}

		headers[strings.ToLower(name)] = strings.Join(trimmed, ", ")
	}

	if _, ok := headers[ComponentHost]; !ok {
		if host := requestHost(r); host != "" {
			headers[ComponentHost] = host
		}
	}

	return headers
}

// requestHost returns the host[:port] the request is addressed to.
func requestHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}

	if r.URL != nil {
		return r.URL.Host
	}

	return ""
}
