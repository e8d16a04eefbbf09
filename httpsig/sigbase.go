package httpsig

import (
	"fmt"
	"net/http"
	"strings"
)

// BuildSigningString renders the canonical string covered by a signature.
//
// Each component produces one line "<name>: <value>" and lines are joined
// with "\n" without a trailing newline. Component names are lower-cased.
// The (request-target) value is derived from method and path; every other
// value is looked up in headers, whose keys must be lower-case. A
// component that is absent from headers fails with ErrMissingComponent.
//
// The order of components is significant and is kept as given.
func BuildSigningString(method, path string, headers map[string]string, components []string) (string, error) {
	if len(components) == 0 {
		return "", ErrNoCoveredComponents
	}

	var b strings.Builder

	for i, raw := range components {
		id, err := normalizeComponent(raw)
		if err != nil {
			return "", err
		}

		var value string
		if id == ComponentRequestTarget {
			value = requestTargetValue(method, path)
		} else {
			v, ok := headers[id]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrMissingComponent, id)
			}

			value = v
		}

		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(id)
		b.WriteString(": ")
		b.WriteString(value)
	}

	return b.String(), nil
}

// SigningStringForRequest builds the signing string for r over components.
func SigningStringForRequest(r *http.Request, components []string) (string, error) {
	path := "/"
	if r.URL != nil {
		path = r.URL.Path
	}

	return BuildSigningString(r.Method, path, requestHeaders(r), components)
}

// splitQuoteAware splits s on delim while respecting "..." quoted regions.
// Backslash-escaped quotes (\") inside quoted strings are handled. Each
// resulting part is trimmed of whitespace and empty parts are skipped.
func splitQuoteAware(s string, delim byte) []string {
	var result []string
	var part strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inQuote {
			if ch == '\\' && i+1 < len(s) {
				part.WriteByte(ch)
				i++
				part.WriteByte(s[i])
				continue
			}

			if ch == '"' {
				inQuote = false
			}

			part.WriteByte(ch)
			continue
		}

		if ch == '"' {
			inQuote = true
			part.WriteByte(ch)
			continue
		}

		if ch == delim {
			if p := strings.TrimSpace(part.String()); p != "" {
				result = append(result, p)
			}

			part.Reset()
			continue
		}

		part.WriteByte(ch)
	}

	if p := strings.TrimSpace(part.String()); p != "" {
		result = append(result, p)
	}

	return result
}

// quote produces a double-quoted string, escaping backslash and
// double-quote.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' || ch == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(ch)
	}

	b.WriteByte('"')

	return b.String()
}

// unquote removes surrounding double quotes and unescapes \\ and \".
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])

			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}
