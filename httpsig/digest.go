package httpsig

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DigestHeader is the header carrying the body digest (RFC 3230).
const DigestHeader = "Digest"

// DigestAlgorithm identifies the hash algorithm of a Digest header entry.
type DigestAlgorithm string

const (
	// DigestSHA256 uses SHA-256 for the body digest.
	DigestSHA256 DigestAlgorithm = "SHA-256"

	// DigestSHA512 uses SHA-512 for the body digest.
	DigestSHA512 DigestAlgorithm = "SHA-512"
)

// ComputeDigest returns the Digest header value for body:
// "SHA-256=" followed by the standard base64 encoding of SHA-256(body).
func ComputeDigest(body []byte) string {
	sum := sha256.Sum256(body)

	return string(DigestSHA256) + "=" + base64.StdEncoding.EncodeToString(sum[:])
}

// SetDigest reads the request body, sets the Digest header to its SHA-256
// digest and replaces the body so it can be read again.
func SetDigest(r *http.Request) error {
	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}

	r.Header.Set(DigestHeader, ComputeDigest(body))

	return nil
}

// VerifyDigest recomputes the digest of the request body and compares it
// with the Digest header. The header may list several comma-separated
// entries; the first entry with a supported algorithm decides.
func VerifyDigest(r *http.Request) error {
	header := r.Header.Get(DigestHeader)
	if header == "" {
		return ErrDigestNotFound
	}

	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}

	for entry := range strings.SplitSeq(header, ",") {
		alg, encoded, ok := parseDigestEntry(strings.TrimSpace(entry))
		if !ok {
			continue
		}

		expected := computeDigest(body, alg)

		actual, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("%w: invalid base64 in digest", ErrMalformedHeader)
		}

		if !bytes.Equal(expected, actual) {
			return ErrDigestMismatch
		}

		return nil
	}

	return ErrUnsupportedDigest
}

// parseDigestEntry parses a single "ALG=base64" entry. Algorithm names are
// matched case-insensitively.
func parseDigestEntry(entry string) (DigestAlgorithm, string, bool) {
	algStr, value, ok := strings.Cut(entry, "=")
	if !ok {
		return "", "", false
	}

	value = strings.TrimSpace(value)

	switch alg := DigestAlgorithm(strings.ToUpper(strings.TrimSpace(algStr))); alg {
	case DigestSHA256, DigestSHA512:
		return alg, value, true
	default:
		return "", "", false
	}
}

func computeDigest(data []byte, alg DigestAlgorithm) []byte {
	if alg == DigestSHA512 {
		h := sha512.Sum512(data)
		return h[:]
	}

	h := sha256.Sum256(data)

	return h[:]
}

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so the body can be consumed again by downstream handlers.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}
