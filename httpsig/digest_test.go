package httpsig

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDigest(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		assert.Equal(t, emptyDigest, ComputeDigest(nil))
		assert.Equal(t, emptyDigest, ComputeDigest([]byte{}))
	})

	t.Run("activity body", func(t *testing.T) {
		assert.Equal(t, testDigest, ComputeDigest([]byte(testBody)))
	})
}

func TestSetDigest(t *testing.T) {
	t.Run("body is restored", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/inbox", strings.NewReader(testBody))

		require.NoError(t, SetDigest(req))
		assert.Equal(t, testDigest, req.Header.Get(DigestHeader))

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, testBody, string(body))
	})

	t.Run("no body", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Body = http.NoBody

		require.NoError(t, SetDigest(req))
		assert.Equal(t, emptyDigest, req.Header.Get(DigestHeader))
	})
}

func TestVerifyDigest(t *testing.T) {
	newReq := func(body, digest string) *http.Request {
		req := httptest.NewRequest("POST", "/inbox", strings.NewReader(body))
		if digest != "" {
			req.Header.Set(DigestHeader, digest)
		}

		return req
	}

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, VerifyDigest(newReq(testBody, testDigest)))
	})

	t.Run("algorithm is case-insensitive", func(t *testing.T) {
		digest := strings.Replace(testDigest, "SHA-256", "sha-256", 1)
		assert.NoError(t, VerifyDigest(newReq(testBody, digest)))
	})

	t.Run("sha-512", func(t *testing.T) {
		digest := "SHA-512=m3HSJL1i83hdltRq0+o9czGb+8KJDKra4t/3JRlnPKcjI8PZm6XBHXx6zG4UuMXaDEZjR1wuXDre9G9zvN7AQw=="
		assert.NoError(t, VerifyDigest(newReq("hello", digest)))
	})

	t.Run("unsupported entries are skipped", func(t *testing.T) {
		assert.NoError(t, VerifyDigest(newReq(testBody, "MD5=abc, "+testDigest)))
	})

	t.Run("mismatch", func(t *testing.T) {
		assert.ErrorIs(t, VerifyDigest(newReq(testBody+" ", testDigest)), ErrDigestMismatch)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.ErrorIs(t, VerifyDigest(newReq(testBody, "")), ErrDigestNotFound)
	})

	t.Run("only unsupported algorithms", func(t *testing.T) {
		assert.ErrorIs(t, VerifyDigest(newReq(testBody, "MD5=abc")), ErrUnsupportedDigest)
	})

	t.Run("bad base64", func(t *testing.T) {
		assert.ErrorIs(t, VerifyDigest(newReq(testBody, "SHA-256=%%%")), ErrMalformedHeader)
	})

	t.Run("body stays readable", func(t *testing.T) {
		req := newReq(testBody, testDigest)
		require.NoError(t, VerifyDigest(req))

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, testBody, string(body))
	})
}
