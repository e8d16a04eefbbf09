package httpsig

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errSigner struct {
	err error
}

func (s errSigner) Sign(string) (string, error) { return "", s.err }
func (s errSigner) Algorithm() Algorithm        { return AlgorithmRSASHA256 }
func (s errSigner) KeyID() string               { return "err-key" }

func fixedNow() time.Time {
	return time.Date(2022, time.November, 14, 3, 8, 11, 0, time.UTC)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, testDate, FormatDate(fixedNow()))

	local := fixedNow().In(time.FixedZone("UTC+3", 3*60*60))
	assert.Equal(t, testDate, FormatDate(local))
}

func TestSignRequest(t *testing.T) {
	signer := testSigner(t)

	t.Run("nil signer returns error", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)

		err := SignRequest(req, SignConfig{})
		assert.ErrorIs(t, err, ErrNoSigner)
	})

	t.Run("known vector", func(t *testing.T) {
		req := httptest.NewRequest("POST", "https://toot.example.com/inbox", strings.NewReader(testBody))

		err := SignRequest(req, SignConfig{Signer: signer, Now: fixedNow})
		require.NoError(t, err)

		assert.Equal(t, testDate, req.Header.Get("Date"))
		assert.Equal(t, testDigest, req.Header.Get("Digest"))

		want := `keyId="` + testKeyID + `",algorithm="rsa-sha256",headers="(request-target) host date digest",signature="` + testBodySignature + `"`
		assert.Equal(t, want, req.Header.Get("Signature"))

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, testBody, string(body))
	})

	t.Run("three components", func(t *testing.T) {
		req := httptest.NewRequest("POST", "https://toot.example.com/inbox", nil)

		err := SignRequest(req, SignConfig{
			Signer:     signer,
			Components: []string{"(request-target)", "Host", "Date"},
			Now:        fixedNow,
		})
		require.NoError(t, err)

		env, err := ParseEnvelope(req.Header.Get("Signature"))
		require.NoError(t, err)
		assert.Equal(t, []string{"(request-target)", "host", "date"}, env.Headers)
		assert.Equal(t, originalSignature, env.Signature)
		assert.Empty(t, req.Header.Get("Digest"))
	})

	t.Run("existing date is kept", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)
		req.Header.Set("Date", "Tue, 01 Jan 2030 00:00:00 GMT")

		require.NoError(t, SignRequest(req, SignConfig{Signer: signer}))
		assert.Equal(t, "Tue, 01 Jan 2030 00:00:00 GMT", req.Header.Get("Date"))
	})

	t.Run("empty body digest", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)

		require.NoError(t, SignRequest(req, SignConfig{Signer: signer}))
		assert.Equal(t, emptyDigest, req.Header.Get("Digest"))
	})

	t.Run("host taken from url", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)
		req.Host = ""
		req.URL.Host = "remote.example"

		require.NoError(t, SignRequest(req, SignConfig{Signer: signer}))
		assert.Equal(t, "remote.example", req.Host)
	})

	t.Run("missing covered header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)

		err := SignRequest(req, SignConfig{Signer: signer, Components: []string{"content-type"}})
		assert.ErrorIs(t, err, ErrMissingComponent)
		assert.Empty(t, req.Header.Get("Signature"))
	})

	t.Run("signer error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		req := httptest.NewRequest("GET", "https://example.com/", nil)

		err := SignRequest(req, SignConfig{Signer: errSigner{err: boom}})
		assert.ErrorIs(t, err, boom)
	})
}
