package httpsig

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	t.Run("full header", func(t *testing.T) {
		env, err := ParseEnvelope(`keyId="` + testKeyID + `",algorithm="rsa-sha256",headers="(request-target) host date",signature="` + originalSignature + `"`)
		require.NoError(t, err)

		assert.Equal(t, testKeyID, env.KeyID)
		assert.Equal(t, AlgorithmRSASHA256, env.Algorithm)
		assert.Equal(t, []string{"(request-target)", "host", "date"}, env.Headers)
		assert.Equal(t, originalSignature, env.Signature)
	})

	t.Run("parameters in any order with spaces", func(t *testing.T) {
		env, err := ParseEnvelope(`signature="abc=", headers="Host Date", keyId="k", extra="ignored"`)
		require.NoError(t, err)

		assert.Equal(t, "k", env.KeyID)
		assert.Equal(t, Algorithm(""), env.Algorithm)
		assert.Equal(t, []string{"host", "date"}, env.Headers)
		assert.Equal(t, "abc=", env.Signature)
	})

	t.Run("headers default to date", func(t *testing.T) {
		env, err := ParseEnvelope(`keyId="k",signature="abc"`)
		require.NoError(t, err)
		assert.Equal(t, []string{"date"}, env.Headers)
	})

	t.Run("algorithm is lower-cased", func(t *testing.T) {
		env, err := ParseEnvelope(`keyId="k",algorithm="HS2019",signature="abc"`)
		require.NoError(t, err)
		assert.Equal(t, AlgorithmHS2019, env.Algorithm)
	})

	errorCases := map[string]string{
		"missing keyId":       `signature="abc"`,
		"missing signature":   `keyId="k"`,
		"duplicate parameter": `keyId="a",keyId="b",signature="abc"`,
		"no value":            `keyId,signature="abc"`,
		"empty headers":       `keyId="k",headers="",signature="abc"`,
		"unknown component":   `keyId="k",headers="(created)",signature="abc"`,
	}

	for name, header := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEnvelope(header)
			assert.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}

func TestEnvelopeString(t *testing.T) {
	t.Run("parameter order", func(t *testing.T) {
		env := Envelope{
			KeyID:     testKeyID,
			Algorithm: AlgorithmRSASHA256,
			Headers:   []string{"(request-target)", "host", "date"},
			Signature: "abc=",
		}

		assert.Equal(t, `keyId="`+testKeyID+`",algorithm="rsa-sha256",headers="(request-target) host date",signature="abc="`, env.String())
	})

	t.Run("algorithm omitted when empty", func(t *testing.T) {
		env := Envelope{KeyID: "k", Headers: []string{"date"}, Signature: "s"}
		assert.Equal(t, `keyId="k",headers="date",signature="s"`, env.String())
	})

	t.Run("round trip", func(t *testing.T) {
		env := &Envelope{KeyID: `we"ird`, Algorithm: AlgorithmHS2019, Headers: []string{"host"}, Signature: "s"}

		parsed, err := ParseEnvelope(env.String())
		require.NoError(t, err)
		assert.Equal(t, env, parsed)
	})
}

func TestEnvelopeCovers(t *testing.T) {
	env := Envelope{Headers: []string{"(request-target)", "host"}}

	assert.True(t, env.Covers("Host"))
	assert.True(t, env.Covers(ComponentRequestTarget))
	assert.False(t, env.Covers("date"))
}

func TestEnvelopeHeader(t *testing.T) {
	t.Run("signature header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(SignatureHeader, "a")

		v, ok := envelopeHeader(req)
		assert.True(t, ok)
		assert.Equal(t, "a", v)
	})

	t.Run("authorization fallback", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", `signature keyId="k"`)

		v, ok := envelopeHeader(req)
		assert.True(t, ok)
		assert.Equal(t, `keyId="k"`, v)
	})

	t.Run("other scheme", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer token")

		_, ok := envelopeHeader(req)
		assert.False(t, ok)
	})
}
