package httpsig

import (
	"crypto/rsa"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	// Signature of originalSigningString under the testdata key.
	originalSignature = "Mot+5x0SVIKbmFk3BxM0gtbYqMtSBN8GPNry+ZDatAGt/2apaflVTCFe6E1WP0fTGgPLQNT72iEeJ9s0Qoc29vp47JVxyKZWA2NMUfTvDSJ3EmiZLcM+FnfrkSFp4Cen+oacBcspww2Gvj2SNbf76h1KZpl8ceBr77HRpSchrHZMzYmpfzmQWNZwhPAM4LQGhxegUcXYBlXc9Ya0UkdBfCOHJ4jcHiScUKRz3/xnLKzLZAXpvT2ttBdURC/PZmw0W+3PPyQA7V4+eRpqsezGsSyAHqQDQ7J2HCfu4QLawgyuhz5D4qTx960i99DgYSCs3d+ebbtih7mNUkZuclHtBQ=="

	originalSigningString = "(request-target): post /inbox\nhost: toot.example.com\ndate: Mon, 14 Nov 2022 03:08:11 GMT"

	testDate   = "Mon, 14 Nov 2022 03:08:11 GMT"
	testHost   = "toot.example.com"
	testKeyID  = "https://example.com/@alice/actor.json#main-key"
	testBody   = `{"@context":"https://www.w3.org/ns/activitystreams","type":"Create"}`
	testDigest = "SHA-256=6Mv2XHdnAIiwDU5wo5cgWsa3hIrB6lZi35rhBtL6L44="

	testBodySigningString = "(request-target): post /inbox\nhost: toot.example.com\ndate: Mon, 14 Nov 2022 03:08:11 GMT\ndigest: " + testDigest

	testBodySignature = "3ZTbndptAPLstEp7louGDQPIfFBUob2xDahateqv9w+D6N2PU5Rx6Ch9jurgjXXLode8213pHRr/Yl9PdiM6N7K9E59CvrbOoLKxMcHEGDvSNDP00DkIVRjJ2w8SR8qvmg0P2qUmGClN8H6rcUmMPKCjmX9LQ6BAoRHVGNYKOU63CWJn8Xr0SWa5KQ7/FJlLssaC3VnJVUqETG+HfPgis2uNAwoImUQGhAY7GsQrMEiMg8XFqBfObCezq6hZHcKUV2ZemNLW09zVZeOo/IfpGZBHdMDnknebsGlCgcph4uSi46EoK5jj52aj/nezW2IurIVki7jeW15lpXvYahHJeg=="

	emptyDigest = "SHA-256=47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="
)

func readTestdata(t testing.TB, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return string(data)
}

func testPrivateKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()

	key, err := ParsePrivateKey(readTestdata(t, "private-pkcs1.pem"))
	require.NoError(t, err)

	return key
}

func testSigner(t testing.TB) Signer {
	t.Helper()

	signer, err := NewRSASigner(testKeyID, testPrivateKey(t))
	require.NoError(t, err)

	return signer
}
