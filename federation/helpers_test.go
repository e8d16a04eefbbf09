package federation

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vitalvas/apkit/actor"
	"github.com/vitalvas/apkit/httpsig"
	"github.com/vitalvas/apkit/keystore"
)

type testKey struct {
	key       *rsa.PrivateKey
	publicPEM string
}

func newTestKey(t *testing.T) testKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := httpsig.MarshalPublicKey(&key.PublicKey, httpsig.KeyFormatPKCS8)
	require.NoError(t, err)

	return testKey{key: key, publicPEM: pub}
}

// newTestActors returns a resolver for base whose actors share one key
// pair.
func newTestActors(t *testing.T, base string) (*actor.Resolver, testKey) {
	t.Helper()

	k := newTestKey(t)

	priv, err := httpsig.MarshalPrivateKey(k.key, httpsig.KeyFormatPKCS1)
	require.NoError(t, err)

	store, err := keystore.NewFile(t.TempDir(), keystore.LayoutShared)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "", k.publicPEM, priv))

	r, err := actor.NewResolver(actor.Options{BaseURL: base, Keys: store})
	require.NoError(t, err)

	return r, k
}
