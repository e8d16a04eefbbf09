package federation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/apkit/activity"
	"github.com/vitalvas/apkit/actor"
	"github.com/vitalvas/apkit/httpsig"
	"github.com/vitalvas/apkit/webfinger"
)

func TestClientDeliver(t *testing.T) {
	ctx := context.Background()
	actors, _ := newTestActors(t, "https://example.com")

	inbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env, err := httpsig.VerifyRequest(r, httpsig.VerifyConfig{Resolver: actors.LocalKey, MaxSkew: time.Minute})
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		in, err := activity.DecodeIncoming(body)
		if err != nil || in.ActorID()+actor.KeyFragment != env.KeyID {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if r.URL.Path == "/reject" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer inbox.Close()

	client := NewClient(ClientOptions{Signers: actors, UserAgent: "apkit-test", Timeout: 5 * time.Second})

	alice, err := actors.Lookup(ctx, "alice")
	require.NoError(t, err)

	create := activity.NewCreate(alice, activity.NewNote(alice, "<p>hi</p>", "", time.Now()))

	t.Run("signed delivery is accepted", func(t *testing.T) {
		assert.NoError(t, client.Deliver(ctx, "alice", inbox.URL+"/inbox", create))
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		err := client.Deliver(ctx, "alice", inbox.URL+"/reject", create)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("unknown actor key", func(t *testing.T) {
		err := client.Deliver(ctx, "bad/name", inbox.URL+"/inbox", create)
		assert.ErrorIs(t, err, actor.ErrInvalidName)
	})

	t.Run("no signers", func(t *testing.T) {
		err := NewClient(ClientOptions{}).Deliver(ctx, "alice", inbox.URL+"/inbox", create)
		assert.ErrorIs(t, err, httpsig.ErrNoSigner)
	})

	t.Run("unencodable activity", func(t *testing.T) {
		err := client.Deliver(ctx, "alice", inbox.URL+"/inbox", make(chan int))
		assert.Error(t, err)
	})
}

func TestClientLookup(t *testing.T) {
	ctx := context.Background()

	var remote *actor.Resolver

	router := mux.NewRouter()
	router.Handle(webfinger.Path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wf := &webfinger.Handler{Resolver: webfinger.NewResolver(r.Host, remote)}
		wf.ServeHTTP(w, r)
	}))
	router.HandleFunc("/@{name}/actor.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := remote.Resolve(r.Context(), mux.Vars(r)["name"])
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", activity.MediaType)
		json.NewEncoder(w).Encode(doc)
	})

	server := httptest.NewServer(router)
	defer server.Close()

	remote, key := newTestActors(t, server.URL)
	host := strings.TrimPrefix(server.URL, "http://")

	client := NewClient(ClientOptions{Scheme: "http"})

	for _, handle := range []string{"acct:alice@" + host, "alice@" + host, "@alice@" + host} {
		t.Run(handle, func(t *testing.T) {
			doc, err := client.Lookup(ctx, handle)
			require.NoError(t, err)

			assert.Equal(t, server.URL+"/@alice/actor.json", doc.ID)
			assert.Equal(t, server.URL+"/@alice/actor.json#main-key", doc.PublicKey.ID)
			assert.Equal(t, key.publicPEM, doc.PublicKey.PublicKeyPEM)
			assert.Equal(t, server.URL+"/inbox", doc.DeliveryInbox())
		})
	}

	t.Run("unknown actor", func(t *testing.T) {
		_, err := client.Lookup(ctx, "acct:a b@"+host)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("invalid handle", func(t *testing.T) {
		_, err := client.Lookup(ctx, "alice")
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})
}

func TestRemoteActorDeliveryInbox(t *testing.T) {
	a := &RemoteActor{Inbox: "https://r.example/users/bob/inbox"}
	assert.Equal(t, a.Inbox, a.DeliveryInbox())

	a.Endpoints.SharedInbox = "https://r.example/inbox"
	assert.Equal(t, "https://r.example/inbox", a.DeliveryInbox())
}
