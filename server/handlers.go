package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/containerd/log"
	"github.com/gorilla/mux"
	"github.com/vitalvas/apkit/activity"
	"github.com/vitalvas/apkit/httpsig"
)

// notFound is the answer to every failed request. The body is empty so
// that callers cannot tell missing actors from rejected signatures.
func notFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

func writeActivityJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.G(r.Context()).WithError(err).Error("encode response")
		notFound(w, r)

		return
	}

	w.Header().Set("Content-Type", activity.MediaType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleActor(w http.ResponseWriter, r *http.Request) {
	doc, err := s.actors.Resolve(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		log.G(r.Context()).WithError(err).Debug("resolve actor")
		notFound(w, r)

		return
	}

	writeActivityJSON(w, r, doc)
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	author, err := s.actors.Lookup(r.Context(), vars["name"])
	if err != nil {
		log.G(r.Context()).WithError(err).Debug("lookup actor")
		notFound(w, r)

		return
	}

	writeActivityJSON(w, r, activity.PlaceholderNote(author, vars["id"]))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	author, err := s.actors.Lookup(r.Context(), vars["name"])
	if err != nil {
		log.G(r.Context()).WithError(err).Debug("lookup actor")
		notFound(w, r)

		return
	}

	writeActivityJSON(w, r, activity.PlaceholderCreate(author, vars["id"]))
}

// handleInbox accepts a verified activity. When the activity names an
// actor it must be the owner of the signing key.
func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	env, ok := httpsig.EnvelopeFromContext(ctx)
	if !ok {
		notFound(w, r)
		return
	}

	s.metrics.observeVerification(true)

	logger := log.G(ctx).WithField("key_id", env.KeyID)

	if name, ok := mux.Vars(r)["name"]; ok {
		if _, err := s.actors.Lookup(ctx, name); err != nil {
			logger.WithError(err).Debug("inbox of unknown actor")
			notFound(w, r)

			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WithError(err).Info("read inbox body")
		notFound(w, r)

		return
	}

	in, err := activity.DecodeIncoming(body)
	if err != nil {
		logger.WithError(err).Info("decode activity")
		notFound(w, r)

		return
	}

	if id := in.ActorID(); id != "" && id != keyOwner(env.KeyID) {
		logger.WithField("actor", id).Info("activity actor does not own the signing key")
		notFound(w, r)

		return
	}

	logger.WithFields(log.Fields{
		"activity_id":   in.ID,
		"activity_type": in.Type,
		"actor":         in.ActorID(),
	}).Info("activity accepted")

	w.WriteHeader(http.StatusAccepted)
}

// keyOwner returns the actor id a key id belongs to: the key id without
// its fragment.
func keyOwner(keyID string) string {
	owner, _, _ := strings.Cut(keyID, "#")

	return owner
}
