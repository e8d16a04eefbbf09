// Package server exposes local actors over HTTP: WebFinger, actor
// documents, placeholder objects and signature-verified inboxes.
package server

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/containerd/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/apkit/actor"
	"github.com/vitalvas/apkit/config"
	"github.com/vitalvas/apkit/federation"
	"github.com/vitalvas/apkit/httpsig"
	"github.com/vitalvas/apkit/webfinger"
)

// ErrRemoteKeysDisabled is returned when a request is signed with a key
// of another server and no KeyFetcher is configured.
var ErrRemoteKeysDisabled = errors.New("server: remote keys disabled")

// maxInboxBody bounds inbox request bodies.
const maxInboxBody = 1 << 20

// Options configures a Server.
type Options struct {
	// Config is the process configuration. Required.
	Config config.Config

	// Actors resolves local actors. Required.
	Actors *actor.Resolver

	// RemoteKeys fetches keys of remote actors for inbox verification.
	// When nil only local actors can deliver to the inboxes.
	RemoteKeys *federation.KeyFetcher

	// Registry receives the server metrics. When nil a private registry
	// is created.
	Registry *prometheus.Registry
}

// Server is the HTTP front of the local actors.
type Server struct {
	cfg     config.Config
	actors  *actor.Resolver
	remote  *federation.KeyFetcher
	metrics *metrics
	router  *mux.Router
}

// New builds the router for opts.
func New(opts Options) (*Server, error) {
	if opts.Actors == nil {
		return nil, errors.New("server: actors resolver must not be nil")
	}

	s := &Server{
		cfg:     opts.Config,
		actors:  opts.Actors,
		remote:  opts.RemoteKeys,
		metrics: newMetrics(opts.Registry),
	}

	if err := s.routes(); err != nil {
		return nil, err
	}

	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() error {
	verify, err := httpsig.Middleware(httpsig.MiddlewareConfig{
		Verify: httpsig.VerifyConfig{
			Resolver:           s.resolveKey,
			Refresh:            s.refreshKey,
			RequiredComponents: s.cfg.Signature.RequiredHeaders,
			MaxSkew:            s.cfg.Signature.MaxSkew,
		},
		OnError: s.rejectSignature,
	})
	if err != nil {
		return err
	}

	wf := &webfinger.Handler{
		Resolver: webfinger.NewResolver(s.cfg.Server.Domain, s.actors),
		OnError: func(r *http.Request, err error) {
			log.G(r.Context()).WithError(err).Debug("webfinger lookup failed")
		},
	}

	r := mux.NewRouter()
	r.Use(requestID, s.observe, recovery)
	r.NotFoundHandler = requestID(s.observe(http.HandlerFunc(notFound)))
	r.MethodNotAllowedHandler = requestID(s.observe(http.HandlerFunc(notFound)))

	r.Handle(webfinger.Path, wf).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	inbox := func(h http.HandlerFunc) http.Handler {
		return limitBody(maxInboxBody)(verify(h))
	}

	r.Handle("/inbox", inbox(s.handleInbox)).Methods(http.MethodPost)
	r.Handle("/@{name}/inbox", inbox(s.handleInbox)).Methods(http.MethodPost)

	r.HandleFunc("/@{name}/actor.json", s.handleActor).Methods(http.MethodGet)
	r.HandleFunc("/@{name}", s.handleActor).Methods(http.MethodGet).MatcherFunc(acceptsActivity)
	r.HandleFunc("/@{name}/notes/{id}.json", s.handleNote).Methods(http.MethodGet)
	r.HandleFunc("/@{name}/activities/{id}.json", s.handleActivity).Methods(http.MethodGet)

	if dir := s.cfg.Server.StaticDir; dir != "" {
		r.PathPrefix("/").Handler(staticHandler(os.DirFS(dir))).Methods(http.MethodGet, http.MethodHead)
	}

	s.router = r

	return nil
}

// resolveKey maps a keyId to a public key: local key ids through the actor
// resolver, every other key id through the remote key fetcher.
func (s *Server) resolveKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	if s.actors.IsLocalKeyID(keyID) {
		return s.actors.LocalKey(ctx, keyID)
	}

	if s.remote == nil {
		return nil, fmt.Errorf("%w: %q", ErrRemoteKeysDisabled, keyID)
	}

	return s.remote.Fetch(ctx, keyID)
}

// refreshKey refetches a remote key whose cached copy did not verify a
// signature. Local keys are never refreshed.
func (s *Server) refreshKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	if s.remote == nil || s.actors.IsLocalKeyID(keyID) {
		return nil, fmt.Errorf("%w: %q", ErrRemoteKeysDisabled, keyID)
	}

	return s.remote.Refresh(ctx, keyID)
}

// rejectSignature logs why verification failed and answers 404.
func (s *Server) rejectSignature(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.observeVerification(false)
	log.G(r.Context()).WithError(err).Info("signature rejected")
	notFound(w, r)
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	log.G(ctx).WithFields(log.Fields{
		"addr":     ln.Addr().String(),
		"base_url": s.actors.BaseURL(),
	}).Info("serving")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	log.G(ctx).Info("shutting down")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func acceptsActivity(r *http.Request, _ *mux.RouteMatch) bool {
	accept := r.Header.Get("Accept")

	return strings.Contains(accept, "application/activity+json") || strings.Contains(accept, "application/ld+json")
}
