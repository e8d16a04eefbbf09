package httpsig

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

type contextKey int

const envelopeKey contextKey = iota

// MiddlewareConfig configures the server-side signature verification
// middleware.
type MiddlewareConfig struct {
	// Verify configures how signatures are verified.
	Verify VerifyConfig

	// OnError is called when verification fails. When nil, a plain 404
	// Not Found response is sent so that callers learn nothing about
	// which check failed.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware returns a mux.MiddlewareFunc that verifies the draft-cavage
// signature of incoming requests. On success the parsed envelope is
// stored in the request context, see EnvelopeFromContext.
//
// It returns ErrNoResolver if VerifyConfig.Resolver is nil.
func Middleware(cfg MiddlewareConfig) (mux.MiddlewareFunc, error) {
	if cfg.Verify.Resolver == nil {
		return nil, ErrNoResolver
	}

	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	verifyCfg := cfg.Verify

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env, err := VerifyRequest(r, verifyCfg)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), envelopeKey, env)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// EnvelopeFromContext returns the envelope of a request that passed
// Middleware.
func EnvelopeFromContext(ctx context.Context) (*Envelope, bool) {
	env, ok := ctx.Value(envelopeKey).(*Envelope)

	return env, ok
}

// defaultOnError writes a 404 Not Found response with no body.
func defaultOnError(w http.ResponseWriter, _ *http.Request, _ error) {
	w.WriteHeader(http.StatusNotFound)
}
