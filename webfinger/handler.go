package webfinger

import (
	"encoding/json"
	"net/http"
)

// Path is where WebFinger is served.
const Path = "/.well-known/webfinger"

// Handler serves GET requests for r. Every failure is answered with 404
// and an empty body. OnError, when set, receives the cause.
type Handler struct {
	Resolver *Resolver
	OnError  func(r *http.Request, err error)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		h.fail(w, r, ErrInvalidResource)
		return
	}

	res, err := h.Resolver.Resolve(r.Context(), resource)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", MediaTypeJRD)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if h.OnError != nil {
		h.OnError(r, err)
	}

	w.WriteHeader(http.StatusNotFound)
}
