package serverutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	vwerrs "github.com/jdholdren/viewer/internal/errors"
	"github.com/jdholdren/viewer/internal/viewer"
)

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

// Request is what every [HandlerFuncE] receives: the http request plus
// the viewer it was made on behalf of.
//
// Viewer is nil when nothing upstream authenticated the request.
type Request struct {
	*http.Request

	Viewer *viewer.User
}

// NewRequest wraps r, reading the viewer from its context.
func NewRequest(r *http.Request) Request {
	usr, _ := viewer.FromContext(r.Context())
	return Request{Request: r, Viewer: usr}
}

// Authenticated reports whether a viewer is attached.
func (r Request) Authenticated() bool {
	return r.Viewer != nil
}

// HandlerFuncE is a modified type of [http.HandlerFunc] that receives a [Request]
// and returns an error.
type HandlerFuncE func(w http.ResponseWriter, r Request) error

func (f HandlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, NewRequest(r))
	if err == nil {
		return
	}

	writeError(w, r, err)
}

// Writes err as json, coercing anything unstructured into a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	vErr := &vwerrs.Error{}
	if !errors.As(err, &vErr) {
		slog.ErrorContext(r.Context(), "unstructured error", "err", err)
		vErr = vwerrs.E(http.StatusInternalServerError, "internal server error")
	}

	if err := WriteJSON(w, vErr.Status, vErr); err != nil {
		slog.ErrorContext(r.Context(), "error writing response", "error", err)
	}
}

// ErrRouter is a newtype around a mux router that allows attaching handlers that return errors.
type ErrRouter struct {
	*mux.Router
}

func (r ErrRouter) HandleFuncE(path string, f HandlerFuncE) *mux.Route {
	return r.Handle(path, f)
}

// Subrouter makes a new ErrRouter matching everything, so middleware can be
// scoped to a group of routes.
func (r ErrRouter) Subrouter() ErrRouter {
	return ErrRouter{Router: r.NewRoute().Subrouter()}
}
