package whoami

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/fx"

	"github.com/jdholdren/viewer/internal/serverutil"
	"github.com/jdholdren/viewer/internal/viewer"
)

type (
	// Server answers "who is making this request" for whatever the
	// configured authenticator decided.
	Server struct {
		*http.Server
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
	}

	Params struct {
		fx.In

		Config ServerConfig
		Auth   viewer.Authenticator
	}
)

func NewServer(lc fx.Lifecycle, p Params) Server {
	srvr := newServer(p.Config, p.Auth)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("whoami server stopped", "err", err)
				}
			}()

			slog.Info("started whoami server", "port", p.Config.Port)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srvr.Shutdown(ctx)
		},
	})

	return srvr
}

func newServer(config ServerConfig, auth viewer.Authenticator) Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}
	srvr := Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowCredentials(),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type", "authorization"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.Use(serverutil.AttachViewer(auth))
	r.HandleFuncE("/api/viewer", srvr.handleViewer).Methods(http.MethodGet)

	authed := r.Subrouter()
	authed.Use(serverutil.RequireViewer)
	authed.HandleFuncE("/api/me", srvr.handleMe).Methods(http.MethodGet)

	slog.Debug("configured whoami server", "port", config.Port)

	return srvr
}

// Reports the viewer, or an empty object for anonymous requests.
func (s Server) handleViewer(w http.ResponseWriter, r serverutil.Request) error {
	if !r.Authenticated() {
		return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
	}

	return serverutil.WriteJSON(w, http.StatusOK, r.Viewer)
}

// Me is the profile view for an authenticated viewer.
type Me struct {
	Viewer viewer.User `json:"viewer"`
	Name   string      `json:"name"`
}

// Only mounted behind [serverutil.RequireViewer], so the viewer is always set.
func (s Server) handleMe(w http.ResponseWriter, r serverutil.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, Me{
		Viewer: *r.Viewer,
		Name:   r.Viewer.Name(),
	})
}
