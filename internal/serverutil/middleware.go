package serverutil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	vwerrs "github.com/jdholdren/viewer/internal/errors"
	"github.com/jdholdren/viewer/internal/logger"
	"github.com/jdholdren/viewer/internal/viewer"
)

const (
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 128
)

// Reports whether an incoming request id is safe to echo into logs and headers.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		ctx := logger.Ctx(r.Context(), slog.String("request_id", reqID))
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)
		start := time.Now()

		writer := &respCodeWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(writer, r)

		slog.InfoContext(ctx, "request completed",
			"method", r.Method,
			"url", r.URL.String(),
			"duration", time.Since(start),
			"status_code", writer.code,
		)
	})
}

// To trap the response status code for logging later.
type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// AttachViewer asks the authenticator who the request is from and attaches the
// answer to the request context.
//
// Anonymous requests pass through with no viewer. Rejected credentials get a 401,
// and a user without an id is treated as a broken authenticator and gets a 500.
func AttachViewer(a viewer.Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			usr, err := a.Authenticate(r)
			if err != nil {
				slog.InfoContext(ctx, "authentication rejected", "err", err)
				writeError(w, r, vwerrs.E(vwerrs.ErrUnauthenticated, http.StatusUnauthorized))
				return
			}
			if usr == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := usr.Validate(); err != nil {
				slog.ErrorContext(ctx, "authenticator returned an invalid viewer", "err", err)
				writeError(w, r, vwerrs.E(http.StatusInternalServerError, "internal server error"))
				return
			}

			ctx = viewer.WithUser(ctx, usr)
			ctx = logger.Ctx(ctx, slog.String("user_id", usr.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireViewer rejects requests that don't have a viewer attached.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := viewer.FromContext(r.Context()); !ok {
			writeError(w, r, vwerrs.E(vwerrs.ErrUnauthenticated, http.StatusUnauthorized))
			return
		}

		next.ServeHTTP(w, r)
	})
}
