package serverutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vwerrs "github.com/jdholdren/viewer/internal/errors"
	"github.com/jdholdren/viewer/internal/viewer"
)

func TestHandlerFuncE_ViewerUnset(t *testing.T) {
	var (
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		rec = httptest.NewRecorder()
		got Request
	)

	HandlerFuncE(func(w http.ResponseWriter, r Request) error {
		got = r
		return nil
	}).ServeHTTP(rec, req)

	assert.False(t, got.Authenticated())
	assert.Nil(t, got.Viewer)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerFuncE_ViewerSet(t *testing.T) {
	usr := viewer.New("usr-1", viewer.String("a@example.com"), nil)
	var (
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		rec = httptest.NewRecorder()
		got Request
	)
	req = req.WithContext(viewer.WithUser(req.Context(), &usr))

	HandlerFuncE(func(w http.ResponseWriter, r Request) error {
		got = r
		return nil
	}).ServeHTTP(rec, req)

	require.True(t, got.Authenticated())
	assert.Equal(t, &usr, got.Viewer)
	assert.Equal(t, "/", got.URL.Path)
}

func TestHandlerFuncE_StructuredError(t *testing.T) {
	rec := httptest.NewRecorder()

	HandlerFuncE(func(w http.ResponseWriter, r Request) error {
		return vwerrs.E("bad input", http.StatusBadRequest, vwerrs.Detail{Field: "id", Error: "empty"})
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"bad input","details":[{"field":"id","error":"empty"}],"status":400}`, rec.Body.String())
}

func TestHandlerFuncE_UnstructuredError(t *testing.T) {
	rec := httptest.NewRecorder()

	HandlerFuncE(func(w http.ResponseWriter, r Request) error {
		return errors.New("database exploded")
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database exploded")
}

func TestErrRouter_Subrouter(t *testing.T) {
	r := ErrRouter{Router: mux.NewRouter()}
	r.HandleFuncE("/open", func(w http.ResponseWriter, r Request) error {
		return WriteJSON(w, http.StatusOK, struct{}{})
	})

	authed := r.Subrouter()
	authed.Use(RequireViewer)
	authed.HandleFuncE("/closed", func(w http.ResponseWriter, r Request) error {
		return WriteJSON(w, http.StatusOK, r.Viewer)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	usr := viewer.New("usr-1", nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req = req.WithContext(viewer.WithUser(context.Background(), &usr))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body viewer.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, usr, body)
}
