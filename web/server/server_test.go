package server_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/hello/app/context"
	"go.hackfix.me/hello/web/server"
	"go.hackfix.me/hello/web/server/api"
	"go.hackfix.me/hello/web/server/middleware"
)

func TestServerHandlers(t *testing.T) {
	t.Parallel()

	appCtx := &actx.Context{FS: memoryfs.New(), Logger: slog.New(slog.DiscardHandler)}
	srv := server.New(appCtx, "127.0.0.1:0", api.Config{StaticDir: "/static"})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	t.Run("ok/request_id_generated", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/strings/hello?name=Bob")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello, Bob!", string(body))
		assert.NotEmpty(t, resp.Header.Get(middleware.HeaderRequestID))
	})

	t.Run("ok/request_id_echoed", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/nope", nil)
		require.NoError(t, err)
		req.Header.Set(middleware.HeaderRequestID, "req-1")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "req-1", resp.Header.Get(middleware.HeaderRequestID))
	})

	t.Run("ok/static_io_error", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/static/missing.js")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "I/O error", string(body))
	})
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	appCtx := &actx.Context{FS: memoryfs.New(), Logger: slog.New(slog.DiscardHandler)}
	srv := server.New(appCtx, ":0", api.Config{})

	var paths []string
	for _, r := range srv.Routes() {
		paths = append(paths, r.Path)
	}

	assert.Equal(t, []string{
		"/hello",
		"/math/power-reciprocals-alt",
		"/static/",
		"/strings/async-hello",
		"/strings/hello",
		"/strings/lines",
	}, paths)
}
