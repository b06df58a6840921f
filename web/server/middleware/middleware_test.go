package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/hello/web/server/middleware"
)

var discardLogger = slog.New(slog.DiscardHandler)

func TestChain(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(mw("a"), mw("b"), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	t.Run("ok/no_handler", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		middleware.Chain().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("err/invalid_item", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { middleware.Chain("nope") })
	})
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reqID     string
		expReused bool
	}{
		{name: "ok/generated", reqID: ""},
		{name: "ok/client_provided", reqID: "abc123", expReused: true},
		{name: "ok/too_long", reqID: strings.Repeat("x", 129)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctxID string
			h := middleware.Chain(middleware.RequestID(), http.HandlerFunc(
				func(_ http.ResponseWriter, r *http.Request) {
					ctxID = middleware.GetRequestID(r.Context())
				}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.reqID != "" {
				req.Header.Set(middleware.HeaderRequestID, tt.reqID)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(middleware.HeaderRequestID)
			require.NotEmpty(t, got)
			assert.Equal(t, got, ctxID)
			if tt.expReused {
				assert.Equal(t, tt.reqID, got)
			} else {
				assert.NotEqual(t, tt.reqID, got)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("ok/panic_before_write", func(t *testing.T) {
		t.Parallel()

		h := middleware.Chain(middleware.Recover(discardLogger), http.HandlerFunc(
			func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", rec.Body.String())
	})

	t.Run("ok/no_panic", func(t *testing.T) {
		t.Parallel()

		h := middleware.Chain(middleware.Recover(discardLogger), http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("fine"))
			}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "fine", rec.Body.String())
	})

	t.Run("err/panic_after_write", func(t *testing.T) {
		t.Parallel()

		h := middleware.Chain(middleware.Recover(discardLogger), http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("partial"))
				panic("boom")
			}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestNegotiateEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		exp    string
	}{
		{header: "", exp: ""},
		{header: "identity", exp: ""},
		{header: "gzip", exp: "gzip"},
		{header: "br", exp: "br"},
		{header: "gzip, br", exp: "br"},
		{header: "gzip;q=1.0, br;q=0.5", exp: "gzip"},
		{header: "br;q=0, gzip", exp: "gzip"},
		{header: "br;q=0, gzip;q=0", exp: ""},
		{header: "*", exp: "br"},
		{header: "br;q=0, *", exp: "gzip"},
		{header: "deflate, GZIP", exp: "gzip"},
		{header: "br;q=abc, gzip", exp: "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, middleware.NegotiateEncoding(tt.header))
		})
	}
}

func TestAcceptsEncoding(t *testing.T) {
	t.Parallel()

	assert.True(t, middleware.AcceptsEncoding("gzip, br", "br"))
	assert.True(t, middleware.AcceptsEncoding("x-gzip", "gzip"))
	assert.True(t, middleware.AcceptsEncoding("*;q=0.1", "gzip"))
	assert.False(t, middleware.AcceptsEncoding("gzip", "br"))
	assert.False(t, middleware.AcceptsEncoding("br;q=0", "br"))
	assert.False(t, middleware.AcceptsEncoding("", "br"))
}

func TestCompress(t *testing.T) {
	t.Parallel()

	large := strings.Repeat("Item number: 1\n", 100)

	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		status         int
		body           string
		opts           []middleware.CompressOption
		expEncoding    string
		expVary        bool
	}{
		{name: "ok/gzip", acceptEncoding: "gzip", body: large, expEncoding: "gzip", expVary: true},
		{name: "ok/brotli", acceptEncoding: "gzip, br", body: large, expEncoding: "br", expVary: true},
		{name: "ok/no_accept", acceptEncoding: "", body: large, expVary: true},
		{name: "ok/unsupported_encoding", acceptEncoding: "zstd", body: large, expVary: true},
		{name: "ok/below_min_size", acceptEncoding: "br", body: "small", expVary: true},
		{
			name: "ok/min_size_zero", acceptEncoding: "br", body: "small",
			opts: []middleware.CompressOption{middleware.WithMinSize(0)}, expEncoding: "br", expVary: true,
		},
		{name: "ok/empty_body", acceptEncoding: "br", body: "",
			opts: []middleware.CompressOption{middleware.WithMinSize(0)}},
		{name: "ok/excluded_type", acceptEncoding: "br", contentType: "image/png", body: large},
		{name: "ok/no_content", acceptEncoding: "br", status: http.StatusNoContent},
		{
			name: "ok/gzip_level", acceptEncoding: "gzip", body: large,
			opts: []middleware.CompressOption{middleware.WithGzipLevel(9)}, expEncoding: "gzip", expVary: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := middleware.Chain(middleware.Compress(tt.opts...), http.HandlerFunc(
				func(w http.ResponseWriter, _ *http.Request) {
					ct := tt.contentType
					if ct == "" {
						ct = "text/plain; charset=utf-8"
					}
					w.Header().Set("Content-Type", ct)
					if tt.status != 0 {
						w.WriteHeader(tt.status)
					}
					// Write in chunks to exercise buffering.
					for chunk := range slicesChunk(tt.body, 100) {
						_, _ = w.Write([]byte(chunk))
					}
				}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			resp := rec.Result()
			expStatus := tt.status
			if expStatus == 0 {
				expStatus = http.StatusOK
			}
			assert.Equal(t, expStatus, resp.StatusCode)
			assert.Equal(t, tt.expEncoding, resp.Header.Get("Content-Encoding"))

			if tt.expVary {
				assert.Equal(t, []string{"Accept-Encoding"}, resp.Header.Values("Vary"))
			} else {
				assert.Empty(t, resp.Header.Values("Vary"))
			}
			if tt.expEncoding != "" {
				assert.Empty(t, resp.Header.Get("Content-Length"))
			}

			assert.Equal(t, tt.body, decode(t, tt.expEncoding, rec.Body.Bytes()))
		})
	}
}

func TestCompressRespectsExistingEncoding(t *testing.T) {
	t.Parallel()

	h := middleware.Chain(middleware.Compress(middleware.WithMinSize(0)), http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write([]byte("already compressed"))
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "already compressed", rec.Body.String())
}

func TestCompressVaryNotDuplicated(t *testing.T) {
	t.Parallel()

	h := middleware.Chain(middleware.Compress(middleware.WithMinSize(0)), http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Vary", "Origin, accept-encoding")
			_, _ = w.Write([]byte("hello"))
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, []string{"Origin, accept-encoding"}, rec.Header().Values("Vary"))
	assert.Equal(t, "hello", decode(t, "gzip", rec.Body.Bytes()))
}

func decode(t *testing.T, encoding string, data []byte) string {
	t.Helper()

	var r io.Reader
	switch encoding {
	case "br":
		r = brotli.NewReader(bytes.NewReader(data))
	case "gzip":
		gr, err := gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		r = gr
	default:
		return string(data)
	}

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func slicesChunk(s string, size int) func(func(string) bool) {
	return func(yield func(string) bool) {
		for len(s) > 0 {
			n := min(size, len(s))
			if !yield(s[:n]) {
				return
			}
			s = s[n:]
		}
	}
}
