package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
)

// Recover converts panics in downstream handlers into 500 Internal Server
// Error responses. If the handler already started writing the response, the
// connection is aborted instead.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var wroteHeader bool
			ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
				WriteHeader: func(whf httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
					return func(code int) {
						wroteHeader = true
						whf(code)
					}
				},
				Write: func(wf httpsnoop.WriteFunc) httpsnoop.WriteFunc {
					return func(b []byte) (int, error) {
						wroteHeader = true
						return wf(b)
					}
				},
				ReadFrom: func(rff httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
					return func(src io.Reader) (int64, error) {
						wroteHeader = true
						return rff(src)
					}
				},
			})

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("recovered from panic",
					"method", r.Method, "url", r.URL.String(),
					"request_id", GetRequestID(r.Context()),
					"panic", rec, "stack", string(debug.Stack()))

				if wroteHeader {
					panic(http.ErrAbortHandler)
				}

				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Del("Content-Encoding")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
