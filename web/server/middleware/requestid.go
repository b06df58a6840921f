package middleware

import (
	"context"
	"net/http"

	"github.com/nrednav/cuid2"
)

// HeaderRequestID is the header carrying the request ID.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength is the maximum length of a client-provided request ID.
// Longer values are replaced with a generated one.
const maxRequestIDLength = 128

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// RequestID assigns an ID to every request. The ID is taken from the
// X-Request-ID request header if present, or generated otherwise. It's set on
// the response header and stored in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > maxRequestIDLength {
				id = cuid2.Generate()
			}

			w.Header().Set(HeaderRequestID, id)
			ctx := context.WithValue(r.Context(), contextKeyRequestID, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request ID stored in ctx by RequestID, or an empty
// string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return v
	}
	return ""
}
