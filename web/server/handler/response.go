package handler

import (
	"context"
	"errors"
	"net/http"

	"go.hackfix.me/hello/web/server/types"
)

// ResponseProcessor processes outgoing responses and can modify the response or context.
type ResponseProcessor func(ctx context.Context, resp types.Response) (context.Context, error)

func writeResponse(ctx context.Context, w http.ResponseWriter, resp types.Response) error {
	data := getResponseData(ctx)

	// Respond with at least some kind of useful response, even if it's invalid.
	var terr *types.Error
	if len(data) == 0 && errors.As(resp.GetError(), &terr) {
		data = []byte(terr.Message)
		w.Header().Set("Content-Type", ContentTypeText)
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", ContentTypeText)
	}

	w.WriteHeader(resp.GetStatusCode())
	_, err := w.Write(data)

	return err //nolint:wrapcheck // Wrapped by caller.
}
