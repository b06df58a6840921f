package handler

import (
	"context"

	"go.hackfix.me/hello/web/server/types"
)

// Content types of serialized responses.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Serializer is the interface for serializing the typed response value into
// the raw response data.
type Serializer interface {
	Serialize(ctx context.Context, resp types.Response) (context.Context, error)
}

// BodySerializer writes the response body as is, with a fixed content type.
type BodySerializer struct {
	contentType string
}

var _ Serializer = (*BodySerializer)(nil)

// Text returns a serializer for plain text responses.
func Text() BodySerializer {
	return BodySerializer{contentType: ContentTypeText}
}

// HTML returns a serializer for HTML responses.
func HTML() BodySerializer {
	return BodySerializer{contentType: ContentTypeHTML}
}

// Serialize stores the response body in the context for writing, and sets the
// Content-Type header. Responses with an error are left to the error writer,
// which always responds with plain text.
func (s BodySerializer) Serialize(ctx context.Context, resp types.Response) (context.Context, error) {
	if resp.GetError() != nil {
		return ctx, nil
	}

	ctx = setResponseData(ctx, []byte(resp.GetBody()))
	resp.GetHeader().Set("Content-Type", s.contentType)

	return ctx, nil
}
