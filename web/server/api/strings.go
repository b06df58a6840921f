package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.hackfix.me/hello/compute"
	"go.hackfix.me/hello/web/server/types"
)

// Hello greets the name given in the request, or the world if it's empty.
func (h *Handler) Hello(_ context.Context, req *types.HelloRequest) (*types.TextResponse, error) {
	greeting, err := compute.Greeting(req.Name)
	if err != nil {
		if errors.Is(err, compute.ErrTooLong) {
			return nil, types.NewBadRequestError(err.Error())
		}
		return nil, err
	}

	return types.NewTextResponse(greeting), nil
}

// AsyncHello responds with the default greeting after a short delay. The wait
// doesn't block other requests, and is aborted if the client goes away.
func (h *Handler) AsyncHello(ctx context.Context, _ *types.AsyncHelloRequest) (*types.TextResponse, error) {
	timer := time.NewTimer(h.asyncDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		h.logger.Debug("delayed greeting canceled", "error", ctx.Err().Error())
		return nil, types.NewError(http.StatusRequestTimeout, ctx.Err().Error())
	}

	return types.NewTextResponse(compute.DefaultGreeting), nil
}

// Lines responds with an HTML ordered list of N items.
func (h *Handler) Lines(_ context.Context, req *types.LinesRequest) (*types.HTMLResponse, error) {
	return types.NewHTMLResponse(compute.NumberedList(req.N)), nil
}
