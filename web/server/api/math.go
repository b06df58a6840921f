package api

import (
	"context"

	"go.hackfix.me/hello/compute"
	"go.hackfix.me/hello/web/server/types"
)

// PowerReciprocalsAlt responds with the sum of the first N terms of the
// alternating series of reciprocal powers of 2.
func (h *Handler) PowerReciprocalsAlt(_ context.Context, req *types.SeriesRequest) (*types.TextResponse, error) {
	sum := compute.PowerReciprocalsAlt(req.N)
	return types.NewTextResponse(compute.FormatDecimal(sum)), nil
}
