package types

// SeriesRequest is the request for the series computation endpoints.
type SeriesRequest struct {
	BaseRequest
	N uint32 `query:"n"`
}
