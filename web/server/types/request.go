package types

import "net/http"

// Request defines the interface for HTTP request wrappers.
type Request interface {
	SetHTTPRequest(*http.Request)
	GetHTTPRequest() *http.Request
}

// BaseRequest provides a base implementation of Request. Endpoint request
// types embed it and declare their query parameters as tagged fields.
type BaseRequest struct {
	*http.Request `query:"-"`
}

var _ Request = (*BaseRequest)(nil)

// GetHTTPRequest returns the underlying HTTP request.
func (r *BaseRequest) GetHTTPRequest() *http.Request {
	return r.Request
}

// SetHTTPRequest sets the underlying HTTP request.
func (r *BaseRequest) SetHTTPRequest(req *http.Request) {
	r.Request = req
}
