package types

import "net/http"

// Response defines the interface for HTTP response wrappers.
type Response interface {
	GetStatusCode() int
	SetStatusCode(int)
	GetError() error
	SetError(error)
	GetHeader() http.Header
	SetHeader(http.Header)
	GetBody() string
}

// BaseResponse provides a base implementation of Response.
type BaseResponse struct {
	StatusCode int
	Err        error
	Body       string

	header http.Header
}

var _ Response = (*BaseResponse)(nil)

// NewBaseResponse returns a response with the given status code and body.
func NewBaseResponse(statusCode int, body string) BaseResponse {
	return BaseResponse{StatusCode: statusCode, Body: body}
}

// GetStatusCode returns the HTTP status code for the response. A zero status
// is reported as 200 OK.
func (r *BaseResponse) GetStatusCode() int {
	if r.StatusCode == 0 {
		return http.StatusOK
	}
	return r.StatusCode
}

// SetStatusCode sets the HTTP status code for the response.
func (r *BaseResponse) SetStatusCode(code int) {
	r.StatusCode = code
}

// GetError returns the error set on the response, if any.
func (r *BaseResponse) GetError() error {
	return r.Err
}

// SetError sets the response error.
func (r *BaseResponse) SetError(err error) {
	r.Err = err
}

// GetHeader returns the response header map.
func (r *BaseResponse) GetHeader() http.Header {
	if r.header == nil {
		r.header = http.Header{}
	}
	return r.header
}

// SetHeader sets the response header map.
func (r *BaseResponse) SetHeader(h http.Header) {
	r.header = h
}

// GetBody returns the response body.
func (r *BaseResponse) GetBody() string {
	return r.Body
}
