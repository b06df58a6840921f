package types

import "net/http"

// HelloRequest is the request for the greeting endpoint.
type HelloRequest struct {
	BaseRequest
	Name string `query:"name"`
}

// AsyncHelloRequest is the request for the delayed greeting endpoint. It has
// no parameters.
type AsyncHelloRequest struct {
	BaseRequest
}

// LinesRequest is the request for the numbered list endpoint.
type LinesRequest struct {
	BaseRequest
	N uint32 `query:"n"`
}

// TextResponse is a plain text response.
type TextResponse struct {
	BaseResponse
}

// NewTextResponse returns a plain text response with status 200 OK.
func NewTextResponse(text string) *TextResponse {
	return &TextResponse{BaseResponse: NewBaseResponse(http.StatusOK, text)}
}

// HTMLResponse is an HTML response.
type HTMLResponse struct {
	BaseResponse
}

// NewHTMLResponse returns an HTML response with status 200 OK.
func NewHTMLResponse(html string) *HTMLResponse {
	return &HTMLResponse{BaseResponse: NewBaseResponse(http.StatusOK, html)}
}
