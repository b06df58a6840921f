package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	aerrors "go.hackfix.me/hello/app/errors"
	"go.hackfix.me/hello/web/server/middleware"
)

// Client is a friendly interface over the HTTP API.
type Client struct {
	*http.Client
	address string
	logger  *slog.Logger
}

// New returns a new client for the server listening on address, in host:port
// format. Responses are requested with Brotli or gzip compression, and
// decompressed transparently.
func New(address string, logger *slog.Logger) *Client {
	return &Client{
		Client: &http.Client{
			Timeout: time.Minute,
			Transport: &http.Transport{
				// Compression is negotiated and decoded by Client.get.
				DisableCompression: true,
			},
		},
		address: address,
		logger:  logger.With("component", "web-client"),
	}
}

// Hello returns a greeting for name. An empty name greets the world.
func (c *Client) Hello(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}
	return c.get(ctx, "/strings/hello", query)
}

// AsyncHello returns the default greeting from the delayed greeting endpoint.
func (c *Client) AsyncHello(ctx context.Context) (string, error) {
	return c.get(ctx, "/strings/async-hello", nil)
}

// Lines returns an HTML ordered list of n items.
func (c *Client) Lines(ctx context.Context, n uint32) (string, error) {
	return c.get(ctx, "/strings/lines", url.Values{"n": {strconv.FormatUint(uint64(n), 10)}})
}

// PowerReciprocalsAlt returns the decimal representation of the sum of the
// first n terms of the alternating series of reciprocal powers of 2.
func (c *Client) PowerReciprocalsAlt(ctx context.Context, n uint32) (string, error) {
	return c.get(ctx, "/math/power-reciprocals-alt", url.Values{"n": {strconv.FormatUint(uint64(n), 10)}})
}

// Static returns the content of the file at path under the static directory.
func (c *Client) Static(ctx context.Context, path string) (string, error) {
	return c.get(ctx, "/static/"+path, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (body string, rerr error) {
	u := &url.URL{Scheme: "http", Host: c.address, Path: path, RawQuery: query.Encode()}

	errFields := []any{"url", u.String(), "method", http.MethodGet}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", aerrors.NewWithCause("failed creating request", err, errFields...)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.Do(req)
	if err != nil {
		return "", aerrors.NewWithCause("failed sending request", err, errFields...)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing response body: %w", err)
		}
	}()

	errFields = append(errFields, "status_code", resp.StatusCode, "status", resp.Status)
	if reqID := resp.Header.Get(middleware.HeaderRequestID); reqID != "" {
		errFields = append(errFields, "request_id", reqID)
	}

	bodyR, err := decodeBody(resp)
	if err != nil {
		return "", aerrors.NewWithCause("failed decoding response body", err, errFields...)
	}

	respBody, err := io.ReadAll(bodyR)
	if err != nil {
		return "", aerrors.NewWithCause("failed reading response body", err, errFields...)
	}

	if resp.StatusCode != http.StatusOK {
		errFields = append(errFields, "message", string(respBody))
		return "", aerrors.NewWith("request failed", errFields...)
	}

	c.logger.Debug("request succeeded", "url", u.String(),
		"content_encoding", resp.Header.Get("Content-Encoding"), "size", len(respBody))

	return string(respBody), nil
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch enc := resp.Header.Get("Content-Encoding"); enc {
	case "":
		return resp.Body, nil
	case middleware.EncodingBrotli:
		return brotli.NewReader(resp.Body), nil
	case middleware.EncodingGzip:
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed creating gzip reader: %w", err)
		}
		return gr, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding '%s'", enc)
	}
}
