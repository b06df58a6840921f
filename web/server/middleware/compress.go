package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Supported content encodings.
const (
	EncodingBrotli = "br"
	EncodingGzip   = "gzip"
)

// CompressOption configures the Compress middleware.
type CompressOption func(*compressConfig)

type compressConfig struct {
	minSize             int
	gzipLevel           int
	brotliLevel         int
	excludeContentTypes []string
	logger              *slog.Logger
}

// WithMinSize sets the minimum body size in bytes for a response to be
// compressed. Responses are buffered up to this size before deciding. 0
// compresses all non-empty responses.
func WithMinSize(size int) CompressOption {
	return func(cfg *compressConfig) {
		cfg.minSize = max(size, 0)
	}
}

// WithGzipLevel sets the gzip compression level (1-9, or -1 for the default).
func WithGzipLevel(level int) CompressOption {
	return func(cfg *compressConfig) {
		if level == gzip.DefaultCompression || (level >= gzip.BestSpeed && level <= gzip.BestCompression) {
			cfg.gzipLevel = level
		}
	}
}

// WithBrotliLevel sets the Brotli compression level (0-11).
func WithBrotliLevel(level int) CompressOption {
	return func(cfg *compressConfig) {
		if level >= brotli.BestSpeed && level <= brotli.BestCompression {
			cfg.brotliLevel = level
		}
	}
}

// WithExcludeContentTypes disables compression for responses whose
// Content-Type contains any of the given values.
func WithExcludeContentTypes(contentTypes ...string) CompressOption {
	return func(cfg *compressConfig) {
		for _, ct := range contentTypes {
			cfg.excludeContentTypes = append(cfg.excludeContentTypes, strings.ToLower(ct))
		}
	}
}

// WithCompressLogger sets the logger used to report compression failures.
func WithCompressLogger(logger *slog.Logger) CompressOption {
	return func(cfg *compressConfig) {
		cfg.logger = logger
	}
}

// Compress returns a middleware that compresses response bodies with Brotli or
// gzip, depending on the encodings accepted by the client. Brotli is preferred
// when both are equally acceptable.
//
// Encoder instances are pooled per returned middleware, so a single instance
// should be shared by all the routes it applies to.
func Compress(opts ...CompressOption) Middleware {
	cfg := &compressConfig{
		minSize:     256,
		gzipLevel:   gzip.DefaultCompression,
		brotliLevel: 4,
		excludeContentTypes: []string{
			"application/octet-stream", "text/event-stream", "image/", "video/", "audio/",
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	pools := map[string]*sync.Pool{
		EncodingBrotli: {New: func() any {
			return brotli.NewWriterLevel(io.Discard, cfg.brotliLevel)
		}},
		EncodingGzip: {New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel) //nolint:errcheck // The level is validated.
			return w
		}},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}

			// Without an acceptable encoding the response is never compressed,
			// but it still varies by Accept-Encoding.
			encoding := NegotiateEncoding(r.Header.Get("Accept-Encoding"))
			cw := &compressWriter{
				ResponseWriter: w,
				cfg:            cfg,
				encoding:       encoding,
				pool:           pools[encoding],
			}
			defer func() {
				if err := cw.Close(); err != nil {
					cfg.logger.Debug("failed finalizing compressed response",
						"encoding", encoding, "url", r.URL.String(), "error", err.Error())
				}
			}()

			next.ServeHTTP(cw, r)
		})
	}
}

// NegotiateEncoding returns the preferred supported encoding in an
// Accept-Encoding header value, or an empty string if none is acceptable.
// Quality values are honored, and Brotli wins ties with gzip.
func NegotiateEncoding(acceptEncoding string) string {
	if acceptEncoding == "" {
		return ""
	}

	qvals := parseAcceptEncoding(acceptEncoding)
	qBr, qGzip := qvals.quality(EncodingBrotli), qvals.quality(EncodingGzip)

	switch {
	case qBr > 0 && qBr >= qGzip:
		return EncodingBrotli
	case qGzip > 0:
		return EncodingGzip
	default:
		return ""
	}
}

// AcceptsEncoding reports whether the Accept-Encoding header value allows
// the given encoding.
func AcceptsEncoding(acceptEncoding, encoding string) bool {
	if acceptEncoding == "" {
		return false
	}
	return parseAcceptEncoding(acceptEncoding).quality(encoding) > 0
}

type qualities map[string]float64

// quality returns the quality value of encoding. A wildcard applies to the
// encodings that weren't listed explicitly.
func (q qualities) quality(encoding string) float64 {
	if v, ok := q[encoding]; ok {
		return v
	}
	return q["*"]
}

func parseAcceptEncoding(acceptEncoding string) qualities {
	qvals := qualities{}
	for part := range strings.SplitSeq(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if qs, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(qs), 64)
			if err != nil {
				continue
			}
			q = v
		}

		name = strings.ToLower(strings.TrimSpace(name))
		if name == "x-gzip" {
			name = EncodingGzip
		}
		if name != "" {
			qvals[name] = q
		}
	}

	return qvals
}

type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(io.Writer)
}

// compressWriter buffers the response body until it reaches the minimum size,
// and then either compresses it, or writes it unchanged.
type compressWriter struct {
	http.ResponseWriter
	cfg      *compressConfig
	encoding string
	pool     *sync.Pool

	enc      encoder
	buf      []byte
	status   int
	decided  bool
	compress bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.status != 0 {
		return
	}
	cw.status = code

	if !cw.eligible() {
		_ = cw.decide(false)
	}
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	if cw.status == 0 {
		cw.WriteHeader(http.StatusOK)
	}

	if cw.decided {
		if cw.compress {
			return cw.enc.Write(p) //nolint:wrapcheck // Passthrough.
		}
		return cw.ResponseWriter.Write(p) //nolint:wrapcheck // Passthrough.
	}

	cw.buf = append(cw.buf, p...)
	if len(cw.buf) >= max(cw.cfg.minSize, 1) {
		if err := cw.decide(true); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

// Flush sends any buffered data to the client. Data below the minimum size is
// sent uncompressed.
func (cw *compressWriter) Flush() {
	if !cw.decided {
		if cw.status == 0 {
			cw.status = http.StatusOK
		}
		_ = cw.decide(len(cw.buf) > 0 && len(cw.buf) >= cw.cfg.minSize)
	}
	if cw.compress {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying writer, for use by http.ResponseController.
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// Close writes any buffered data, finalizes the compressed stream, and returns
// the encoder to the pool.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		if cw.status == 0 {
			// Nothing was written, so let the server send its default response.
			return nil
		}
		if err := cw.decide(false); err != nil {
			return err
		}
	}

	if !cw.compress {
		return nil
	}

	err := cw.enc.Close()
	cw.enc.Reset(io.Discard)
	cw.pool.Put(cw.enc)
	cw.enc = nil
	cw.compress = false

	return err //nolint:wrapcheck // Wrapped by caller.
}

func (cw *compressWriter) eligible() bool {
	switch cw.status {
	case http.StatusNoContent, http.StatusNotModified, http.StatusPartialContent:
		return false
	}
	if cw.status < http.StatusOK {
		return false
	}

	h := cw.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}

	ct := strings.ToLower(h.Get("Content-Type"))
	for _, excluded := range cw.cfg.excludeContentTypes {
		if ct != "" && strings.Contains(ct, excluded) {
			return false
		}
	}

	return true
}

// decide sends the response header and any buffered data, compressing it if
// compress is true.
func (cw *compressWriter) decide(compress bool) error {
	if cw.eligible() {
		addVary(cw.Header(), "Accept-Encoding")
	}

	compress = compress && cw.encoding != ""
	cw.decided = true
	cw.compress = compress

	if compress {
		h := cw.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", cw.encoding)

		cw.enc = cw.pool.Get().(encoder) //nolint:forcetypeassert // Only encoders are put in the pool.
		cw.enc.Reset(cw.ResponseWriter)
	}

	cw.ResponseWriter.WriteHeader(cw.status)

	if len(cw.buf) == 0 {
		return nil
	}

	buf := cw.buf
	cw.buf = nil

	var err error
	if compress {
		_, err = cw.enc.Write(buf)
	} else {
		_, err = cw.ResponseWriter.Write(buf)
	}

	return err //nolint:wrapcheck // Passthrough.
}

// addVary adds field to the Vary header, unless it's already listed.
func addVary(h http.Header, field string) {
	for _, v := range h.Values("Vary") {
		for name := range strings.SplitSeq(v, ",") {
			name = strings.TrimSpace(name)
			if name == "*" || strings.EqualFold(name, field) {
				return
			}
		}
	}
	h.Add("Vary", field)
}
