// Package static serves files from a directory of a virtual filesystem.
package static

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/felixge/httpsnoop"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/mr-tron/base58"

	"go.hackfix.me/hello/web/server/middleware"
)

// IOErrorMessage is the response body sent when a file can't be served.
const IOErrorMessage = "I/O error"

// IOError is returned when a file can't be read from the filesystem.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed reading %s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// variants are the precompressed file variants, in order of preference.
var variants = []struct {
	encoding  string
	extension string
}{
	{middleware.EncodingBrotli, ".br"},
	{middleware.EncodingGzip, ".gz"},
}

// Handler serves files from a directory of a filesystem. Requests for a
// directory are served its index.html file. Precompressed variants of a file
// (e.g. main.css.br) are served instead of the file itself to clients that
// accept their encoding.
//
// Any failure reading a file, including a missing file, is answered with 500
// Internal Server Error and a fixed message. The underlying error is only
// logged.
type Handler struct {
	fs     vfs.FileSystem
	root   string
	logger *slog.Logger
}

var _ http.Handler = (*Handler)(nil)

// New returns a new Handler serving files from the root directory of fs.
func New(fs vfs.FileSystem, root string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{fs: fs, root: root, logger: logger}
}

// ServeHTTP implements the http.Handler interface. The request URL path is
// resolved relative to the root directory.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Cleaning a rooted path removes any ".." elements that would escape root.
	name := path.Join(h.root, path.Clean("/"+r.URL.Path))

	name, err := h.resolve(name)
	if err != nil {
		h.ioError(w, r, err)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	w.Header().Add("Vary", "Accept-Encoding")

	servedName, encoding := name, ""
	acceptEncoding := r.Header.Get("Accept-Encoding")
	for _, v := range variants {
		if !middleware.AcceptsEncoding(acceptEncoding, v.encoding) {
			continue
		}
		if fi, err := h.fs.Stat(name + v.extension); err == nil && fi.Mode().IsRegular() {
			servedName, encoding = name+v.extension, v.encoding
			break
		}
	}

	f, err := h.fs.Open(servedName)
	if err != nil {
		h.ioError(w, r, &IOError{Path: servedName, Err: err})
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		h.ioError(w, r, &IOError{Path: servedName, Err: err})
		return
	}

	if encoding != "" {
		// The content of a compressed variant can't be sniffed.
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		w.Header().Set("Content-Encoding", encoding)
	}
	if ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.Header().Set("ETag", etag(servedName, fi))

	// Not every vfs implementation can seek to the end of a file, which
	// ServeContent does to find the content size.
	content := io.NewSectionReader(f, 0, fi.Size())
	http.ServeContent(h.interceptErrors(w, r, servedName), r, path.Base(name), fi.ModTime(), content)
}

// interceptErrors returns a writer that replaces server error responses
// written by http.ServeContent with the fixed I/O error response.
func (h *Handler) interceptErrors(w http.ResponseWriter, r *http.Request, name string) http.ResponseWriter {
	var failed bool
	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				if code < http.StatusInternalServerError {
					next(code)
					return
				}
				failed = true
				h.ioError(w, r, &IOError{
					Path: name, Err: fmt.Errorf("serving content failed with status %d", code),
				})
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				if failed {
					return len(b), nil
				}
				return next(b)
			}
		},
	})
}

// resolve returns the path of the regular file to serve for name, which is
// either name itself or the index.html file in the name directory.
func (h *Handler) resolve(name string) (string, error) {
	fi, err := h.fs.Stat(name)
	if err != nil {
		return "", &IOError{Path: name, Err: err}
	}

	if fi.IsDir() {
		name = path.Join(name, "index.html")
		if fi, err = h.fs.Stat(name); err != nil {
			return "", &IOError{Path: name, Err: err}
		}
	}

	if !fi.Mode().IsRegular() {
		return "", &IOError{Path: name, Err: errors.New("not a regular file")}
	}

	return name, nil
}

func (h *Handler) ioError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Debug("failed serving static file", "url", r.URL.String(), "error", err.Error())

	hdr := w.Header()
	for _, k := range []string{"Vary", "Content-Encoding", "Content-Length", "ETag", "Last-Modified"} {
		hdr.Del(k)
	}
	hdr.Set("Content-Type", "text/plain; charset=utf-8")
	hdr.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(IOErrorMessage))
}

// etag returns a strong entity tag derived from the file path, size and
// modification time.
func etag(name string, fi os.FileInfo) string {
	hash := sha256.New()
	hash.Write([]byte(name))
	hash.Write(binary.BigEndian.AppendUint64(nil, uint64(fi.Size())))             //nolint:gosec // Sizes are never negative.
	hash.Write(binary.BigEndian.AppendUint64(nil, uint64(fi.ModTime().UnixNano()))) //nolint:gosec // Only used as hash input.
	sum := hash.Sum(nil)

	return `"` + base58.Encode(sum[:16]) + `"`
}
