// Package api implements the HTTP endpoint handlers and binds them to routes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	actx "go.hackfix.me/hello/app/context"
	"go.hackfix.me/hello/web/server/handler"
	"go.hackfix.me/hello/web/server/middleware"
	"go.hackfix.me/hello/web/server/router"
	"go.hackfix.me/hello/web/server/static"
	"go.hackfix.me/hello/web/server/types"
)

// DefaultAsyncDelay is the time the delayed greeting endpoint waits before
// responding.
const DefaultAsyncDelay = 15 * time.Millisecond

// Config defines the route setup parameters.
type Config struct {
	// StaticDir is the directory in the app filesystem served under /static/.
	StaticDir string
	// CompressMinSize is the minimum response body size for compression.
	CompressMinSize int
	// ErrorLevel is the detail level of error messages sent to clients.
	ErrorLevel types.ErrorLevel
	// AsyncDelay overrides DefaultAsyncDelay if set.
	AsyncDelay time.Duration
}

// Handler is the API endpoint handler.
type Handler struct {
	logger     *slog.Logger
	asyncDelay time.Duration
}

// SetupRoutes configures the web API routes.
func SetupRoutes(appCtx *actx.Context, cfg Config, logger *slog.Logger) *router.Router {
	h := &Handler{logger: logger, asyncDelay: cfg.AsyncDelay}
	if h.asyncDelay == 0 {
		h.asyncDelay = DefaultAsyncDelay
	}
	if cfg.ErrorLevel == "" {
		cfg.ErrorLevel = types.ErrorLevelMinimal
	}

	pipeline := handler.NewPipeline().
		ProcessRequest(handler.DecodeQuery).
		ErrorLevel(cfg.ErrorLevel).
		Logger(logger)
	textPipeline := pipeline.Clone().Serializer(handler.Text())
	htmlPipeline := pipeline.Clone().Serializer(handler.HTML())

	// A single compression instance is shared by all compressed routes.
	compress := router.Layer{
		Name: "compress",
		Middleware: middleware.Compress(
			middleware.WithMinSize(cfg.CompressMinSize),
			middleware.WithCompressLogger(logger),
		),
	}

	r := router.New()

	r.Group("", compress).Get("/hello", handler.Handle(h.Hello, textPipeline))

	strs := r.Group("/strings", compress)
	strs.Get("/hello", handler.Handle(h.Hello, textPipeline))
	strs.Get("/async-hello", handler.Handle(h.AsyncHello, textPipeline))
	strs.Get("/lines", handler.Handle(h.Lines, htmlPipeline))

	math := r.Group("/math", compress)
	math.Get("/power-reciprocals-alt", handler.Handle(h.PowerReciprocalsAlt, textPipeline))

	staticHandler := static.New(appCtx.FS, cfg.StaticDir, logger.With("component", "static"))
	r.Mount("/static/", http.StripPrefix("/static", staticHandler))

	return r
}
