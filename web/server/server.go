package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	actx "go.hackfix.me/hello/app/context"
	"go.hackfix.me/hello/web/server/api"
	"go.hackfix.me/hello/web/server/middleware"
	"go.hackfix.me/hello/web/server/router"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	router *router.Router
	logger *slog.Logger
}

// New returns a new web Server instance that will listen on addr, and serve
// the API routes configured with cfg.
func New(appCtx *actx.Context, addr string, cfg api.Config) *Server {
	logger := appCtx.Logger.With("component", "web-server")
	r := api.SetupRoutes(appCtx, cfg, logger)

	return &Server{
		Server: &http.Server{
			Handler:           SetupHandlers(r, logger),
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      time.Minute,
		},
		router: r,
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server. It stores the actual listen address,
// which is convenient when the address is dynamically determined by the system
// (e.g. ':0').
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	s.router.Freeze()
	s.Addr = ln.Addr().String()
	s.logger.Info("started listener", "address", s.Addr)

	//nolint:wrapcheck // This is fine.
	return s.Serve(ln)
}

// Routes returns the routes served by the server.
func (s *Server) Routes() []router.RouteInfo {
	return s.router.Routes()
}

// SetupHandlers wraps the router with the middleware applied to every request.
func SetupHandlers(r *router.Router, logger *slog.Logger) http.Handler {
	return middleware.Chain(
		middleware.Logger(logger),
		middleware.RequestID(),
		middleware.Recover(logger),
		r,
	)
}
