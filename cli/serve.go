package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"go.hackfix.me/hello/app/config"
	actx "go.hackfix.me/hello/app/context"
	aerrors "go.hackfix.me/hello/app/errors"
	"go.hackfix.me/hello/web/server"
	"go.hackfix.me/hello/web/server/api"
	stypes "go.hackfix.me/hello/web/server/types"
)

// Serve starts the web server.
//
// Flags that aren't set on the command line or in the environment take their
// value from the configuration file, and then from the built-in defaults.
type Serve struct {
	//nolint:lll // Long struct tags are unavoidable.
	Address         string         `arg:"" optional:"" help:"[host]:port to listen on. If not set, the PORT environment variable is used to listen on 0.0.0.0:$PORT, and then the configured address, or ${address}."`
	StaticDir       *string        `help:"Directory served under /static/. Default: ${staticDir}"`
	CompressMinSize *int           `help:"Minimum response body size in bytes for compression to be applied. 0 compresses all eligible responses. Default: ${compressMinSize}"`
	//nolint:lll // Long struct tags are unavoidable.
	ErrorLevel      *string        `enum:"none,minimal,full" help:"Detail level of error messages returned to clients. This doesn't affect response status codes. Valid values: ${enum}. Default: ${errorLevel} \n none: hide all error messages; minimal: hide server error messages; full: keep error messages intact"`
	ShutdownTimeout *time.Duration `help:"Maximum time to wait for in-flight requests when shutting down. Default: ${shutdownTimeout}"`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	addr, err := c.resolveAddress(appCtx)
	if err != nil {
		return err
	}

	opts := c.settings(appCtx.Config)

	if opts.CompressMinSize.V < 0 {
		return aerrors.NewWith("invalid compression minimum size: must not be negative",
			"compress_min_size", opts.CompressMinSize.V)
	}

	errLvl, err := stypes.ErrorLevelFromString(opts.ErrorLevel.V)
	if err != nil {
		return err //nolint:wrapcheck // The error is descriptive enough.
	}

	srv := server.New(appCtx, addr, api.Config{
		StaticDir:       opts.StaticDir.V,
		CompressMinSize: opts.CompressMinSize.V,
		ErrorLevel:      errLvl,
	})

	appCtx.Logger.Info("starting web server",
		"version", appCtx.Version.String(), "cpus", runtime.NumCPU(),
		"static_dir", opts.StaticDir.V, "compress_min_size", opts.CompressMinSize.V,
		"error_level", opts.ErrorLevel.V, "shutdown_timeout", opts.ShutdownTimeout.V)
	startedAt := appCtx.TimeNow()

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	// See https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
	srvDone := make(chan error, 1)
	go func() {
		srvErr := srv.ListenAndServe()
		appCtx.Logger.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		appCtx.Logger.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		appCtx.Logger.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			return fmt.Errorf("web server error: %w", srvErr)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(appCtx.Ctx), opts.ShutdownTimeout.V)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	appCtx.Logger.Info("stopped web server", "uptime", appCtx.TimeNow().Sub(startedAt).Round(time.Millisecond))

	return nil
}

// settings returns the server settings to use. Flag values take precedence
// over cfg, and any remaining unset values are filled with defaults.
func (c *Serve) settings(cfg *config.Config) config.Server {
	merged := config.Config{}
	if cfg != nil {
		merged.Server = cfg.Server
	}

	if c.StaticDir != nil {
		merged.Server.StaticDir = sql.Null[string]{V: *c.StaticDir, Valid: true}
	}
	if c.CompressMinSize != nil {
		merged.Server.CompressMinSize = sql.Null[int]{V: *c.CompressMinSize, Valid: true}
	}
	if c.ErrorLevel != nil {
		merged.Server.ErrorLevel = sql.Null[string]{V: *c.ErrorLevel, Valid: true}
	}
	if c.ShutdownTimeout != nil {
		merged.Server.ShutdownTimeout = sql.Null[time.Duration]{V: *c.ShutdownTimeout, Valid: true}
	}
	merged.SetDefaults()

	return merged.Server
}

// resolveAddress returns the address to listen on. The address argument takes
// precedence, followed by the PORT environment variable, and the configured
// address.
func (c *Serve) resolveAddress(appCtx *actx.Context) (string, error) {
	if c.Address != "" {
		return c.Address, nil
	}

	if port := appCtx.Env.Get("PORT"); port != "" {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return "", aerrors.NewWithCause(
				fmt.Sprintf("invalid PORT environment variable value '%s'", port), err,
				"port", port)
		}
		return net.JoinHostPort("0.0.0.0", strconv.FormatUint(p, 10)), nil
	}

	if appCtx.Config != nil && appCtx.Config.Server.Address.Valid {
		return appCtx.Config.Server.Address.V, nil
	}

	return "", errors.New("no address to listen on")
}
