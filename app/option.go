package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/hello/app/context"
)

// Option is a function that allows configuring the application.
type Option func(*App)

// WithContext sets the main context.
func WithContext(ctx context.Context) Option {
	return func(app *App) {
		app.ctx.Ctx = ctx
	}
}

// WithEnv sets the process environment used by the application.
func WithEnv(env actx.Environment) Option {
	return func(app *App) {
		app.ctx.Env = env
	}
}

// WithFDs sets the file descriptors used by the application.
func WithFDs(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(app *App) {
		app.ctx.Stdin = stdin
		app.ctx.Stdout = stdout
		app.ctx.Stderr = stderr
	}
}

// WithFS sets the filesystem used by the application.
func WithFS(fs vfs.FileSystem) Option {
	return func(app *App) {
		app.ctx.FS = fs
	}
}

// WithLogger initializes a logger that writes to the stderr stream, so it must
// be passed after WithFDs. Colors are only used if stderr is a terminal. The
// level is set from the --log-level flag when the app runs.
func WithLogger(isStderrTTY bool) Option {
	return func(app *App) {
		app.logLevel = &slog.LevelVar{}
		app.ctx.Logger = slog.New(tint.NewHandler(app.ctx.Stderr, &tint.Options{
			Level:      app.logLevel,
			NoColor:    !isStderrTTY,
			TimeFormat: time.DateTime + ".000",
		}))
		slog.SetDefault(app.ctx.Logger)
	}
}

// WithVersion overrides the version read from the build information.
func WithVersion(version *actx.VersionInfo) Option {
	return func(app *App) {
		app.ctx.Version = version
	}
}

// WithTimeNow sets the function used to retrieve the current system time.
func WithTimeNow(timeNowFn func() time.Time) Option {
	return func(app *App) {
		app.ctx.TimeNow = timeNowFn
	}
}
