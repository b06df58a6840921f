package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	actx "go.hackfix.me/hello/app/context"
	aerrors "go.hackfix.me/hello/app/errors"
	"go.hackfix.me/hello/web/client"
)

// Call sends a request to a running web server, and prints the response body.
type Call struct {
	Address  string        `default:"127.0.0.1:8080" help:"[host]:port of the web server."`
	Timeout  time.Duration `default:"30s" help:"Maximum time to wait for the response."`
	Endpoint string        `arg:"" enum:"hello,async-hello,lines,series,static" help:"Endpoint to call. Valid values: ${enum}"`
	//nolint:lll // Long struct tags are unavoidable.
	Arg string `arg:"" optional:"" help:"Endpoint argument: the name to greet for hello, the number of items or terms for lines and series, and the file path for static."`
}

// Run the call command.
func (c *Call) Run(appCtx *actx.Context) error {
	ctx, cancel := context.WithTimeout(appCtx.Ctx, c.Timeout)
	defer cancel()

	cl := client.New(c.Address, appCtx.Logger)

	var (
		body string
		err  error
	)
	switch c.Endpoint {
	case "hello":
		body, err = cl.Hello(ctx, c.Arg)
	case "async-hello":
		body, err = cl.AsyncHello(ctx)
	case "lines", "series":
		var n uint32
		if n, err = c.parseN(); err != nil {
			return err
		}
		if c.Endpoint == "lines" {
			body, err = cl.Lines(ctx, n)
		} else {
			body, err = cl.PowerReciprocalsAlt(ctx, n)
		}
	case "static":
		body, err = cl.Static(ctx, c.Arg)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(appCtx.Stdout, body)

	return err //nolint:wrapcheck // This is fine.
}

func (c *Call) parseN() (uint32, error) {
	if c.Arg == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(c.Arg, 10, 32)
	if err != nil {
		return 0, aerrors.NewWithCause("invalid argument: expected an unsigned 32-bit integer", err,
			"endpoint", c.Endpoint, "arg", c.Arg)
	}

	return uint32(n), nil
}
