package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"

	"go.hackfix.me/hello/web/server/types"
)

// Handle creates an HTTP handler function that processes requests through a
// configurable pipeline. It supports generic request/response types and handles
// request decoding, validation, response serialization, and error handling
// automatically.
//
// It relies on reflection to instantiate the request and response types, and
// passes values between components using the request context.
func Handle[Req types.Request, Resp types.Response](
	handlerFn func(context.Context, Req) (Resp, error),
	p *Pipeline,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ctx  = r.Context()
			req  = createInstance[Req]()
			resp = createInstance[Resp]()
			err  error
		)

		req.SetHTTPRequest(r)

		handleErr := errorHandler(resp, p.errorLevel, p.logger, r)

		// Response handling is deferred, since it should happen in both success and
		// error scenarios.
		defer func() {
			// Allow response handlers to modify headers.
			resp.SetHeader(w.Header())

			// 4. Response serialization (optional)
			if p.serializer != nil {
				if ctx, err = p.serializer.Serialize(ctx, resp); handleErr(err) {
					ctx = setResponseData(ctx, nil)
				}
			}

			// 5. Response processing
			for _, process := range p.responseProcessors {
				ctx, err = process(ctx, resp)
				if handleErr(err) {
					break
				}
			}

			// 6. Write the response
			if err = writeResponse(ctx, w, resp); err != nil {
				loggerOrDefault(p.logger).Debug("failed writing response", "error", err.Error())
			}
		}()

		// 1. Request processing, e.g. query decoding
		for _, process := range p.requestProcessors {
			if ctx, err = process(ctx, req); handleErr(err) {
				return
			}
		}

		// 2. Request validation (optional)
		if reqV, ok := any(req).(interface{ Validate() error }); ok {
			if err = reqV.Validate(); handleErr(err) {
				return
			}
		}

		// 3. Run the handler
		handlerResp, handlerErr := handlerFn(ctx, req)
		if !isNilResponse(handlerResp) {
			resp = handlerResp
			// The error handler must update the response that will be written.
			handleErr = errorHandler(resp, p.errorLevel, p.logger, r)
		}
		handleErr(handlerErr)
	}
}

// createInstance returns a new instance of type T.
//
//nolint:ireturn,nolintlint // Required for generic functionality.
func createInstance[T any]() T {
	var zero T
	tType := reflect.TypeOf(zero)

	if tType == nil {
		panic("cannot create instance of nil interface type")
	}

	switch tType.Kind() {
	case reflect.Ptr:
		// Create new instance of the underlying type
		return reflect.New(tType.Elem()).Interface().(T) //nolint:errcheck,forcetypeassert // It's fine.
	case reflect.Interface:
		panic("cannot create instance of interface type - need concrete type")
	default:
		// For value types, return zero value directly
		return zero
	}
}

func isNilResponse(resp types.Response) bool {
	if resp == nil {
		return true
	}
	v := reflect.ValueOf(resp)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func errorHandler[Resp types.Response](
	resp Resp, errLvl types.ErrorLevel, logger *slog.Logger, r *http.Request,
) func(error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}

		// Ensure that the response has a valid HTTP error and status code.
		var (
			terr       *types.Error
			statusCode = http.StatusInternalServerError
		)
		switch {
		case !errors.As(err, &terr) || terr == nil:
			terr = types.NewError(statusCode, err.Error())
		case terr.StatusCode == 0:
			terr = types.NewError(statusCode, terr.Message)
		default:
			statusCode = terr.StatusCode
		}

		if statusCode >= http.StatusInternalServerError {
			loggerOrDefault(logger).Error("failed handling request",
				"method", r.Method, "url", r.URL.String(), "error", err.Error())
		}

		resp.SetStatusCode(statusCode)
		resp.SetError(errLvl.Sanitize(terr))
		return true
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
