package handler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"go.hackfix.me/hello/web/server/types"
)

// RequestProcessor processes incoming requests and can modify the request or context.
type RequestProcessor func(ctx context.Context, req types.Request) (context.Context, error)

// DecodeQuery populates the request fields tagged with `query:"<key>"` from the
// URL query string. Absent keys leave the field at its zero value, or at the
// value of its `default` tag if it has one. Unknown keys are ignored.
// A value that can't be converted to the field type results in a 400 Bad
// Request error.
func DecodeQuery(ctx context.Context, req types.Request) (context.Context, error) {
	httpReq := req.GetHTTPRequest()
	if httpReq == nil || httpReq.URL == nil {
		return ctx, errors.New("request has no URL")
	}

	if err := decodeValues(httpReq.URL.Query(), req); err != nil {
		var derr *decodeError
		if errors.As(err, &derr) {
			return ctx, types.NewBadRequestError(err.Error())
		}
		return ctx, err
	}

	return ctx, nil
}

var errUnsupportedType = errors.New("unsupported field type")

type decodeError struct {
	key   string
	value string
	err   error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("invalid value '%s' for query parameter '%s': %s", e.value, e.key, e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}

func decodeValues(values url.Values, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("query destination must be a non-nil pointer, got %T", dst)
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("query destination must point to a struct, got %T", dst)
	}

	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		if field.Anonymous || !field.IsExported() {
			continue
		}

		key, ok := field.Tag.Lookup("query")
		if !ok || key == "" || key == "-" {
			continue
		}

		raw, present := values.Get(key), values.Has(key)
		if !present {
			def, hasDef := field.Tag.Lookup("default")
			if !hasDef {
				continue
			}
			raw = def
		}

		if err := setValue(rv.Field(i), raw); err != nil {
			if errors.Is(err, errUnsupportedType) {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			return &decodeError{key: key, value: raw, err: err}
		}
	}

	return nil
}

func setValue(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return numError(err, "unsigned integer")
		}
		fv.SetUint(u)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return numError(err, "integer")
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("expected a boolean")
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("%w %s", errUnsupportedType, fv.Type())
	}

	return nil
}

func numError(err error, kind string) error {
	var nerr *strconv.NumError
	if errors.As(err, &nerr) && errors.Is(nerr.Err, strconv.ErrRange) {
		return fmt.Errorf("%s out of range", kind)
	}
	return fmt.Errorf("expected an %s", kind)
}
