// Package compute contains the pure functions behind the HTTP endpoints. None
// of them perform I/O or keep state, so they are safe to call concurrently and
// always return the same output for the same input.
package compute
