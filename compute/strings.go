package compute

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultGreeting is returned when no name is given.
	DefaultGreeting = "Hello, world!"
	// MaxNameLength is the maximum number of characters accepted in a name.
	MaxNameLength = 500
)

// ErrTooLong is returned when an input exceeds its maximum length.
var ErrTooLong = errors.New("input too long")

// Greeting returns a greeting for name, or DefaultGreeting if name is empty.
func Greeting(name string) (string, error) {
	if name == "" {
		return DefaultGreeting, nil
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", fmt.Errorf("%w: name has %d characters, maximum is %d", ErrTooLong, n, MaxNameLength)
	}

	return "Hello, " + name + "!", nil
}

// NumberedList returns an HTML ordered list with n items, numbered from 1.
func NumberedList(n uint32) string {
	var b strings.Builder
	b.WriteString("<ol>\n")
	for i := uint64(1); i <= uint64(n); i++ {
		b.WriteString("  <li>Item number: ")
		b.WriteString(strconv.FormatUint(i, 10))
		b.WriteString("</li>\n")
	}
	b.WriteString("</ol>")

	return b.String()
}
