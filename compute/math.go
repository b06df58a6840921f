package compute

import (
	"math"
	"strconv"
)

// PowerReciprocalsAlt returns the partial sum of n terms of the series
// 1/1 - 1/2 + 1/4 - 1/8 + ..., where each term is the reciprocal of the next
// power of two, and every second term is subtracted. Terms are summed in
// order, so the result is bit-for-bit stable for a given n.
func PowerReciprocalsAlt(n uint32) float64 {
	var (
		result    = 0.0
		power     = 0.5
		remaining = n
	)

	for remaining > 0 {
		power *= 2
		result += 1 / power
		remaining--

		if remaining > 0 {
			power *= 2
			result -= 1 / power
			remaining--
		}

		// All further terms are 1/+Inf == 0.
		if math.IsInf(power, 1) {
			break
		}
	}

	return result
}

// FormatDecimal formats f as the shortest decimal string that parses back to
// the same value, without an exponent, e.g. "1", "0.5", "0.6666666666666666".
func FormatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
