package fund

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrDataIntegrity marks a computation over corrupt observations, e.g. a
// zero or negative base NAV. Such errors are surfaced, never defaulted.
var ErrDataIntegrity = errors.New("data integrity error")

var hundred = decimal.NewFromInt(100)

// ComputeReturn renders (current - past) / past * 100 rounded to two
// decimal places with a trailing percent sign. The result is deterministic:
// identical inputs yield byte-identical strings.
func ComputeReturn(current, past decimal.Decimal) (string, error) {
	if past.Sign() <= 0 {
		return "", fmt.Errorf("%w: non-positive base nav %s", ErrDataIntegrity, past)
	}
	rate := current.Sub(past).Div(past).Mul(hundred)
	return rate.StringFixed(2) + "%", nil
}
