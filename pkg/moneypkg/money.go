// Package moneypkg provides validation of monetary amounts at the transport boundary.
package moneypkg

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits the currency unit supports.
const Scale = 2

// ParseAmount parses s as a strictly positive amount with at most Scale fractional digits.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}

	if !d.IsPositive() {
		return decimal.Decimal{}, false
	}

	if !d.Equal(d.Truncate(Scale)) {
		return decimal.Decimal{}, false
	}

	return d, true
}

// ValidAmount validates whether the field holds a valid amount.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, valid := ParseAmount(s)
		return valid
	}

	return false
}
