package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Prices cross the API as decimal rupees but are stored as integer paise.
// Conversions must be exact: a price that does not land on a whole paisa
// is a caller error, never silently rounded.

var paisePerRupee = decimal.NewFromInt(100)

// RupeesToPaise converts a decimal rupee amount to integer paise.
func RupeesToPaise(rupees decimal.Decimal) (int64, error) {
	paise := rupees.Mul(paisePerRupee)
	if !paise.IsInteger() {
		return 0, fmt.Errorf("amount %s has fractional paise", rupees.String())
	}
	if paise.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", rupees.String())
	}
	return paise.IntPart(), nil
}

// PaiseToRupees converts stored integer paise back to decimal rupees.
func PaiseToRupees(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(paisePerRupee)
}
