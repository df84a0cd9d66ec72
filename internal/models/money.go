package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). It is serialized as a decimal
// number with two fraction digits.
type Money int64

// TaxRate applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.10")

func NewMoney(d decimal.Decimal) Money {
	return Money(d.Round(2).Shift(2).IntPart())
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}

// Percent returns m*rate rounded half away from zero to the nearest cent.
func (m Money) Percent(rate decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(rate).Round(0).IntPart())
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("amount %s has more than two decimal places", s)
	}
	*m = NewMoney(d)
	return nil
}
