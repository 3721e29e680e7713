// Package money holds monetary amounts tagged with the basis they are expressed in.
//
// Native amounts are what the store persists: prices in the currency the product
// was listed in. Display amounts are native amounts converted with a resolved
// payment-method multiplier and exist only for presentation. The two bases never
// mix: adding a display amount to a native one is an error, and only native
// amounts can be converted.
package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrBasisMismatch    = errors.New("money: cannot combine native and display amounts")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrNotNative        = errors.New("money: only native amounts can be converted")
)

type Basis int

const (
	Native Basis = iota
	Display
)

func (b Basis) String() string {
	if b == Display {
		return "display"
	}
	return "native"
}

// Amount is immutable; every operation returns a new value.
type Amount struct {
	value    decimal.Decimal
	currency string
	basis    Basis
}

func NewNative(value decimal.Decimal, currency string) Amount {
	return Amount{value: value, currency: currency, basis: Native}
}

func NativeFromFloat(value float64, currency string) Amount {
	return NewNative(decimal.NewFromFloat(value), currency)
}

func (a Amount) Value() decimal.Decimal { return a.value }
func (a Amount) Currency() string       { return a.currency }
func (a Amount) Basis() Basis           { return a.basis }
func (a Amount) IsZero() bool           { return a.value.IsZero() }

// blank reports whether a is the zero Amount, which adopts the currency of
// whatever it is added to.
func (a Amount) blank() bool {
	return a.currency == "" && a.value.IsZero()
}

func (a Amount) Add(other Amount) (Amount, error) {
	if a.blank() {
		return other, nil
	}
	if other.blank() {
		return a, nil
	}
	if a.basis != other.basis {
		return Amount{}, ErrBasisMismatch
	}
	if a.currency != other.currency {
		return Amount{}, fmt.Errorf("%w: cannot add %s to %s", ErrCurrencyMismatch, other.currency, a.currency)
	}
	return Amount{value: a.value.Add(other.value), currency: a.currency, basis: a.basis}, nil
}

// Times scales the amount by a whole quantity.
func (a Amount) Times(quantity int64) Amount {
	return Amount{value: a.value.Mul(decimal.NewFromInt(quantity)), currency: a.currency, basis: a.basis}
}

// Convert turns a native amount into a display amount in currency.
func (a Amount) Convert(multiplier decimal.Decimal, currency string) (Amount, error) {
	if a.basis != Native {
		return Amount{}, ErrNotNative
	}
	return Amount{value: a.value.Mul(multiplier), currency: currency, basis: Display}, nil
}

// AsDisplay relabels a native amount for presentation without conversion.
func (a Amount) AsDisplay() Amount {
	return Amount{value: a.value, currency: a.currency, basis: Display}
}

// Rounded is the value rounded to cents. Use it only when rendering.
func (a Amount) Rounded() decimal.Decimal {
	return a.value.Round(2)
}

func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.value.StringFixed(2), a.currency)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
		Basis    string      `json:"basis"`
	}{
		Amount:   json.Number(a.value.StringFixed(2)),
		Currency: a.currency,
		Basis:    a.basis.String(),
	})
}

// Sum adds amounts left to right. An empty list yields the zero Amount.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, amount := range amounts {
		next, err := total.Add(amount)
		if err != nil {
			return Amount{}, err
		}
		total = next
	}
	return total, nil
}
