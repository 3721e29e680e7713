// Package pricing turns cart totals and shipping into the amounts a customer
// sees. Stored amounts stay native; display amounts are native times the
// resolved multiplier and are only rounded when rendered.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Yusei-0/cuba-click/internal/money"
	"github.com/Yusei-0/cuba-click/internal/payment"
)

type Input struct {
	Subtotal money.Amount
	Shipping money.Amount
	// Quantity scales Subtotal; values below 1 count as 1.
	Quantity int
	// Rate is nil when no payment method was resolved.
	Rate *payment.ResolvedMethod
}

type Totals struct {
	SubtotalNative  money.Amount    `json:"subtotalNative"`
	ShippingNative  money.Amount    `json:"shippingNative"`
	TotalNative     money.Amount    `json:"totalNative"`
	SubtotalDisplay money.Amount    `json:"subtotalDisplay"`
	ShippingDisplay money.Amount    `json:"shippingDisplay"`
	TotalDisplay    money.Amount    `json:"totalDisplay"`
	Multiplier      decimal.Decimal `json:"multiplier"`
	// Converted is false when display amounts fell back to native ones.
	Converted bool `json:"converted"`
}

// ComputeTotals errors only when handed display amounts or amounts in
// different currencies.
func ComputeTotals(in Input) (Totals, error) {
	if in.Subtotal.Basis() != money.Native || in.Shipping.Basis() != money.Native {
		return Totals{}, money.ErrBasisMismatch
	}

	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	subtotal := in.Subtotal.Times(int64(quantity))

	total, err := subtotal.Add(in.Shipping)
	if err != nil {
		return Totals{}, err
	}

	out := Totals{
		SubtotalNative: subtotal,
		ShippingNative: in.Shipping,
		TotalNative:    total,
	}

	if in.Rate == nil || !in.Rate.Multiplier.IsPositive() {
		out.SubtotalDisplay = subtotal.AsDisplay()
		out.ShippingDisplay = in.Shipping.AsDisplay()
		out.TotalDisplay = total.AsDisplay()
		out.Multiplier = decimal.NewFromInt(1)
		return out, nil
	}

	currency := in.Rate.Currency
	if out.SubtotalDisplay, err = subtotal.Convert(in.Rate.Multiplier, currency); err != nil {
		return Totals{}, err
	}
	if out.ShippingDisplay, err = in.Shipping.Convert(in.Rate.Multiplier, currency); err != nil {
		return Totals{}, err
	}
	if out.TotalDisplay, err = total.Convert(in.Rate.Multiplier, currency); err != nil {
		return Totals{}, err
	}
	out.Multiplier = in.Rate.Multiplier
	out.Converted = true
	return out, nil
}
