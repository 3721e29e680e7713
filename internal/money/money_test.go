package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsMixedBasis(t *testing.T) {
	native := NativeFromFloat(10, "USD")
	display, err := NativeFromFloat(10, "USD").Convert(decimal.NewFromInt(1), "USD")
	require.NoError(t, err)

	_, err = native.Add(display)
	assert.ErrorIs(t, err, ErrBasisMismatch)
}

func TestAddRejectsMixedCurrency(t *testing.T) {
	_, err := NativeFromFloat(10, "USD").Add(NativeFromFloat(5, "CUP"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestZeroAmountAdoptsCurrency(t *testing.T) {
	total, err := Sum(NativeFromFloat(10, "USD"), NativeFromFloat(2.5, "USD"))
	require.NoError(t, err)

	assert.Equal(t, "USD", total.Currency())
	assert.True(t, total.Value().Equal(decimal.RequireFromString("12.5")))

	empty, err := Sum()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestConvertOnlyFromNative(t *testing.T) {
	display, err := NativeFromFloat(100, "USD").Convert(decimal.RequireFromString("1.25"), "CUP")
	require.NoError(t, err)
	assert.Equal(t, Display, display.Basis())
	assert.Equal(t, "CUP", display.Currency())
	assert.True(t, display.Value().Equal(decimal.NewFromInt(125)))

	_, err = display.Convert(decimal.NewFromInt(2), "CUP")
	assert.ErrorIs(t, err, ErrNotNative)
}

func TestRoundingHappensOnRender(t *testing.T) {
	amount := NewNative(decimal.RequireFromString("10.005"), "USD").Times(3)

	assert.Equal(t, "30.015", amount.Value().String())
	assert.Equal(t, "30.02", amount.Rounded().String())

	body, err := json.Marshal(amount)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":30.02,"currency":"USD","basis":"native"}`, string(body))
}
