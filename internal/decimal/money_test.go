package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/decimal"
)

func TestFromString(t *testing.T) {
	d, err := decimal.FromString(" 119.00\n")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec.NewFromInt(119)))

	_, err = decimal.FromString("not-a-number")
	require.Error(t, err)
}

func TestMul(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected string
	}{
		{"exact", "1.5", "100.00", "150"},
		{"rounds to cents", "3", "33.333", "100"},
		{"half up", "0.5", "0.05", "0.03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decimal.Mul(dec.RequireFromString(tt.a), dec.RequireFromString(tt.b))
			assert.True(t, got.Equal(dec.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, decimal.WithinTolerance(dec.RequireFromString("119.00"), dec.RequireFromString("119.01")))
	assert.True(t, decimal.WithinTolerance(dec.RequireFromString("119.00"), dec.RequireFromString("118.99")))
	assert.False(t, decimal.WithinTolerance(dec.RequireFromString("119.00"), dec.RequireFromString("119.02")))
}

func TestAmountAndPercent(t *testing.T) {
	assert.Equal(t, "119.00", decimal.Amount(dec.NewFromInt(119)))
	assert.Equal(t, "0.50", decimal.Amount(dec.RequireFromString("0.5")))
	assert.Equal(t, "19", decimal.Percent(dec.RequireFromString("19.00")))
	assert.Equal(t, "7.5", decimal.Percent(dec.RequireFromString("7.50")))
}
