package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Currency
		wantErr bool
	}{
		{"empty defaults to USD", "", USD, false},
		{"lower case is normalized", "eur", EUR, false},
		{"surrounding spaces", "  gbp ", GBP, false},
		{"too long", "EURO", "", true},
		{"digits", "U5D", "", true},
		{"other ISO code", "cad", "CAD", false},
		{"not an ISO code", "ABC", "", true},
		{"no currency", "XXX", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExchangeRates(t *testing.T) {
	t.Run("default table", func(t *testing.T) {
		rates := DefaultExchangeRates()
		r, ok := rates.Rate(JPY)
		require.True(t, ok)
		assert.True(t, r.Equal(decimal.NewFromInt(110)))
		assert.Equal(t, []Currency{EUR, GBP, JPY, USD}, rates.Currencies())
	})

	t.Run("from strings", func(t *testing.T) {
		rates, err := NewExchangeRates(map[string]string{"usd": "1", "EUR": "0.85"})
		require.NoError(t, err)
		r, ok := rates.Rate(EUR)
		require.True(t, ok)
		assert.Equal(t, "0.85", r.String())
	})

	t.Run("rejects bad values", func(t *testing.T) {
		_, err := NewExchangeRates(map[string]string{"USD": "abc"})
		assert.Error(t, err)
		_, err = NewExchangeRates(map[string]string{"USD": "-1"})
		assert.Error(t, err)
	})

	t.Run("clone is independent", func(t *testing.T) {
		rates := DefaultExchangeRates()
		c := rates.Clone()
		c[USD] = decimal.NewFromInt(2)
		r, _ := rates.Rate(USD)
		assert.True(t, r.Equal(decimal.NewFromInt(1)))
	})
}

func TestAddress(t *testing.T) {
	a := NewAddress(" 1 Main St ", "Springfield", "IL", "62701", "")
	assert.Equal(t, "1 Main St, Springfield IL 62701", a.FullAddress())
	assert.False(t, a.IsEmpty())
	assert.True(t, Address{}.IsEmpty())

	merged := Address{City: "Toronto"}.Merge(a)
	assert.Equal(t, "Toronto", merged.City)
	assert.Equal(t, "1 Main St", merged.Street)
	assert.Equal(t, "Canada", merged.WithCountry("Canada").Country)
}
