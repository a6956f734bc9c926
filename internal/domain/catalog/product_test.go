package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestProduct_Stock(t *testing.T) {
	p := Product{
		ID: 1,
		Inventory: []Inventory{
			{Status: StatusPublished, Qty: 5},
			{Status: "draft", Qty: 100},
		},
	}
	assert.Equal(t, 5, p.UsableStock())
	assert.Equal(t, 105, p.TotalStock())
	assert.True(t, p.HasInventory())
}

func TestProduct_StockLevel(t *testing.T) {
	tests := []struct {
		name      string
		inventory []Inventory
		want      StockLevel
	}{
		{"no inventory", nil, StockLevelUnknown},
		{"plenty", []Inventory{{Status: StatusPublished, Qty: 21}}, StockLevelInStock},
		{"boundary is low", []Inventory{{Status: StatusPublished, Qty: 20}}, StockLevelLow},
		{"draft counts toward badge", []Inventory{{Status: "draft", Qty: 3}}, StockLevelLow},
		{"empty", []Inventory{{Status: StatusPublished, Qty: 0}}, StockLevelOutOfStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Inventory: tt.inventory}
			assert.Equal(t, tt.want, p.StockLevel())
		})
	}
}

func TestProduct_EffectivePrice(t *testing.T) {
	t.Run("published price wins", func(t *testing.T) {
		p := Product{
			Price: decimal.NewFromInt(10),
			Prices: []ProductPrice{
				{Status: "draft", Price: decimal.NewNullDecimal(decimal.NewFromInt(7))},
				{Status: StatusPublished, Price: decimal.NewNullDecimal(decimal.NewFromInt(8)), DiscountRate: decimal.NewNullDecimal(decimal.NewFromInt(5))},
			},
		}
		assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(8)))
		assert.True(t, p.EffectiveDiscount().Equal(decimal.NewFromInt(5)))
	})

	t.Run("falls back to base price", func(t *testing.T) {
		p := Product{
			Price:  decimal.NewFromInt(10),
			Prices: []ProductPrice{{Status: StatusPublished}},
		}
		assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(10)))
		assert.True(t, p.EffectiveDiscount().IsZero())
	})
}

func TestLocalizedName(t *testing.T) {
	n := LocalizedName{Default: "Yoga Class", EnUS: "Yoga Class (EN)", ZhHant: "瑜伽課"}
	assert.Equal(t, "Yoga Class", n.For())
	assert.Equal(t, "瑜伽課", n.For(language.MustParse("zh-Hant-HK")))
	assert.Equal(t, "Yoga Class (EN)", n.For(ParseLanguage("en-US,en;q=0.8")...))

	empty := LocalizedName{Default: "Gym"}
	assert.Equal(t, "Gym", empty.For(TraditionalChinese))
}

func TestCatalog(t *testing.T) {
	c := NewCatalog([]Product{
		{ID: 1, Code: "YOGA-01", Name: LocalizedName{Default: "Yoga Class"}},
		{ID: 2, Code: "GYM-01", Name: LocalizedName{Default: "Gym Pass"}},
	})

	p, ok := c.Find(2)
	require.True(t, ok)
	assert.Equal(t, "GYM-01", p.Code)
	_, ok = c.Find(3)
	assert.False(t, ok)

	assert.Len(t, c.Search("yoga"), 1)
	assert.Len(t, c.Search("-01"), 2)
	assert.Len(t, c.Search(" "), 2)
	assert.Equal(t, 2, c.Len())

	var nilCatalog *Catalog
	assert.Equal(t, 0, nilCatalog.Len())
}
