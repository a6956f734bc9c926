package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StatusPublished marks sellable price and inventory records
const StatusPublished = "published"

// StockLevel is the availability badge shown next to a product
type StockLevel string

const (
	StockLevelUnknown    StockLevel = "unknown"
	StockLevelInStock    StockLevel = "in_stock"
	StockLevelLow        StockLevel = "low"
	StockLevelOutOfStock StockLevel = "out_of_stock"
)

// lowStockThreshold is the highest quantity still shown as low stock
const lowStockThreshold = 20

// ProductPrice is one price record of a product
type ProductPrice struct {
	ID           int64               `json:"id"`
	Status       string              `json:"status"`
	Variant      string              `json:"variant,omitempty"`
	Price        decimal.NullDecimal `json:"price"`
	DiscountRate decimal.NullDecimal `json:"discount_rate"`
	Cost         decimal.Decimal     `json:"cost"`
	Unit         int                 `json:"unit"`
}

// Inventory is the quantity of a product held under one status/location
type Inventory struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	Qty      int    `json:"qty"`
}

// Product is a read-only projection of a remote catalog entry
type Product struct {
	ID                 int64           `json:"id"`
	Status             string          `json:"status"`
	Code               string          `json:"code"`
	Name               LocalizedName   `json:"name"`
	Description        string          `json:"description,omitempty"`
	Type               string          `json:"type"`
	Unit               string          `json:"unit,omitempty"`
	Price              decimal.Decimal `json:"price"`
	Recurring          bool            `json:"recurring"`
	OrgID              int             `json:"orq"`
	Duration           int             `json:"duration"`
	EligibilityWindow  int             `json:"x_days_before_eligibility_end_date"`
	MembershipStartDay int             `json:"membership_start_day"`
	Prices             []ProductPrice  `json:"product_price"`
	Inventory          []Inventory     `json:"inventory"`
}

// UsableStock sums inventory quantities with status published
func (p *Product) UsableStock() int {
	total := 0
	for _, inv := range p.Inventory {
		if inv.Status == StatusPublished {
			total += inv.Qty
		}
	}
	return total
}

// TotalStock sums inventory quantities across all statuses
func (p *Product) TotalStock() int {
	total := 0
	for _, inv := range p.Inventory {
		total += inv.Qty
	}
	return total
}

// HasInventory returns true if the product has any inventory record
func (p *Product) HasInventory() bool {
	return len(p.Inventory) > 0
}

// StockLevel classifies total stock for the availability badge
func (p *Product) StockLevel() StockLevel {
	if !p.HasInventory() {
		return StockLevelUnknown
	}
	switch total := p.TotalStock(); {
	case total > lowStockThreshold:
		return StockLevelInStock
	case total > 0:
		return StockLevelLow
	default:
		return StockLevelOutOfStock
	}
}

// PublishedPrice returns the first published price record
func (p *Product) PublishedPrice() (ProductPrice, bool) {
	for _, pp := range p.Prices {
		if pp.Status == StatusPublished {
			return pp, true
		}
	}
	return ProductPrice{}, false
}

// EffectivePrice is the published price when set, else the base price
func (p *Product) EffectivePrice() decimal.Decimal {
	if pp, ok := p.PublishedPrice(); ok && pp.Price.Valid {
		return pp.Price.Decimal
	}
	return p.Price
}

// EffectiveDiscount is the published discount rate, or zero
func (p *Product) EffectiveDiscount() decimal.Decimal {
	if pp, ok := p.PublishedPrice(); ok && pp.DiscountRate.Valid {
		return pp.DiscountRate.Decimal
	}
	return decimal.Zero
}

// Matches reports whether the product name or code contains term, ignoring case
func (p *Product) Matches(term string) bool {
	term = strings.TrimSpace(term)
	return ContainsFold(p.Name.Default, term) || ContainsFold(p.Code, term)
}

// Catalog is an immutable snapshot of the product list
type Catalog struct {
	products []Product
	byID     map[int64]int
}

// NewCatalog indexes products by id. Later duplicates win.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: products,
		byID:     make(map[int64]int, len(products)),
	}
	for i := range products {
		c.byID[products[i].ID] = i
	}
	return c
}

// Products returns the products in remote order
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	return c.products
}

// Find returns the product with the given id
func (c *Catalog) Find(id int64) (*Product, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.products[i], true
}

// Search returns the products whose name or code contains term
func (c *Catalog) Search(term string) []Product {
	if c == nil {
		return nil
	}
	if strings.TrimSpace(term) == "" {
		return c.products
	}
	out := make([]Product, 0)
	for i := range c.products {
		if c.products[i].Matches(term) {
			out = append(out, c.products[i])
		}
	}
	return out
}

// Len returns the number of products
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}
