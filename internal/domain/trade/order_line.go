package trade

import (
	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/pricing"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// LineStatusPublished is the default status of a new order line
const LineStatusPublished = "published"

var hundred = decimal.NewFromInt(100)

// OrderLine is one product entry of an order.
// Total is derived from price, qty, tax rate and discount and is never set directly.
type OrderLine struct {
	ProductID   int64  `json:"product_id"`
	ProductCode string `json:"product_code"`
	catalog.LocalizedName
	ProductType  string          `json:"product_type"`
	ProductUnit  string          `json:"product_unit"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Qty          int             `json:"qty"`
	Discount     decimal.Decimal `json:"discount"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Total        decimal.Decimal `json:"total"`
	Recurring    int             `json:"recurring"`
	Status       string          `json:"status"`
	OrgID        int             `json:"orq"`

	Duration           int `json:"duration"`
	EligibilityWindow  int `json:"x_days_before_eligibility_end_date"`
	MembershipStartDay int `json:"membership_start_day"`
}

// UnitPrice implements pricing.Priced
func (l OrderLine) UnitPrice() decimal.Decimal { return l.ProductPrice }

// DiscountPercent implements pricing.Priced
func (l OrderLine) DiscountPercent() decimal.Decimal { return l.Discount }

// LineTotal implements pricing.Priced
func (l OrderLine) LineTotal() decimal.Decimal { return l.Total }

// IsRecurring returns true if the line renews automatically
func (l OrderLine) IsRecurring() bool { return l.Recurring == 1 }

// DisplayName returns the product name for the preferred languages
func (l OrderLine) DisplayName(tags ...language.Tag) string {
	return l.LocalizedName.For(tags...)
}

// Matches reports whether the product name or code contains term, ignoring case
func (l OrderLine) Matches(term string) bool {
	return catalog.ContainsFold(l.Default, term) || catalog.ContainsFold(l.ProductCode, term)
}

func (l *OrderLine) recalculate() {
	l.Total = pricing.LineTotal(l.ProductPrice, l.Qty, l.TaxRate, l.Discount)
}

// normalize fills unspecified fields with their defaults
func (l *OrderLine) normalize() {
	if l.Qty == 0 {
		l.Qty = 1
	}
	if l.Status == "" {
		l.Status = LineStatusPublished
	}
	if l.ZhHant == "" {
		l.ZhHant = l.Default
	}
	if l.Recurring != 0 {
		l.Recurring = 1
	}
}

func (l OrderLine) validate() error {
	if l.Qty < 1 {
		return shared.ErrInvalidQuantity
	}
	if err := validateDiscount(l.Discount); err != nil {
		return err
	}
	if err := validateTaxRate(l.TaxRate); err != nil {
		return err
	}
	if l.ProductPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return nil
}

func validateDiscount(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return shared.ErrInvalidDiscount
	}
	return nil
}

func validateTaxRate(d decimal.Decimal) error {
	if d.IsNegative() {
		return shared.ErrInvalidTaxRate
	}
	return nil
}

// NewLineFromProduct builds a line for a catalog product.
// The published price and discount rate are used when present.
func NewLineFromProduct(p *catalog.Product, qty int) OrderLine {
	recurring := 0
	if p.Recurring {
		recurring = 1
	}
	l := OrderLine{
		ProductID:          p.ID,
		ProductCode:        p.Code,
		LocalizedName:      p.Name,
		ProductType:        p.Type,
		ProductUnit:        p.Unit,
		ProductPrice:       p.EffectivePrice(),
		Qty:                qty,
		Discount:           p.EffectiveDiscount(),
		TaxRate:            decimal.Zero,
		Recurring:          recurring,
		Status:             LineStatusPublished,
		OrgID:              p.OrgID,
		Duration:           p.Duration,
		EligibilityWindow:  p.EligibilityWindow,
		MembershipStartDay: p.MembershipStartDay,
	}
	l.normalize()
	l.recalculate()
	return l
}

// LinePatch is a partial update of an order line. Nil fields are left unchanged.
// Setting ProductID re-keys the line to another product. DefaultName replaces
// only the default name and keeps the translations.
type LinePatch struct {
	ProductID          *int64
	ProductCode        *string
	Name               *catalog.LocalizedName
	DefaultName        *string
	ProductType        *string
	ProductUnit        *string
	ProductPrice       *decimal.Decimal
	Qty                *int
	Discount           *decimal.Decimal
	TaxRate            *decimal.Decimal
	Recurring          *bool
	Status             *string
	Duration           *int
	EligibilityWindow  *int
	MembershipStartDay *int
}

func (p LinePatch) apply(l OrderLine) OrderLine {
	if p.ProductID != nil {
		l.ProductID = *p.ProductID
	}
	if p.ProductCode != nil {
		l.ProductCode = *p.ProductCode
	}
	if p.Name != nil {
		l.LocalizedName = *p.Name
	}
	if p.DefaultName != nil {
		l.Default = *p.DefaultName
	}
	if p.ProductType != nil {
		l.ProductType = *p.ProductType
	}
	if p.ProductUnit != nil {
		l.ProductUnit = *p.ProductUnit
	}
	if p.ProductPrice != nil {
		l.ProductPrice = *p.ProductPrice
	}
	if p.Qty != nil {
		l.Qty = *p.Qty
	}
	if p.Discount != nil {
		l.Discount = *p.Discount
	}
	if p.TaxRate != nil {
		l.TaxRate = *p.TaxRate
	}
	if p.Recurring != nil {
		l.Recurring = 0
		if *p.Recurring {
			l.Recurring = 1
		}
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Duration != nil {
		l.Duration = *p.Duration
	}
	if p.EligibilityWindow != nil {
		l.EligibilityWindow = *p.EligibilityWindow
	}
	if p.MembershipStartDay != nil {
		l.MembershipStartDay = *p.MembershipStartDay
	}
	return l
}
