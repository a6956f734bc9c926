package trade

import (
	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// CreditCheck is the result of comparing an order total against a credit limit
type CreditCheck struct {
	Exceeded    bool            `json:"exceeded"`
	Total       decimal.Decimal `json:"total"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// StockCheck is the result of comparing a quantity against usable stock
type StockCheck struct {
	Insufficient bool `json:"insufficient"`
	Requested    int  `json:"requested"`
	UsableStock  int  `json:"usable_stock"`
	TotalStock   int  `json:"total_stock"`
}

// Warnings are the constraint warnings of a draft
type Warnings struct {
	Credit *CreditCheck          `json:"credit,omitempty"`
	Stock  map[int64]*StockCheck `json:"stock,omitempty"`
}

// HasAny returns true if any warning is active
func (w Warnings) HasAny() bool {
	if w.Credit != nil && w.Credit.Exceeded {
		return true
	}
	for _, s := range w.Stock {
		if s.Insufficient {
			return true
		}
	}
	return false
}

// CheckCredit warns when the total of lines exceeds the customer's credit limit.
// A customer without a limit has a limit of zero. Without a customer there is no check.
func CheckCredit(customer *partner.Customer, lines []OrderLine) *CreditCheck {
	if customer == nil {
		return nil
	}
	total := pricing.OrderTotals(lines).Total
	limit := customer.EffectiveCreditLimit()
	return &CreditCheck{
		Exceeded:    total.GreaterThan(limit),
		Total:       total,
		CreditLimit: limit,
	}
}

// CheckStock warns when qty exceeds the usable (published) stock of product.
// The warning does not block adding the line.
func CheckStock(product *catalog.Product, qty int) StockCheck {
	usable := product.UsableStock()
	return StockCheck{
		Insufficient: qty > usable,
		Requested:    qty,
		UsableStock:  usable,
		TotalStock:   product.TotalStock(),
	}
}

// Evaluate derives every warning from the current customer, lines and catalog.
// Lines whose product is not in the catalog get no stock check.
func Evaluate(customer *partner.Customer, lines []OrderLine, products *catalog.Catalog) Warnings {
	w := Warnings{Credit: CheckCredit(customer, lines)}
	for _, l := range lines {
		p, ok := products.Find(l.ProductID)
		if !ok {
			continue
		}
		check := CheckStock(p, l.Qty)
		if w.Stock == nil {
			w.Stock = make(map[int64]*StockCheck)
		}
		w.Stock[l.ProductID] = &check
	}
	return w
}
