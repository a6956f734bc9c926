package trade

import (
	"strings"
	"time"

	"github.com/erp/orderdesk/internal/domain/pricing"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPublished OrderStatus = "published"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is one a user may set on a draft
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPending, OrderStatusPublished, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus validates a user supplied status
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.ErrInvalidStatus
	}
	return status, nil
}

// OrderTypeStandard is the type every copied or new draft gets
const OrderTypeStandard = "standard"

// OrderTypeTemplate marks remote orders that serve as templates
const OrderTypeTemplate = "template"

// SalesOrder is a snapshot of an order: its lines, aggregates and metadata.
// Orders fetched from the remote backend carry the remote aggregates.
type SalesOrder struct {
	ID             string               `json:"id"`
	OrderNumber    string               `json:"order_number"`
	CustomerID     int64                `json:"customer_id"`
	Status         OrderStatus          `json:"status"`
	Type           string               `json:"type,omitempty"`
	OrderDate      time.Time            `json:"order_date"`
	DeliveryDate   *time.Time           `json:"delivery_date,omitempty"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	PaymentTerms   string               `json:"payment_terms"`
	PaymentMethod  string               `json:"payment_method"`
	Currency       valueobject.Currency `json:"currency"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	TaxTotal       decimal.Decimal      `json:"tax_total"`
	DiscountTotal  decimal.Decimal      `json:"discount_total"`
	ShippingCost   decimal.Decimal      `json:"shipping_cost"`
	Total          decimal.Decimal      `json:"total"`
	Notes          string               `json:"notes,omitempty"`
	CustomerNotes  string               `json:"customer_notes,omitempty"`
	InternalNotes  string               `json:"internal_notes,omitempty"`
	ShippingMethod string               `json:"shipping_method,omitempty"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	IsPaid         bool                 `json:"is_paid"`
	Lines          []OrderLine          `json:"order_lines"`
}

// ApplyTotals copies computed aggregates onto the order
func (o *SalesOrder) ApplyTotals(t pricing.Totals) {
	o.Subtotal = t.Subtotal
	o.DiscountTotal = t.DiscountTotal
	o.TaxTotal = t.TaxTotal
	o.Total = t.Total
}

// Totals returns the aggregates of the order
func (o *SalesOrder) Totals() pricing.Totals {
	return pricing.Totals{
		Subtotal:      o.Subtotal,
		DiscountTotal: o.DiscountTotal,
		TaxTotal:      o.TaxTotal,
		Total:         o.Total,
	}
}

// ItemCount returns the number of lines
func (o *SalesOrder) ItemCount() int {
	return len(o.Lines)
}

// ConvertedTo returns a copy with every amount converted into currency.
// Line totals are converted too; unit prices are left as entered.
func (o SalesOrder) ConvertedTo(currency valueobject.Currency, rates valueobject.ExchangeRates) (SalesOrder, error) {
	from := o.Currency
	totals, err := pricing.ConvertTotals(o.Totals(), from, currency, rates)
	if err != nil {
		return SalesOrder{}, err
	}
	shipping, err := pricing.ConvertAmount(o.ShippingCost, from, currency, rates)
	if err != nil {
		return SalesOrder{}, err
	}
	lines := make([]OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		if l.Total, err = pricing.ConvertAmount(l.Total, from, currency, rates); err != nil {
			return SalesOrder{}, err
		}
		lines[i] = l
	}
	o.ApplyTotals(totals)
	o.ShippingCost = shipping
	o.Currency = currency
	o.Lines = lines
	return o, nil
}

// Template is a saved order used to pre-fill new drafts
type Template struct {
	SalesOrder
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTemplate snapshots order as a draft template.
// The lines are copied so later edits to the draft do not leak into the template.
func NewTemplate(order SalesOrder, name, description string, tags []string, now time.Time) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name cannot be empty")
	}
	order.ID = uuid.NewString()
	order.OrderNumber = "TEMPLATE-" + strings.ToUpper(order.ID[:8])
	order.Status = OrderStatusDraft
	order.OrderDate = now
	if order.Currency == "" {
		order.Currency = valueobject.DefaultCurrency
	}
	order.Lines = append([]OrderLine(nil), order.Lines...)
	return &Template{
		SalesOrder:  order,
		Name:        name,
		Description: strings.TrimSpace(description),
		Tags:        append([]string(nil), tags...),
		CreatedAt:   now,
	}, nil
}
