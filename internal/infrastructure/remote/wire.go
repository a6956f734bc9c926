package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// flexInt accepts a JSON number, a numeric string or null
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s", b)
	}
	*f = flexInt(math.Round(v))
	return nil
}

func (f flexInt) Int() int     { return int(f) }
func (f flexInt) Int64() int64 { return int64(f) }

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseTime reads the date formats the remote backend emits; bad or empty input yields nil
func parseTime(p *string) *time.Time {
	s := strings.TrimSpace(str(p))
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// listEnvelope is the shape of every collection response
type listEnvelope[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		FilterCount *int `json:"filter_count"`
		TotalCount  *int `json:"total_count"`
	} `json:"meta"`
}

func (e listEnvelope[T]) count() int {
	switch {
	case e.Meta.FilterCount != nil:
		return *e.Meta.FilterCount
	case e.Meta.TotalCount != nil:
		return *e.Meta.TotalCount
	default:
		return len(e.Data)
	}
}

type itemEnvelope[T any] struct {
	Data T `json:"data"`
}

type productPriceDTO struct {
	ID           int64               `json:"id"`
	Status       string              `json:"status"`
	Variant      *string             `json:"variant"`
	Price        decimal.NullDecimal `json:"price"`
	Unit         flexInt             `json:"unit"`
	Cost         decimal.NullDecimal `json:"cost"`
	DiscountRate decimal.NullDecimal `json:"discount_rate"`
}

type inventoryDTO struct {
	ID       int64   `json:"id"`
	Status   string  `json:"status"`
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Qty      flexInt `json:"qty"`
}

type productDTO struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	Code               *string             `json:"code"`
	Name               string              `json:"name"`
	NameEnUS           *string             `json:"name_en_US"`
	NameZhHant         *string             `json:"name_zh_HANT"`
	Description        *string             `json:"description"`
	Type               *string             `json:"type"`
	Unit               *flexInt            `json:"unit"`
	Price              decimal.NullDecimal `json:"price"`
	Recurring          *bool               `json:"recurring"`
	Orq                flexInt             `json:"orq"`
	Duration           flexInt             `json:"duration"`
	EligibilityWindow  flexInt             `json:"x_days_before_eligibility_end_date"`
	MembershipStartDay flexInt             `json:"membership_start_day"`
	ProductPrice       []productPriceDTO   `json:"product_price"`
	Inventory          []inventoryDTO      `json:"inventory"`
}

type addressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

type insightsDTO struct {
	TotalOrders             flexInt             `json:"totalOrders"`
	AverageOrderValue       decimal.NullDecimal `json:"averageOrderValue"`
	OutstandingPayments     decimal.NullDecimal `json:"outstandingPayments"`
	LastOrderDate           *string             `json:"lastOrderDate"`
	PreferredShippingMethod *string             `json:"preferredShippingMethod"`
	PreferredPaymentMethod  *string             `json:"preferredPaymentMethod"`
	PreferredWarehouse      *string             `json:"preferredWarehouse"`
	IsPreferredCustomer     bool                `json:"isPreferredCustomer"`
	CreditUtilization       decimal.NullDecimal `json:"creditUtilization"`
}

type preferencesDTO struct {
	DefaultShippingAddress *addressDTO `json:"defaultShippingAddress"`
	DefaultBillingAddress  *addressDTO `json:"defaultBillingAddress"`
	DefaultPaymentTerms    *string     `json:"defaultPaymentTerms"`
	DefaultShippingMethod  *string     `json:"defaultShippingMethod"`
	DefaultPaymentMethod   *string     `json:"defaultPaymentMethod"`
	TaxExempt              bool        `json:"taxExempt"`
	TaxExemptionNumber     *string     `json:"taxExemptionNumber"`
	SpecialPricing         bool        `json:"specialPricing"`
	Notes                  *string     `json:"notes"`
}

type companyRawDTO struct {
	Email           *string             `json:"email"`
	Phone           *string             `json:"phone"`
	TaxID           *string             `json:"taxId"`
	BillingAddress  *addressDTO         `json:"billingAddress"`
	ShippingAddress *addressDTO         `json:"shippingAddress"`
	PaymentTerms    *string             `json:"paymentTerms"`
	IsGuest         bool                `json:"isGuest"`
	CreditLimit     decimal.NullDecimal `json:"creditLimit"`
	Insights        *insightsDTO        `json:"insights"`
	Preferences     *preferencesDTO     `json:"preferences"`
}

type companyDTO struct {
	ID     int64          `json:"id"`
	Status string         `json:"status"`
	Name   string         `json:"name"`
	Code   *string        `json:"code"`
	Group  *string        `json:"group"`
	Orq    flexInt        `json:"orq"`
	Raw    *companyRawDTO `json:"raw"`
}

type orderLineDTO struct {
	ID                 flexInt             `json:"id"`
	ProductID          flexInt             `json:"product_id"`
	ProductPrice       decimal.NullDecimal `json:"product_price"`
	Discount           decimal.NullDecimal `json:"discount"`
	Total              decimal.NullDecimal `json:"total"`
	ProductType        *string             `json:"product_type"`
	ProductName        *string             `json:"product_name"`
	ProductNameEnUS    *string             `json:"product_name_en_US"`
	ProductNameZhHant  *string             `json:"product_name_zh_HANT"`
	ProductCode        *string             `json:"product_code"`
	ProductUnit        json.RawMessage     `json:"product_unit"`
	Recurring          flexInt             `json:"recurring"`
	Status             string              `json:"status"`
	Orq                flexInt             `json:"orq"`
	TaxRate            decimal.NullDecimal `json:"tax_rate"`
	Qty                flexInt             `json:"qty"`
	EligibilityWindow  flexInt             `json:"x_days_before_eligibility_end_date"`
	Duration           flexInt             `json:"duration"`
	MembershipStartDay flexInt             `json:"membership_start_day"`
}

type orderDTO struct {
	ID               flexInt             `json:"id"`
	Code             *string             `json:"code"`
	Company          flexInt             `json:"company"`
	Member           flexInt             `json:"member"`
	Status           string              `json:"status"`
	Type             *string             `json:"type"`
	OrderDate        *string             `json:"order_date"`
	DeliveryDate     *string             `json:"delivery_date"`
	OrderDueDate     *string             `json:"order_due_date"`
	DateCreated      *string             `json:"date_created"`
	AmountTotal      decimal.NullDecimal `json:"amount_total"`
	TaxAmountPayable decimal.NullDecimal `json:"tax_amount_payable"`
	Discount         decimal.NullDecimal `json:"discount"`
	Remarks          *string             `json:"remarks"`
	PaymentMethod    *string             `json:"payment_method"`
	PaymentDate      *string             `json:"payment_date"`
	Product          []orderLineDTO      `json:"product"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginDTO struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	Expires      flexInt `json:"expires"`
}

// unitString renders product_unit, which arrives as a string, a number or null
func unitString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
