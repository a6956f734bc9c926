package partner

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CustomerStatusActive = "active"

	GroupGuest = "Guest"
	GroupNew   = "New"

	guestName = "Guest Customer"
)

// ContactInfo holds how to reach a customer
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	TaxID string `json:"tax_id,omitempty"`
}

// Addresses holds the billing and shipping addresses of a customer
type Addresses struct {
	Billing  valueobject.Address `json:"billing"`
	Shipping valueobject.Address `json:"shipping"`
}

// Insights are read-only purchase statistics reported by the remote backend
type Insights struct {
	TotalOrders             int             `json:"total_orders"`
	AverageOrderValue       decimal.Decimal `json:"average_order_value"`
	OutstandingPayments     decimal.Decimal `json:"outstanding_payments"`
	LastOrderDate           *time.Time      `json:"last_order_date,omitempty"`
	PreferredShippingMethod string          `json:"preferred_shipping_method,omitempty"`
	PreferredPaymentMethod  string          `json:"preferred_payment_method,omitempty"`
	PreferredWarehouse      string          `json:"preferred_warehouse,omitempty"`
	IsPreferredCustomer     bool            `json:"is_preferred_customer"`
	CreditUtilization       decimal.Decimal `json:"credit_utilization"`
}

// Preferences are the ordering defaults of a customer
type Preferences struct {
	DefaultShippingAddress valueobject.Address `json:"default_shipping_address"`
	DefaultBillingAddress  valueobject.Address `json:"default_billing_address"`
	DefaultPaymentTerms    string              `json:"default_payment_terms,omitempty"`
	DefaultShippingMethod  string              `json:"default_shipping_method,omitempty"`
	DefaultPaymentMethod   string              `json:"default_payment_method,omitempty"`
	TaxExempt              bool                `json:"tax_exempt"`
	TaxExemptionNumber     string              `json:"tax_exemption_number,omitempty"`
	SpecialPricing         bool                `json:"special_pricing"`
	Notes                  string              `json:"notes,omitempty"`
}

// Customer is a read-only projection of a remote company, or a locally
// created customer. Local customers (guests included) have negative ids.
type Customer struct {
	ID           int64               `json:"id"`
	Status       string              `json:"status"`
	Name         string              `json:"name"`
	Code         string              `json:"code"`
	Group        string              `json:"group"`
	OrgID        int                 `json:"orq,omitempty"`
	Contact      ContactInfo         `json:"contact"`
	Addresses    Addresses           `json:"addresses"`
	PaymentTerms string              `json:"payment_terms,omitempty"`
	CreditLimit  decimal.NullDecimal `json:"credit_limit"`
	IsGuest      bool                `json:"is_guest"`
	Insights     *Insights           `json:"insights,omitempty"`
	Preferences  *Preferences        `json:"preferences,omitempty"`
}

// Details are the fields a user enters when creating or converting a customer
type Details struct {
	Name         string
	Contact      ContactInfo
	Addresses    Addresses
	PaymentTerms string
}

// EffectiveCreditLimit is the configured credit limit, or zero when absent
func (c *Customer) EffectiveCreditLimit() decimal.Decimal {
	if c.CreditLimit.Valid {
		return c.CreditLimit.Decimal
	}
	return decimal.Zero
}

// IsLocal returns true for customers that only exist in this session
func (c *Customer) IsLocal() bool {
	return c.ID < 0
}

// NewGuestCustomer creates an ephemeral guest customer
func NewGuestCustomer(orgID int) *Customer {
	id, tag := localIdentity()
	return &Customer{
		ID:      id,
		Status:  CustomerStatusActive,
		Name:    guestName,
		Code:    "GUEST-" + tag,
		Group:   GroupGuest,
		OrgID:   orgID,
		IsGuest: true,
	}
}

// NewCustomer creates a customer locally. Name and email are required.
func NewCustomer(orgID int, d Details) (*Customer, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	id, tag := localIdentity()
	return &Customer{
		ID:           id,
		Status:       CustomerStatusActive,
		Name:         strings.TrimSpace(d.Name),
		Code:         "CUST-" + tag,
		Group:        GroupNew,
		OrgID:        orgID,
		Contact:      trimContact(d.Contact),
		Addresses:    d.Addresses,
		PaymentTerms: d.PaymentTerms,
	}, nil
}

// ConvertGuest turns a guest into a durable customer with a new identity.
// Entered fields override the guest's; empty entered fields keep the guest's values.
func ConvertGuest(guest *Customer, d Details) (*Customer, error) {
	if guest == nil || !guest.IsGuest {
		return nil, shared.ErrNotGuest
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	converted := *guest
	converted.ID, _ = localIdentity()
	converted.Name = strings.TrimSpace(d.Name)
	converted.IsGuest = false

	contact := trimContact(d.Contact)
	if contact.Email != "" {
		converted.Contact.Email = contact.Email
	}
	if contact.Phone != "" {
		converted.Contact.Phone = contact.Phone
	}
	if contact.TaxID != "" {
		converted.Contact.TaxID = contact.TaxID
	}
	converted.Addresses = Addresses{
		Billing:  d.Addresses.Billing.Merge(guest.Addresses.Billing),
		Shipping: d.Addresses.Shipping.Merge(guest.Addresses.Shipping),
	}
	if d.PaymentTerms != "" {
		converted.PaymentTerms = d.PaymentTerms
	}
	return &converted, nil
}

func (d Details) validate() error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Contact.Email) == "" {
		return shared.ErrInvalidCustomer
	}
	return nil
}

func trimContact(c ContactInfo) ContactInfo {
	return ContactInfo{
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
		TaxID: strings.TrimSpace(c.TaxID),
	}
}

// localIdentity derives a negative id and a short display tag from a random UUID
func localIdentity() (int64, string) {
	u := uuid.New()
	n := int64(binary.BigEndian.Uint64(u[:8]) >> 1)
	if n == 0 {
		n = 1
	}
	return -n, strings.ToUpper(u.String()[:8])
}
