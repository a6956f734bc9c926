// Package sampledata generates the fixed fallback datasets shown when the remote API is down.
// A given seed always yields the same data.
package sampledata

import (
	"fmt"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/pricing"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/shopspring/decimal"
)

const (
	// DefaultSeed is used by the desk's fallback datasets
	DefaultSeed uint64 = 20250126

	sampleIDBase = 900000
)

var (
	customerGroups = []string{"Retail", "Wholesale", "VIP", partner.GroupNew}
	paymentTerms   = []string{"Net 15", "Net 30", "Net 60", "Due on receipt"}
	paymentMethods = []string{"credit_card", "bank_transfer", "cash"}
	orderStatuses  = []trade.OrderStatus{trade.OrderStatusPublished, trade.OrderStatusPending, trade.OrderStatusPaid}
	productTypes   = []string{"product", "service", "membership"}
)

// Generator builds sample customers and orders for one organization
type Generator struct {
	seed  uint64
	orgID int
	// orders are dated relative to this instant
	anchor time.Time
}

// New creates a generator
func New(seed uint64, orgID int, anchor time.Time) *Generator {
	return &Generator{seed: seed, orgID: orgID, anchor: anchor.Truncate(24 * time.Hour)}
}

func (g *Generator) faker(stream uint64) *gofakeit.Faker {
	return gofakeit.New(g.seed + stream)
}

func (g *Generator) address(f *gofakeit.Faker) valueobject.Address {
	return valueobject.NewAddress(f.Street(), f.City(), f.StateAbr(), f.Zip(), "US")
}

// Customers returns n sample customers with contact data, insights and credit limits
func (g *Generator) Customers(n int) []partner.Customer {
	f := g.faker(1)
	out := make([]partner.Customer, 0, n)
	for i := 0; i < n; i++ {
		id := int64(sampleIDBase + i + 1)
		billing := g.address(f)
		shipping := billing
		if f.Bool() {
			shipping = g.address(f)
		}
		terms := f.RandomString(paymentTerms)
		orders := f.Number(0, 80)
		limit := decimal.NewFromInt(int64(f.Number(5, 50)) * 1000)
		last := g.anchor.AddDate(0, 0, -f.Number(1, 120))

		out = append(out, partner.Customer{
			ID:     id,
			Status: partner.CustomerStatusActive,
			Name:   f.Company(),
			Code:   "C" + strconv.FormatInt(id, 10),
			Group:  f.RandomString(customerGroups),
			OrgID:  g.orgID,
			Contact: partner.ContactInfo{
				Email: f.Email(),
				Phone: f.Phone(),
			},
			Addresses:    partner.Addresses{Billing: billing, Shipping: shipping},
			PaymentTerms: terms,
			CreditLimit:  decimal.NewNullDecimal(limit),
			Insights: &partner.Insights{
				TotalOrders:         orders,
				AverageOrderValue:   pricing.Round(decimal.NewFromFloat(f.Price(50, 2500))),
				OutstandingPayments: pricing.Round(decimal.NewFromFloat(f.Price(0, 5000))),
				LastOrderDate:       &last,
				IsPreferredCustomer: orders > 40,
				CreditUtilization:   decimal.NewFromInt(int64(f.Number(0, 100))),
			},
			Preferences: &partner.Preferences{
				DefaultShippingAddress: shipping,
				DefaultBillingAddress:  billing,
				DefaultPaymentTerms:    terms,
				DefaultPaymentMethod:   f.RandomString(paymentMethods),
			},
		})
	}
	return out
}

// Products returns n sample products with a published price and inventory
func (g *Generator) Products(n int) []catalog.Product {
	f := g.faker(2)
	out := make([]catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		id := int64(sampleIDBase + i + 1)
		name := f.ProductName()
		price := pricing.Round(decimal.NewFromFloat(f.Price(5, 500)))
		typ := f.RandomString(productTypes)
		out = append(out, catalog.Product{
			ID:     id,
			Status: catalog.StatusPublished,
			Code:   fmt.Sprintf("SKU-%04d", i+1),
			Name:   catalog.LocalizedName{Default: name, EnUS: name},
			Type:   typ,
			Unit:   "1",
			Price:  price,
			OrgID:  g.orgID,
			Prices: []catalog.ProductPrice{{
				ID:     id,
				Status: catalog.StatusPublished,
				Price:  decimal.NewNullDecimal(price),
				Unit:   1,
			}},
			Inventory: []catalog.Inventory{{
				ID:     id,
				Status: catalog.StatusPublished,
				Name:   "Main warehouse",
				Qty:    f.Number(0, 60),
			}},
			Recurring: typ == "membership",
		})
	}
	return out
}

// SalesOrders returns n sample orders for customers, newest first.
// Each line total follows the regular pricing rules.
func (g *Generator) SalesOrders(n int, customers []partner.Customer, products []catalog.Product) []trade.SalesOrder {
	f := g.faker(3)
	out := make([]trade.SalesOrder, 0, n)
	for i := 0; i < n; i++ {
		id := sampleIDBase + i + 1
		order := trade.SalesOrder{
			ID:            strconv.Itoa(id),
			OrderNumber:   fmt.Sprintf("SO-%d", id),
			Status:        orderStatuses[f.Number(0, len(orderStatuses)-1)],
			Type:          trade.OrderTypeStandard,
			OrderDate:     g.anchor.AddDate(0, 0, -i*3),
			PaymentTerms:  f.RandomString(paymentTerms),
			PaymentMethod: f.RandomString(paymentMethods),
			Currency:      valueobject.DefaultCurrency,
			Notes:         f.Sentence(6),
		}
		if len(customers) > 0 {
			order.CustomerID = customers[i%len(customers)].ID
		}
		order.IsPaid = order.Status == trade.OrderStatusPaid

		seen := make(map[int64]bool)
		for j, count := 0, f.Number(1, 4); j < count && len(products) > 0; j++ {
			p := &products[f.Number(0, len(products)-1)]
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			line := trade.NewLineFromProduct(p, f.Number(1, 5))
			line.OrgID = g.orgID
			order.Lines = append(order.Lines, line)
		}
		order.ApplyTotals(pricing.OrderTotals(order.Lines))
		out = append(out, order)
	}
	return out
}

// Dataset bundles the fallback data of one desk
type Dataset struct {
	Customers []partner.Customer
	Products  []catalog.Product
	Orders    []trade.SalesOrder
}

// Default builds the fallback dataset used when the remote API is unreachable
func Default(orgID int, anchor time.Time) Dataset {
	g := New(DefaultSeed, orgID, anchor)
	customers := g.Customers(8)
	products := g.Products(12)
	return Dataset{
		Customers: customers,
		Products:  products,
		Orders:    g.SalesOrders(25, customers, products),
	}
}
