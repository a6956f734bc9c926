// Package orderdraft coordinates the draft sales order of a session.
package orderdraft

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderCreator submits finished drafts to the order backend
type OrderCreator interface {
	CreateOrder(ctx context.Context, req remote.CreateOrderRequest) (*remote.CreateOrderResult, error)
}

// Config holds draft defaults
type Config struct {
	OrgID           int
	DefaultCurrency valueobject.Currency
	ExchangeRates   valueobject.ExchangeRates
}

// Header is the editable metadata of the draft
type Header struct {
	OrderDate      time.Time            `json:"order_date"`
	DeliveryDate   *time.Time           `json:"delivery_date,omitempty"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	PaymentTerms   string               `json:"payment_terms"`
	PaymentMethod  string               `json:"payment_method"`
	Currency       valueobject.Currency `json:"currency"`
	ShippingMethod string               `json:"shipping_method"`
	ShippingCost   decimal.Decimal      `json:"shipping_cost"`
	Notes          string               `json:"notes"`
	CustomerNotes  string               `json:"customer_notes"`
	InternalNotes  string               `json:"internal_notes"`
}

// HeaderPatch is a partial header update. Nil fields are left unchanged.
// ClearDeliveryDate and ClearDueDate unset the optional dates.
type HeaderPatch struct {
	OrderDate         *time.Time
	DeliveryDate      *time.Time
	ClearDeliveryDate bool
	DueDate           *time.Time
	ClearDueDate      bool
	PaymentTerms      *string
	PaymentMethod     *string
	Currency          *string
	ShippingMethod    *string
	ShippingCost      *decimal.Decimal
	Notes             *string
	CustomerNotes     *string
	InternalNotes     *string
}

// UploadReceipt acknowledges a bulk upload. File contents are not parsed.
type UploadReceipt struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	ReceivedAt time.Time `json:"received_at"`
	Message    string    `json:"message"`
}

// View is a consistent read of the whole draft
type View struct {
	OrderNumber    string              `json:"order_number"`
	Status         trade.OrderStatus   `json:"status"`
	Type           string              `json:"type"`
	Customer       *partner.Customer   `json:"customer,omitempty"`
	Header         Header              `json:"header"`
	Lines          []trade.OrderLine   `json:"lines"`
	OriginalLines  []trade.OrderLine   `json:"original_lines"`
	Selected       []int64             `json:"selected"`
	SearchTerm     string              `json:"search_term,omitempty"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountTotal  decimal.Decimal     `json:"discount_total"`
	TaxTotal       decimal.Decimal     `json:"tax_total"`
	Total          decimal.Decimal     `json:"total"`
	Warnings       trade.Warnings      `json:"warnings"`
	CopyTarget     string              `json:"copy_target,omitempty"`
	LocalCustomers []*partner.Customer `json:"local_customers,omitempty"`
}

// Option configures a Draft
type Option func(*Draft)

// WithLogger sets the draft logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Draft) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(d *Draft) { d.now = now }
}

// WithOrderNumbers overrides the generator of the numeric order number suffix
func WithOrderNumbers(next func() int) Option {
	return func(d *Draft) { d.nextNumber = next }
}

// Draft is the order being built in this session.
// Every method holds the lock for its whole mutation; remote calls run unlocked.
type Draft struct {
	cfg        Config
	creator    OrderCreator
	logger     *zap.Logger
	now        func() time.Time
	nextNumber func() int

	mu             sync.Mutex
	orderNumber    string
	status         trade.OrderStatus
	orderType      string
	customer       *partner.Customer
	localCustomers []*partner.Customer
	header         Header
	lines          *trade.OrderLineStore
	catalog        *catalog.Catalog
	templates      []*trade.Template
	copyTarget     string
	uploads        []UploadReceipt
}

// New creates an empty draft
func New(cfg Config, creator OrderCreator, opts ...Option) *Draft {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = valueobject.DefaultCurrency
	}
	if cfg.ExchangeRates == nil {
		cfg.ExchangeRates = valueobject.DefaultExchangeRates()
	}
	d := &Draft{
		cfg:        cfg,
		creator:    creator,
		logger:     zap.NewNop(),
		now:        time.Now,
		nextNumber: func() int { return rand.IntN(10000) },
	}
	for _, opt := range opts {
		opt(d)
	}
	d.reset()
	return d
}

// Reset discards the draft and starts a new one with a fresh order number.
// Local customers and saved templates survive.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Draft) reset() {
	d.orderNumber = fmt.Sprintf("SO-%d", d.nextNumber())
	d.status = trade.OrderStatusDraft
	d.orderType = trade.OrderTypeStandard
	d.customer = nil
	d.header = Header{
		OrderDate:    d.now(),
		Currency:     d.cfg.DefaultCurrency,
		ShippingCost: decimal.Zero,
	}
	d.lines = trade.NewOrderLineStore()
	d.copyTarget = ""
}

// OrderNumber returns the draft's order number
func (d *Draft) OrderNumber() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orderNumber
}

// Status returns the draft's status
func (d *Draft) Status() trade.OrderStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// SetStatus changes the status of the draft
func (d *Draft) SetStatus(status trade.OrderStatus) error {
	if !status.IsValid() {
		return shared.ErrInvalidStatus
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	return nil
}

// SaveDraft marks the draft as draft
func (d *Draft) SaveDraft() {
	_ = d.SetStatus(trade.OrderStatusDraft)
}

// MarkPending marks the draft as pending
func (d *Draft) MarkPending() {
	_ = d.SetStatus(trade.OrderStatusPending)
}

// Header returns the draft metadata
func (d *Draft) Header() Header {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header
}

// UpdateHeader applies patch. Nothing changes when any field is invalid.
func (d *Draft) UpdateHeader(patch HeaderPatch) (Header, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := d.header
	if patch.OrderDate != nil {
		if patch.OrderDate.IsZero() {
			return d.header, shared.NewDomainError("INVALID_DATE", "Order date is required")
		}
		h.OrderDate = *patch.OrderDate
	}
	switch {
	case patch.ClearDeliveryDate:
		h.DeliveryDate = nil
	case patch.DeliveryDate != nil:
		t := *patch.DeliveryDate
		h.DeliveryDate = &t
	}
	switch {
	case patch.ClearDueDate:
		h.DueDate = nil
	case patch.DueDate != nil:
		t := *patch.DueDate
		h.DueDate = &t
	}
	if patch.Currency != nil {
		c, err := valueobject.ParseCurrency(*patch.Currency)
		if err != nil {
			return d.header, shared.NewDomainError("INVALID_CURRENCY", err.Error())
		}
		h.Currency = c
	}
	if patch.ShippingCost != nil {
		if patch.ShippingCost.IsNegative() {
			return d.header, shared.NewDomainError("INVALID_SHIPPING_COST", "Shipping cost cannot be negative")
		}
		h.ShippingCost = *patch.ShippingCost
	}
	setString(&h.PaymentTerms, patch.PaymentTerms)
	setString(&h.PaymentMethod, patch.PaymentMethod)
	setString(&h.ShippingMethod, patch.ShippingMethod)
	setString(&h.Notes, patch.Notes)
	setString(&h.CustomerNotes, patch.CustomerNotes)
	setString(&h.InternalNotes, patch.InternalNotes)

	d.header = h
	return h, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// SetCatalog replaces the product snapshot used for stock checks
func (d *Draft) SetCatalog(products []catalog.Product) {
	c := catalog.NewCatalog(products)
	d.mu.Lock()
	d.catalog = c
	d.mu.Unlock()
}

// Catalog returns the product snapshot
func (d *Draft) Catalog() *catalog.Catalog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.catalog
}

// Snapshot builds a SalesOrder from the current draft with computed aggregates
func (d *Draft) Snapshot() trade.SalesOrder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

func (d *Draft) snapshot() trade.SalesOrder {
	h := d.header
	order := trade.SalesOrder{
		OrderNumber:    d.orderNumber,
		Status:         d.status,
		Type:           d.orderType,
		OrderDate:      h.OrderDate,
		DeliveryDate:   h.DeliveryDate,
		DueDate:        h.DueDate,
		PaymentTerms:   h.PaymentTerms,
		PaymentMethod:  h.PaymentMethod,
		Currency:       h.Currency,
		ShippingCost:   h.ShippingCost,
		Notes:          h.Notes,
		CustomerNotes:  h.CustomerNotes,
		InternalNotes:  h.InternalNotes,
		ShippingMethod: h.ShippingMethod,
		IsPaid:         d.status == trade.OrderStatusPaid,
		Lines:          d.lines.OriginalLines(),
	}
	if d.customer != nil {
		order.CustomerID = d.customer.ID
	}
	order.ApplyTotals(d.lines.Totals())
	return order
}

// Preview returns the snapshot converted into currency.
// An empty currency previews in the draft's own currency.
func (d *Draft) Preview(currency string) (trade.SalesOrder, error) {
	order := d.Snapshot()
	if strings.TrimSpace(currency) == "" {
		return order, nil
	}
	c, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return trade.SalesOrder{}, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	return order.ConvertedTo(c, d.cfg.ExchangeRates)
}

// Warnings evaluates credit and stock constraints on the whole draft
func (d *Draft) Warnings() trade.Warnings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return trade.Evaluate(d.customer, d.lines.OriginalLines(), d.catalog)
}

// View returns a consistent read of the draft
func (d *Draft) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	totals := d.lines.Totals()
	v := View{
		OrderNumber:    d.orderNumber,
		Status:         d.status,
		Type:           d.orderType,
		Customer:       d.customer,
		Header:         d.header,
		Lines:          d.lines.Lines(),
		OriginalLines:  d.lines.OriginalLines(),
		Selected:       d.lines.Selected(),
		SearchTerm:     d.lines.SearchTerm(),
		Subtotal:       totals.Subtotal,
		DiscountTotal:  totals.DiscountTotal,
		TaxTotal:       totals.TaxTotal,
		Total:          totals.Total,
		Warnings:       trade.Evaluate(d.customer, d.lines.OriginalLines(), d.catalog),
		CopyTarget:     d.copyTarget,
		LocalCustomers: append([]*partner.Customer(nil), d.localCustomers...),
	}
	return v
}

// CopyTo records the document type the draft should be copied to.
// No transformation happens yet.
func (d *Draft) CopyTo(ctx context.Context, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return shared.NewDomainError("INVALID_COPY_TARGET", "Copy target is required")
	}
	d.mu.Lock()
	d.copyTarget = target
	d.mu.Unlock()
	logger.Or(ctx, d.logger).Info("copy to requested", zap.String("target", target))
	return nil
}

// BulkUpload acknowledges an uploaded file without reading it
func (d *Draft) BulkUpload(ctx context.Context, fileName string, size int64) (UploadReceipt, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return UploadReceipt{}, shared.NewDomainError("INVALID_UPLOAD", "File name is required")
	}
	receipt := UploadReceipt{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Size:       size,
		ReceivedAt: d.now(),
		Message:    fmt.Sprintf("File %q has been uploaded successfully.", fileName),
	}
	d.mu.Lock()
	d.uploads = append(d.uploads, receipt)
	d.mu.Unlock()
	logger.Or(ctx, d.logger).Info("bulk upload received",
		zap.String("file", fileName),
		zap.Int64("size", size),
		zap.String("upload_id", receipt.ID))
	return receipt, nil
}

// Uploads returns the receipts of this session
func (d *Draft) Uploads() []UploadReceipt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]UploadReceipt(nil), d.uploads...)
}

// CreateOrder submits the draft. The status becomes pending only when the
// backend answers with status 200 in the body. On any failure the draft is
// left as it was so the user can retry.
func (d *Draft) CreateOrder(ctx context.Context) (*remote.CreateOrderResult, error) {
	d.mu.Lock()
	if d.customer == nil {
		d.mu.Unlock()
		return nil, shared.ErrNoCustomer
	}
	lines := d.lines.OriginalLines()
	req := remote.CreateOrderRequest{
		Orq:        d.cfg.OrgID,
		Company:    d.customer.ID,
		CustomerID: d.customer.ID,
		Product:    make([]remote.OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		req.Product = append(req.Product, remote.OrderItem{ID: l.ProductID, Qty: l.Qty})
	}
	orderNumber := d.orderNumber
	d.mu.Unlock()

	log := logger.Or(ctx, d.logger).With(zap.String("order_number", orderNumber))
	result, err := d.creator.CreateOrder(ctx, req)
	if err != nil {
		log.Error("order creation failed", zap.Error(err))
		if !errors.Is(err, shared.ErrOrderCreation) {
			err = fmt.Errorf("%w: %w", shared.ErrOrderCreation, err)
		}
		return nil, err
	}
	if !result.Succeeded() {
		log.Warn("order creation rejected",
			zap.Int("status", result.Status),
			zap.String("message", result.Message))
		return result, shared.NewDomainError(shared.ErrOrderCreation.Code,
			fmt.Sprintf("Failed to create order: %s", result.Message))
	}

	d.mu.Lock()
	// a Reset during the call started a new order; leave it in draft
	if d.orderNumber == orderNumber {
		d.status = trade.OrderStatusPending
	}
	d.mu.Unlock()
	log.Info("order created", zap.Int("lines", len(req.Product)))
	return result, nil
}
