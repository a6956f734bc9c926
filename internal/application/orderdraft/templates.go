package orderdraft

import (
	"context"
	"time"

	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrTemplateNotFound is returned for unknown local template ids
var ErrTemplateNotFound = shared.NewDomainError(shared.ErrNotFound.Code, "Template not found")

// CopyFrom replaces the lines and metadata of the draft with those of order.
// A zero order date becomes now; zero delivery and due dates are dropped.
// The draft becomes a standard order without a shipping method.
// Lines repeating a product are skipped and their ids returned. An order
// without a line list (nil, not empty) leaves the current lines in place.
func (d *Draft) CopyFrom(ctx context.Context, order trade.SalesOrder) ([]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var skipped []int64
	if order.Lines != nil {
		var err error
		if skipped, err = d.lines.Replace(order.Lines); err != nil {
			return nil, err
		}
	}

	h := d.header
	h.OrderDate = order.OrderDate
	if h.OrderDate.IsZero() {
		h.OrderDate = d.now()
	}
	h.DeliveryDate = validDate(order.DeliveryDate)
	h.DueDate = validDate(order.DueDate)
	h.PaymentTerms = order.PaymentTerms
	h.Currency = order.Currency
	if h.Currency == "" {
		h.Currency = d.cfg.DefaultCurrency
	}
	h.ShippingMethod = ""
	h.ShippingCost = decimal.Zero
	h.Notes = order.Notes
	h.CustomerNotes = order.CustomerNotes
	h.InternalNotes = order.InternalNotes
	d.header = h

	if order.Status.IsValid() {
		d.status = order.Status
	}
	d.orderType = trade.OrderTypeStandard

	log := logger.Or(ctx, d.logger).With(zap.String("source", order.OrderNumber))
	if len(skipped) > 0 {
		log.Warn("duplicate lines skipped while copying", zap.Int64s("product_ids", skipped))
	}
	log.Info("order copied into draft", zap.Int("lines", d.lines.Len()))
	return skipped, nil
}

func validDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := *t
	return &v
}

// SaveTemplate exports the draft as a local template
func (d *Draft) SaveTemplate(name, description string, tags []string) (*trade.Template, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tpl, err := trade.NewTemplate(d.snapshot(), name, description, tags, d.now())
	if err != nil {
		return nil, err
	}
	d.templates = append(d.templates, tpl)
	return tpl, nil
}

// Templates returns the local templates, oldest first
func (d *Draft) Templates() []*trade.Template {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*trade.Template(nil), d.templates...)
}

// Template returns the local template with the given id
func (d *Draft) Template(id string) (*trade.Template, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.templateIndex(id); i >= 0 {
		return d.templates[i], nil
	}
	return nil, ErrTemplateNotFound
}

// DeleteTemplate removes a local template
func (d *Draft) DeleteTemplate(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.templateIndex(id)
	if i < 0 {
		return ErrTemplateNotFound
	}
	d.templates = append(d.templates[:i], d.templates[i+1:]...)
	return nil
}

// LoadTemplate copies a local template into the draft
func (d *Draft) LoadTemplate(ctx context.Context, id string) ([]int64, error) {
	tpl, err := d.Template(id)
	if err != nil {
		return nil, err
	}
	order := tpl.SalesOrder
	if order.Lines == nil {
		order.Lines = []trade.OrderLine{}
	}
	return d.CopyFrom(ctx, order)
}

// PreviewTemplate loads the lines, payment terms and currency of tpl into the
// draft and clears the selected customer. It returns the order to preview.
func (d *Draft) PreviewTemplate(tpl trade.Template) (trade.SalesOrder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.lines.Replace(tpl.Lines); err != nil {
		return trade.SalesOrder{}, err
	}
	d.customer = nil
	d.header.PaymentTerms = tpl.PaymentTerms
	if tpl.Currency != "" {
		d.header.Currency = tpl.Currency
	} else {
		d.header.Currency = d.cfg.DefaultCurrency
	}

	preview := tpl.SalesOrder
	preview.OrderNumber = "PREVIEW-" + tpl.OrderNumber
	preview.Lines = d.lines.OriginalLines()
	preview.ApplyTotals(d.lines.Totals())
	return preview, nil
}

func (d *Draft) templateIndex(id string) int {
	for i, t := range d.templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}
