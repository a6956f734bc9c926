package orderdraft

import (
	"github.com/erp/orderdesk/internal/domain/pricing"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// AddLine appends a line and checks its stock against the catalog snapshot.
// The stock check is nil when the product is not in the catalog.
func (d *Draft) AddLine(line trade.OrderLine) (trade.OrderLine, *trade.StockCheck, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	added, err := d.lines.Add(line)
	if err != nil {
		return trade.OrderLine{}, nil, err
	}
	return added, d.stockCheck(added), nil
}

// AddProduct adds a catalog product with its published price and discount
func (d *Draft) AddProduct(productID int64, qty int) (trade.OrderLine, *trade.StockCheck, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.catalog.Find(productID)
	if !ok {
		return trade.OrderLine{}, nil, shared.NewDomainError(shared.ErrNotFound.Code, "Product not found in catalog")
	}
	added, err := d.lines.Add(trade.NewLineFromProduct(p, qty))
	if err != nil {
		return trade.OrderLine{}, nil, err
	}
	return added, d.stockCheck(added), nil
}

// AddLines adds several lines at once, as for favorites and bundles
func (d *Draft) AddLines(lines []trade.OrderLine) ([]trade.OrderLine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.AddMany(lines)
}

// UpdateLine patches the line of productID
func (d *Draft) UpdateLine(productID int64, patch trade.LinePatch) (trade.OrderLine, *trade.StockCheck, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	updated, err := d.lines.Update(productID, patch)
	if err != nil {
		return trade.OrderLine{}, nil, err
	}
	return updated, d.stockCheck(updated), nil
}

// DeleteLine removes the line of productID
func (d *Draft) DeleteLine(productID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.Delete(productID)
}

// ReorderLines moves the active line to the position of the over line
func (d *Draft) ReorderLines(activeID, overID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Reorder(activeID, overID)
}

// ToggleRecurring flips the recurring flag of a line
func (d *Draft) ToggleRecurring(productID int64) (trade.OrderLine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.ToggleRecurring(productID)
}

// ApplyBulkDiscount sets the discount of every selected line
func (d *Draft) ApplyBulkDiscount(pct decimal.Decimal) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.ApplyBulkDiscount(pct)
}

// ApplyBulkTax sets the tax rate of every selected line
func (d *Draft) ApplyBulkTax(rate decimal.Decimal) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.ApplyBulkTax(rate)
}

// SearchLines narrows the displayed lines
func (d *Draft) SearchLines(term string) []trade.OrderLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Search(term)
	return d.lines.Lines()
}

// ClearLines removes every line
func (d *Draft) ClearLines() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Clear()
}

// Select adds lines to the selection
func (d *Draft) Select(ids ...int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Select(ids...)
}

// Deselect removes lines from the selection
func (d *Draft) Deselect(ids ...int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Deselect(ids...)
}

// SetSelection replaces the selection
func (d *Draft) SetSelection(ids []int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.SetSelection(ids)
}

// SelectAll selects every displayed line
func (d *Draft) SelectAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.SelectAll()
}

// Selected returns the selected product ids
func (d *Draft) Selected() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.Selected()
}

// Lines returns the displayed lines
func (d *Draft) Lines() []trade.OrderLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.Lines()
}

// Line returns the line of productID
func (d *Draft) Line(productID int64) (trade.OrderLine, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.Line(productID)
}

// OriginalLines returns every line regardless of the search
func (d *Draft) OriginalLines() []trade.OrderLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.OriginalLines()
}

// Totals returns the aggregates of every line
func (d *Draft) Totals() pricing.Totals {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines.Totals()
}

func (d *Draft) stockCheck(line trade.OrderLine) *trade.StockCheck {
	p, ok := d.catalog.Find(line.ProductID)
	if !ok {
		return nil
	}
	check := trade.CheckStock(p, line.Qty)
	return &check
}
