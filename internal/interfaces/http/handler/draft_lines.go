package handler

import (
	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AddProductRequest adds a catalog product
type AddProductRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Qty       int   `json:"qty" binding:"gte=0"`
}

// AddProductsRequest adds several catalog products at once
type AddProductsRequest struct {
	Items []AddProductRequest `json:"items" binding:"required,min=1,dive"`
}

// CustomLineRequest adds a line that is not taken from the catalog
type CustomLineRequest struct {
	ProductID    int64           `json:"product_id" binding:"required"`
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name" binding:"required"`
	NameEnUS     string          `json:"product_name_en_US"`
	NameZhHant   string          `json:"product_name_zh_HANT"`
	ProductType  string          `json:"product_type"`
	ProductUnit  string          `json:"product_unit"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Qty          int             `json:"qty" binding:"gte=0"`
	Discount     decimal.Decimal `json:"discount"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Recurring    bool            `json:"recurring"`
}

func (r CustomLineRequest) line() trade.OrderLine {
	l := trade.OrderLine{
		ProductID:   r.ProductID,
		ProductCode: r.ProductCode,
		LocalizedName: catalog.LocalizedName{
			Default: r.ProductName,
			EnUS:    r.NameEnUS,
			ZhHant:  r.NameZhHant,
		},
		ProductType:  r.ProductType,
		ProductUnit:  r.ProductUnit,
		ProductPrice: r.ProductPrice,
		Qty:          r.Qty,
		Discount:     r.Discount,
		TaxRate:      r.TaxRate,
	}
	if r.Recurring {
		l.Recurring = 1
	}
	return l
}

// UpdateLineRequest is a partial line update. product_id re-keys the line.
type UpdateLineRequest struct {
	ProductID    *int64           `json:"product_id"`
	ProductCode  *string          `json:"product_code"`
	ProductName  *string          `json:"product_name"`
	ProductType  *string          `json:"product_type"`
	ProductUnit  *string          `json:"product_unit"`
	ProductPrice *decimal.Decimal `json:"product_price"`
	Qty          *int             `json:"qty"`
	Discount     *decimal.Decimal `json:"discount"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	Recurring    *bool            `json:"recurring"`
	Status       *string          `json:"status"`
}

func (r UpdateLineRequest) patch() trade.LinePatch {
	return trade.LinePatch{
		ProductID:    r.ProductID,
		ProductCode:  r.ProductCode,
		DefaultName:  r.ProductName,
		ProductType:  r.ProductType,
		ProductUnit:  r.ProductUnit,
		ProductPrice: r.ProductPrice,
		Qty:          r.Qty,
		Discount:     r.Discount,
		TaxRate:      r.TaxRate,
		Recurring:    r.Recurring,
		Status:       r.Status,
	}
}

// ReorderRequest moves the active line onto the over line
type ReorderRequest struct {
	ActiveID int64 `json:"active_id" binding:"required"`
	OverID   int64 `json:"over_id" binding:"required"`
}

// SelectionRequest replaces the selection
type SelectionRequest struct {
	ProductIDs []int64 `json:"product_ids"`
}

// BulkDiscountRequest sets the discount of the selected lines
type BulkDiscountRequest struct {
	Discount decimal.Decimal `json:"discount"`
}

// BulkTaxRequest sets the tax rate of the selected lines
type BulkTaxRequest struct {
	TaxRate decimal.Decimal `json:"tax_rate"`
}

// LineView is an order line named for the caller's language
type LineView struct {
	trade.OrderLine
	DisplayName string `json:"display_name"`
}

// ListLines returns the displayed lines, narrowed by ?search= when given
// GET /draft/lines
func (h *DraftHandler) ListLines(c *gin.Context) {
	var lines []trade.OrderLine
	if term, ok := c.GetQuery("search"); ok {
		lines = h.draft.SearchLines(term)
	} else {
		lines = h.draft.Lines()
	}
	tags := catalog.ParseLanguage(c.GetHeader("Accept-Language"))
	views := make([]LineView, len(lines))
	for i, l := range lines {
		views[i] = LineView{OrderLine: l, DisplayName: l.DisplayName(tags...)}
	}
	h.Success(c, views)
}

// AddProduct adds a catalog product. The stock check, if any, is returned with the line.
// POST /draft/lines
func (h *DraftHandler) AddProduct(c *gin.Context) {
	var req AddProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.refreshCatalog(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	line, stock, err := h.draft.AddProduct(req.ProductID, req.Qty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"line": line, "stock": stock})
}

// AddProducts adds several catalog products; the batch is all or nothing
// POST /draft/lines/batch
func (h *DraftHandler) AddProducts(c *gin.Context) {
	var req AddProductsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.refreshCatalog(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	products := h.draft.Catalog()
	lines := make([]trade.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		p, ok := products.Find(item.ProductID)
		if !ok {
			h.NotFound(c, "Product not found in catalog")
			return
		}
		lines = append(lines, trade.NewLineFromProduct(p, item.Qty))
	}
	added, err := h.draft.AddLines(lines)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, added)
}

// AddCustomLine adds a line entered by hand
// POST /draft/lines/custom
func (h *DraftHandler) AddCustomLine(c *gin.Context) {
	var req CustomLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.syncCatalog(c)
	line, stock, err := h.draft.AddLine(req.line())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"line": line, "stock": stock})
}

// UpdateLine patches a line
// PATCH /draft/lines/:product_id
func (h *DraftHandler) UpdateLine(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product id")
		return
	}
	var req UpdateLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.syncCatalog(c)
	line, stock, err := h.draft.UpdateLine(id, req.patch())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"line": line, "stock": stock})
}

// DeleteLine removes a line
// DELETE /draft/lines/:product_id
func (h *DraftHandler) DeleteLine(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product id")
		return
	}
	if err := h.draft.DeleteLine(id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ClearLines removes every line
// DELETE /draft/lines
func (h *DraftHandler) ClearLines(c *gin.Context) {
	h.draft.ClearLines()
	h.NoContent(c)
}

// ToggleRecurring flips the recurring flag of a line
// POST /draft/lines/:product_id/recurring
func (h *DraftHandler) ToggleRecurring(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product id")
		return
	}
	line, err := h.draft.ToggleRecurring(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// ReorderLines moves a line
// POST /draft/lines/reorder
func (h *DraftHandler) ReorderLines(c *gin.Context) {
	var req ReorderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.draft.ReorderLines(req.ActiveID, req.OverID)
	h.Success(c, h.draft.Lines())
}

// SetSelection replaces the selection
// PUT /draft/selection
func (h *DraftHandler) SetSelection(c *gin.Context) {
	var req SelectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.draft.SetSelection(req.ProductIDs)
	h.Success(c, h.draft.Selected())
}

// SelectAll selects every displayed line
// POST /draft/selection/all
func (h *DraftHandler) SelectAll(c *gin.Context) {
	h.draft.SelectAll()
	h.Success(c, h.draft.Selected())
}

// ApplyBulkDiscount sets the discount of the selected lines
// POST /draft/selection/discount
func (h *DraftHandler) ApplyBulkDiscount(c *gin.Context) {
	var req BulkDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.draft.ApplyBulkDiscount(req.Discount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"updated": n})
}

// ApplyBulkTax sets the tax rate of the selected lines
// POST /draft/selection/tax
func (h *DraftHandler) ApplyBulkTax(c *gin.Context) {
	var req BulkTaxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.draft.ApplyBulkTax(req.TaxRate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"updated": n})
}
