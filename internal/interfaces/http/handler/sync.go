package handler

import (
	"time"

	"github.com/erp/orderdesk/internal/application/datasync"
	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"github.com/erp/orderdesk/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the remote resources read through the sync layer
type SyncHandler struct {
	BaseHandler
	sync             *datasync.Service
	orderPageSize    int
	templatePageSize int
}

// NewSyncHandler creates a SyncHandler. A zero page size uses the sync layer default.
func NewSyncHandler(base BaseHandler, sync *datasync.Service, orderPageSize, templatePageSize int) *SyncHandler {
	return &SyncHandler{
		BaseHandler:      base,
		sync:             sync,
		orderPageSize:    orderPageSize,
		templatePageSize: templatePageSize,
	}
}

// OrderListQuery filters the order history
type OrderListQuery struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	Limit    int        `form:"limit" binding:"omitempty,min=1,max=100"`
	Status   string     `form:"status"`
	Type     string     `form:"type"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02" time_utc:"1"`
}

// PageQuery selects a page
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// InvalidateRequest names the cached resources to drop
type InvalidateRequest struct {
	Resources []string `json:"resources"`
}

// ProductView is a catalog product with its stock badge and the name for the caller's language
type ProductView struct {
	catalog.Product
	DisplayName string             `json:"display_name"`
	UsableStock int                `json:"usable_stock"`
	StockLevel  catalog.StockLevel `json:"stock_level"`
}

// ListProducts returns the product catalog, named per Accept-Language
// GET /products
func (h *SyncHandler) ListProducts(c *gin.Context) {
	res, err := h.sync.Products(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	tags := catalog.ParseLanguage(c.GetHeader("Accept-Language"))
	views := make([]ProductView, 0, len(res.Data))
	for i := range res.Data {
		p := &res.Data[i]
		views = append(views, ProductView{
			Product:     *p,
			DisplayName: p.Name.For(tags...),
			UsableStock: p.UsableStock(),
			StockLevel:  p.StockLevel(),
		})
	}
	h.SuccessWithMeta(c, views, resultMeta(res.TotalCount, 0, 0, res.Source, res.SoftError))
}

// ListCustomers returns the customers, or sample customers with a soft error
// GET /customers
func (h *SyncHandler) ListCustomers(c *gin.Context) {
	res, err := h.sync.Customers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, res.Data, resultMeta(res.TotalCount, 0, 0, res.Source, res.SoftError))
}

// ListOrders returns one page of order history
// GET /orders
func (h *SyncHandler) ListOrders(c *gin.Context) {
	var q OrderListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = h.orderPageSize
	}
	query := remote.OrderQuery{
		Page:     q.Page,
		Limit:    q.Limit,
		Status:   q.Status,
		Type:     q.Type,
		DateFrom: q.DateFrom,
	}
	res, err := h.sync.Orders(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, res.Data, resultMeta(res.TotalCount, q.Page, q.Limit, res.Source, res.SoftError))
}

// ListTemplates returns one page of remote order templates
// GET /templates
func (h *SyncHandler) ListTemplates(c *gin.Context) {
	var q PageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = h.templatePageSize
	}
	res, err := h.sync.Templates(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, res.Data, resultMeta(res.TotalCount, q.Page, q.Limit, res.Source, res.SoftError))
}

// GetDocumentTemplate returns a print layout
// GET /document-templates/:id
func (h *SyncHandler) GetDocumentTemplate(c *gin.Context) {
	res, err := h.sync.DocumentTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, res.Data, resultMeta(res.TotalCount, 0, 0, res.Source, nil))
}

// Invalidate drops cached resources
// POST /sync/invalidate
func (h *SyncHandler) Invalidate(c *gin.Context) {
	var req InvalidateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.sync.Invalidate(c.Request.Context(), req.Resources...); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// States returns the loading and error state of every resource
// GET /sync/state
func (h *SyncHandler) States(c *gin.Context) {
	h.Success(c, h.sync.States().All())
}

func resultMeta(total, page, pageSize int, source datasync.Source, softErr error) dto.Meta {
	meta := dto.NewPageMeta(int64(total), page, pageSize)
	meta.Source = string(source)
	if softErr != nil {
		meta.SoftError = softErr.Error()
	}
	return meta
}
