package handler

import (
	"context"
	"time"

	"github.com/erp/orderdesk/internal/application/datasync"
	"github.com/erp/orderdesk/internal/application/orderdraft"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DraftHandler exposes the order draft of this desk
type DraftHandler struct {
	BaseHandler
	draft *orderdraft.Draft
	sync  *datasync.Service
}

// NewDraftHandler creates a DraftHandler
func NewDraftHandler(base BaseHandler, draft *orderdraft.Draft, sync *datasync.Service) *DraftHandler {
	return &DraftHandler{BaseHandler: base, draft: draft, sync: sync}
}

// UpdateHeaderRequest is a partial update of the draft metadata
type UpdateHeaderRequest struct {
	OrderDate         *time.Time       `json:"order_date"`
	DeliveryDate      *time.Time       `json:"delivery_date"`
	ClearDeliveryDate bool             `json:"clear_delivery_date"`
	DueDate           *time.Time       `json:"due_date"`
	ClearDueDate      bool             `json:"clear_due_date"`
	PaymentTerms      *string          `json:"payment_terms"`
	PaymentMethod     *string          `json:"payment_method"`
	Currency          *string          `json:"currency" binding:"omitempty,currency"`
	ShippingMethod    *string          `json:"shipping_method"`
	ShippingCost      *decimal.Decimal `json:"shipping_cost"`
	Notes             *string          `json:"notes"`
	CustomerNotes     *string          `json:"customer_notes"`
	InternalNotes     *string          `json:"internal_notes"`
}

// SetStatusRequest changes the draft status
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SelectCustomerRequest selects a remote or local customer
type SelectCustomerRequest struct {
	CustomerID int64 `json:"customer_id" binding:"required"`
}

// CustomerDetailsRequest creates a customer or converts the guest
type CustomerDetailsRequest struct {
	Name            string              `json:"name" binding:"required"`
	Email           string              `json:"email" binding:"required,email"`
	Phone           string              `json:"phone"`
	TaxID           string              `json:"tax_id"`
	BillingAddress  valueobject.Address `json:"billing_address"`
	ShippingAddress valueobject.Address `json:"shipping_address"`
	PaymentTerms    string              `json:"payment_terms"`
}

func (r CustomerDetailsRequest) details() partner.Details {
	return partner.Details{
		Name: r.Name,
		Contact: partner.ContactInfo{
			Email: r.Email,
			Phone: r.Phone,
			TaxID: r.TaxID,
		},
		Addresses: partner.Addresses{
			Billing:  r.BillingAddress,
			Shipping: r.ShippingAddress,
		},
		PaymentTerms: r.PaymentTerms,
	}
}

// CopyToRequest names the document type to copy the draft to
type CopyToRequest struct {
	Target string `json:"target" binding:"required"`
}

// GetDraft returns the whole draft
// GET /draft
func (h *DraftHandler) GetDraft(c *gin.Context) {
	h.syncCatalog(c)
	h.Success(c, h.draft.View())
}

// Reset starts a new draft
// POST /draft/reset
func (h *DraftHandler) Reset(c *gin.Context) {
	h.draft.Reset()
	h.Success(c, h.draft.View())
}

// UpdateHeader patches the draft metadata
// PATCH /draft/header
func (h *DraftHandler) UpdateHeader(c *gin.Context) {
	var req UpdateHeaderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	header, err := h.draft.UpdateHeader(orderdraft.HeaderPatch{
		OrderDate:         req.OrderDate,
		DeliveryDate:      req.DeliveryDate,
		ClearDeliveryDate: req.ClearDeliveryDate,
		DueDate:           req.DueDate,
		ClearDueDate:      req.ClearDueDate,
		PaymentTerms:      req.PaymentTerms,
		PaymentMethod:     req.PaymentMethod,
		Currency:          req.Currency,
		ShippingMethod:    req.ShippingMethod,
		ShippingCost:      req.ShippingCost,
		Notes:             req.Notes,
		CustomerNotes:     req.CustomerNotes,
		InternalNotes:     req.InternalNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, header)
}

// SetStatus changes the draft status
// PUT /draft/status
func (h *DraftHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	status, err := trade.ParseOrderStatus(req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.draft.SetStatus(status); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"status": status})
}

// SaveDraft sets the status to draft
// POST /draft/save
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	h.draft.SaveDraft()
	h.Success(c, gin.H{"status": h.draft.Status()})
}

// MarkPending sets the status to pending
// POST /draft/pending
func (h *DraftHandler) MarkPending(c *gin.Context) {
	h.draft.MarkPending()
	h.Success(c, gin.H{"status": h.draft.Status()})
}

// SelectCustomer selects a customer by id, local customers first
// PUT /draft/customer
func (h *DraftHandler) SelectCustomer(c *gin.Context) {
	var req SelectCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.findCustomer(c.Request.Context(), req.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.draft.SelectCustomer(customer)
	h.Success(c, customer)
}

// ClearCustomer deselects the customer
// DELETE /draft/customer
func (h *DraftHandler) ClearCustomer(c *gin.Context) {
	h.draft.SelectCustomer(nil)
	h.NoContent(c)
}

// UseGuest starts a guest checkout
// POST /draft/customer/guest
func (h *DraftHandler) UseGuest(c *gin.Context) {
	h.Created(c, h.draft.UseGuest())
}

// ConvertGuest turns the guest into a customer
// POST /draft/customer/convert
func (h *DraftHandler) ConvertGuest(c *gin.Context) {
	var req CustomerDetailsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.draft.ConvertGuest(req.details())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// CreateCustomer registers a customer in this session and selects it
// POST /draft/customers
func (h *DraftHandler) CreateCustomer(c *gin.Context) {
	var req CustomerDetailsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.draft.CreateCustomer(req.details())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Warnings returns the credit and stock warnings
// GET /draft/warnings
func (h *DraftHandler) Warnings(c *gin.Context) {
	h.syncCatalog(c)
	h.Success(c, h.draft.Warnings())
}

// Preview returns the draft as an order, optionally converted
// GET /draft/preview?currency=EUR
func (h *DraftHandler) Preview(c *gin.Context) {
	order, err := h.draft.Preview(c.Query("currency"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CopyFrom replaces the draft with the posted order
// POST /draft/copy-from
func (h *DraftHandler) CopyFrom(c *gin.Context) {
	var order trade.SalesOrder
	if !h.BindJSON(c, &order) {
		return
	}
	h.syncCatalog(c)
	skipped, err := h.draft.CopyFrom(c.Request.Context(), order)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"draft": h.draft.View(), "skipped_product_ids": skipped})
}

// CopyTo records the copy target
// POST /draft/copy-to
func (h *DraftHandler) CopyTo(c *gin.Context) {
	var req CopyToRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.draft.CopyTo(c.Request.Context(), req.Target); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"target": req.Target})
}

// CreateOrder submits the draft to the order backend
// POST /draft/order
func (h *DraftHandler) CreateOrder(c *gin.Context) {
	result, err := h.draft.CreateOrder(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"result": result, "status": h.draft.Status()})
}

// BulkUpload acknowledges an uploaded file
// POST /draft/upload (multipart, field "file")
func (h *DraftHandler) BulkUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file is required")
		return
	}
	receipt, err := h.draft.BulkUpload(c.Request.Context(), file.Filename, file.Size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// refreshCatalog hands the current product list to the draft for stock checks
func (h *DraftHandler) refreshCatalog(ctx context.Context) error {
	if h.sync == nil {
		return nil
	}
	res, err := h.sync.Products(ctx)
	if err != nil {
		return err
	}
	h.draft.SetCatalog(res.Data)
	return nil
}

// syncCatalog refreshes the stock snapshot for reads and edits. A failed
// refresh keeps the last snapshot.
func (h *DraftHandler) syncCatalog(c *gin.Context) {
	if err := h.refreshCatalog(c.Request.Context()); err != nil {
		logger.L(c.Request.Context()).Warn("catalog refresh failed", zap.Error(err))
	}
}

func (h *DraftHandler) findCustomer(ctx context.Context, id int64) (*partner.Customer, error) {
	for _, c := range h.draft.LocalCustomers() {
		if c.ID == id {
			return c, nil
		}
	}
	if h.sync != nil {
		res, err := h.sync.Customers(ctx)
		if err != nil {
			return nil, err
		}
		for i := range res.Data {
			if res.Data[i].ID == id {
				customer := res.Data[i]
				return &customer, nil
			}
		}
	}
	return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Customer not found")
}
