package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/printing"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/erp/orderdesk/internal/domain/trade"
)

const (
	pathProducts         = "/items/product"
	pathCompanies        = "/items/company"
	pathOrders           = "/items/order"
	pathDocumentTemplate = "/items/document_template/"
	pathCreateOrder      = "/orders/create"
	pathLogin            = "/auth/login"

	filterAll = "all"
)

// OrderQuery filters the order history
type OrderQuery struct {
	Page     int
	Limit    int
	Status   string
	Type     string
	DateFrom *time.Time
}

// OrderPage is one page of orders plus the total matching the filter
type OrderPage struct {
	Orders     []trade.SalesOrder `json:"orders"`
	TotalCount int                `json:"total_count"`
}

// TemplatePage is one page of remote templates
type TemplatePage struct {
	Templates  []trade.Template `json:"templates"`
	TotalCount int              `json:"total_count"`
}

// OrderItem is one product of an order creation request
type OrderItem struct {
	ID  int64 `json:"id"`
	Qty int   `json:"qty"`
}

// CreateOrderRequest is the body of the order creation endpoint
type CreateOrderRequest struct {
	Orq        int         `json:"orq"`
	Company    int64       `json:"company"`
	CustomerID int64       `json:"customer_id"`
	Product    []OrderItem `json:"product"`
}

// CreateOrderResult is the decoded answer of the order creation endpoint.
// Status is the status reported inside the body, not the HTTP status.
type CreateOrderResult struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Succeeded reports whether the backend accepted the order
func (r CreateOrderResult) Succeeded() bool {
	return r.Status == http.StatusOK
}

// Tokens is what a successful login returns
type Tokens struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the lifetime the backend announced, zero if absent
	ExpiresIn time.Duration
}

// API maps the remote collections onto domain types
type API struct {
	client *Client
	orgID  int
}

// NewAPI creates an API scoped to one organization
func NewAPI(client *Client, orgID int) *API {
	return &API{client: client, orgID: orgID}
}

// OrgID returns the organization every query is filtered by
func (a *API) OrgID() int {
	return a.orgID
}

func (a *API) collectionQuery() url.Values {
	q := url.Values{}
	q.Set("meta", "*")
	q.Set("filter[orq][_eq]", strconv.Itoa(a.orgID))
	return q
}

// Products returns the whole catalog of the organization with prices and inventory
func (a *API) Products(ctx context.Context) ([]catalog.Product, error) {
	q := a.collectionQuery()
	q.Set("fields", "*,product_price.*,inventory.*")
	q.Set("limit", "-1")

	var env listEnvelope[productDTO]
	if err := a.get(ctx, pathProducts, q, &env); err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(env.Data))
	for _, p := range env.Data {
		out = append(out, p.toDomain())
	}
	return out, nil
}

// Customers returns the companies of the organization
func (a *API) Customers(ctx context.Context) ([]partner.Customer, error) {
	q := a.collectionQuery()
	q.Set("fields", "*")
	q.Set("limit", "-1")

	var env listEnvelope[companyDTO]
	if err := a.get(ctx, pathCompanies, q, &env); err != nil {
		return nil, err
	}
	out := make([]partner.Customer, 0, len(env.Data))
	for _, c := range env.Data {
		out = append(out, c.toDomain())
	}
	return out, nil
}

// Orders returns one page of order history
func (a *API) Orders(ctx context.Context, query OrderQuery) (*OrderPage, error) {
	q := a.collectionQuery()
	q.Set("fields", "*,product.*")
	q.Set("limit", strconv.Itoa(max(query.Limit, 1)))
	q.Set("page", strconv.Itoa(max(query.Page, 1)))
	if query.Status != "" && query.Status != filterAll {
		q.Set("filter[status][_eq]", query.Status)
	}
	if query.Type != "" && query.Type != filterAll {
		q.Set("filter[type][_eq]", query.Type)
	}
	if query.DateFrom != nil {
		q.Set("filter[order_date][_gte]", query.DateFrom.Format(time.DateOnly))
	}

	var env listEnvelope[orderDTO]
	if err := a.get(ctx, pathOrders, q, &env); err != nil {
		return nil, err
	}
	page := &OrderPage{Orders: make([]trade.SalesOrder, 0, len(env.Data)), TotalCount: env.count()}
	for _, o := range env.Data {
		page.Orders = append(page.Orders, o.toOrder(a.orgID))
	}
	return page, nil
}

// Templates returns one page of orders of type template.
// Only published lines are kept.
func (a *API) Templates(ctx context.Context, page, limit int) (*TemplatePage, error) {
	q := a.collectionQuery()
	q.Set("fields", "*,product.*")
	q.Set("limit", strconv.Itoa(max(limit, 1)))
	q.Set("page", strconv.Itoa(max(page, 1)))
	q.Set("filter[type][_eq]", trade.OrderTypeTemplate)

	var env listEnvelope[orderDTO]
	if err := a.get(ctx, pathOrders, q, &env); err != nil {
		return nil, err
	}
	out := &TemplatePage{Templates: make([]trade.Template, 0, len(env.Data)), TotalCount: env.count()}
	for _, o := range env.Data {
		out.Templates = append(out.Templates, o.toTemplate(a.orgID))
	}
	return out, nil
}

// DocumentTemplate fetches one document template by id
func (a *API) DocumentTemplate(ctx context.Context, id string) (*printing.DocumentTemplate, error) {
	q := url.Values{}
	q.Set("fields", "*")
	var env itemEnvelope[printing.DocumentTemplate]
	if err := a.get(ctx, pathDocumentTemplate+url.PathEscape(id), q, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// CreateOrder submits a new order. A transport failure or non-2xx answer is an error;
// a 2xx answer is decoded and its body status left for the caller to judge.
func (a *API) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.Orq == 0 {
		req.Orq = a.orgID
	}
	resp, err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: pathCreateOrder, Body: req})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrOrderCreation, err)
	}
	var result CreateOrderResult
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrOrderCreation, err)
	}
	return &result, nil
}

// Login exchanges credentials for tokens
func (a *API) Login(ctx context.Context, email, password string) (*Tokens, error) {
	resp, err := a.client.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      pathLogin,
		Body:      loginRequest{Email: email, Password: password},
		Anonymous: true,
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode < 500 {
			return nil, shared.ErrInvalidCredential
		}
		return nil, err
	}
	var env itemEnvelope[loginDTO]
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.Data.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response did not contain an access token", shared.ErrInvalidCredential)
	}
	return &Tokens{
		AccessToken:  env.Data.AccessToken,
		RefreshToken: env.Data.RefreshToken,
		ExpiresIn:    time.Duration(env.Data.Expires) * time.Millisecond,
	}, nil
}

func (a *API) get(ctx context.Context, path string, q url.Values, v any) error {
	resp, err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

func (p productDTO) toDomain() catalog.Product {
	prod := catalog.Product{
		ID:     p.ID,
		Status: p.Status,
		Code:   str(p.Code),
		Name: catalog.LocalizedName{
			Default: p.Name,
			EnUS:    str(p.NameEnUS),
			ZhHant:  str(p.NameZhHant),
		},
		Description:        str(p.Description),
		Type:               str(p.Type),
		Price:              orZero(p.Price),
		Recurring:          p.Recurring != nil && *p.Recurring,
		OrgID:              p.Orq.Int(),
		Duration:           p.Duration.Int(),
		EligibilityWindow:  p.EligibilityWindow.Int(),
		MembershipStartDay: p.MembershipStartDay.Int(),
	}
	if p.Unit != nil {
		prod.Unit = strconv.Itoa(p.Unit.Int())
	}
	for _, pp := range p.ProductPrice {
		prod.Prices = append(prod.Prices, catalog.ProductPrice{
			ID:           pp.ID,
			Status:       pp.Status,
			Variant:      str(pp.Variant),
			Price:        pp.Price,
			DiscountRate: pp.DiscountRate,
			Cost:         orZero(pp.Cost),
			Unit:         pp.Unit.Int(),
		})
	}
	for _, inv := range p.Inventory {
		prod.Inventory = append(prod.Inventory, catalog.Inventory{
			ID:       inv.ID,
			Status:   inv.Status,
			Name:     str(inv.Name),
			Location: str(inv.Location),
			Qty:      inv.Qty.Int(),
		})
	}
	return prod
}

func (a addressDTO) toDomain() valueobject.Address {
	return valueobject.NewAddress(a.Street, a.City, a.State, a.PostalCode, a.Country)
}

func addressOf(a *addressDTO) valueobject.Address {
	if a == nil {
		return valueobject.Address{}
	}
	return a.toDomain()
}

func (c companyDTO) toDomain() partner.Customer {
	cust := partner.Customer{
		ID:     c.ID,
		Status: c.Status,
		Name:   c.Name,
		Code:   str(c.Code),
		Group:  str(c.Group),
		OrgID:  c.Orq.Int(),
	}
	raw := c.Raw
	if raw == nil {
		return cust
	}
	cust.Contact = partner.ContactInfo{Email: str(raw.Email), Phone: str(raw.Phone), TaxID: str(raw.TaxID)}
	cust.Addresses = partner.Addresses{
		Billing:  addressOf(raw.BillingAddress),
		Shipping: addressOf(raw.ShippingAddress),
	}
	cust.PaymentTerms = str(raw.PaymentTerms)
	cust.IsGuest = raw.IsGuest
	cust.CreditLimit = raw.CreditLimit
	if in := raw.Insights; in != nil {
		cust.Insights = &partner.Insights{
			TotalOrders:             in.TotalOrders.Int(),
			AverageOrderValue:       orZero(in.AverageOrderValue),
			OutstandingPayments:     orZero(in.OutstandingPayments),
			LastOrderDate:           parseTime(in.LastOrderDate),
			PreferredShippingMethod: str(in.PreferredShippingMethod),
			PreferredPaymentMethod:  str(in.PreferredPaymentMethod),
			PreferredWarehouse:      str(in.PreferredWarehouse),
			IsPreferredCustomer:     in.IsPreferredCustomer,
			CreditUtilization:       orZero(in.CreditUtilization),
		}
	}
	if pr := raw.Preferences; pr != nil {
		cust.Preferences = &partner.Preferences{
			DefaultShippingAddress: addressOf(pr.DefaultShippingAddress),
			DefaultBillingAddress:  addressOf(pr.DefaultBillingAddress),
			DefaultPaymentTerms:    str(pr.DefaultPaymentTerms),
			DefaultShippingMethod:  str(pr.DefaultShippingMethod),
			DefaultPaymentMethod:   str(pr.DefaultPaymentMethod),
			TaxExempt:              pr.TaxExempt,
			TaxExemptionNumber:     str(pr.TaxExemptionNumber),
			SpecialPricing:         pr.SpecialPricing,
			Notes:                  str(pr.Notes),
		}
	}
	return cust
}

func (l orderLineDTO) toDomain(orgID int) trade.OrderLine {
	name := str(l.ProductName)
	zh := str(l.ProductNameZhHant)
	if zh == "" {
		zh = name
	}
	orq := l.Orq.Int()
	if orq == 0 {
		orq = orgID
	}
	return trade.OrderLine{
		ProductID:          l.ProductID.Int64(),
		ProductCode:        str(l.ProductCode),
		LocalizedName:      catalog.LocalizedName{Default: name, EnUS: str(l.ProductNameEnUS), ZhHant: zh},
		ProductType:        str(l.ProductType),
		ProductUnit:        unitString(l.ProductUnit),
		ProductPrice:       orZero(l.ProductPrice),
		Qty:                l.Qty.Int(),
		Discount:           orZero(l.Discount),
		TaxRate:            orZero(l.TaxRate),
		Total:              orZero(l.Total),
		Recurring:          l.Recurring.Int(),
		Status:             l.Status,
		OrgID:              orq,
		Duration:           l.Duration.Int(),
		EligibilityWindow:  l.EligibilityWindow.Int(),
		MembershipStartDay: l.MembershipStartDay.Int(),
	}
}

func (o orderDTO) baseOrder() trade.SalesOrder {
	id := strconv.FormatInt(o.ID.Int64(), 10)
	order := trade.SalesOrder{
		ID:            id,
		OrderNumber:   str(o.Code),
		CustomerID:    o.Company.Int64(),
		Status:        trade.OrderStatus(o.Status),
		Type:          str(o.Type),
		DeliveryDate:  parseTime(o.DeliveryDate),
		DueDate:       parseTime(o.OrderDueDate),
		PaymentMethod: str(o.PaymentMethod),
		Currency:      valueobject.DefaultCurrency,
		Subtotal:      orZero(o.AmountTotal),
		TaxTotal:      orZero(o.TaxAmountPayable),
		DiscountTotal: orZero(o.Discount),
		Total:         orZero(o.AmountTotal),
		Notes:         str(o.Remarks),
	}
	if t := parseTime(o.OrderDate); t != nil {
		order.OrderDate = *t
	}
	return order
}

func (o orderDTO) toOrder(orgID int) trade.SalesOrder {
	order := o.baseOrder()
	if order.OrderNumber == "" {
		order.OrderNumber = "SO-" + order.ID
	}
	order.IsPaid = o.PaymentDate != nil
	order.Lines = make([]trade.OrderLine, 0, len(o.Product))
	for _, l := range o.Product {
		order.Lines = append(order.Lines, l.toDomain(orgID))
	}
	return order
}

func (o orderDTO) toTemplate(orgID int) trade.Template {
	order := o.baseOrder()
	order.CustomerID = o.Member.Int64()
	order.IsPaid = o.Status == string(trade.OrderStatusPaid)
	order.Lines = make([]trade.OrderLine, 0, len(o.Product))
	for _, l := range o.Product {
		if l.Status != trade.LineStatusPublished {
			continue
		}
		line := l.toDomain(orgID)
		if line.ProductUnit == "" {
			line.ProductUnit = "piece"
		}
		order.Lines = append(order.Lines, line)
	}

	tpl := trade.Template{
		SalesOrder:  order,
		Name:        str(o.Code),
		Description: str(o.Remarks),
	}
	if tpl.Name == "" {
		tpl.Name = "Template " + order.ID
	}
	if tpl.Description == "" {
		tpl.Description = "No description available"
	}
	if t := parseTime(o.DateCreated); t != nil {
		tpl.CreatedAt = *t
	}
	return tpl
}
