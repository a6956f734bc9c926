package router

import (
	"net/http"

	"github.com/erp/orderdesk/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a set of routes under the API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers every queued registrar with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one area before they are mounted
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a route group mounted at prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPatch, path, handlers)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, handlers)
}

// Group creates a sub-group
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers are the HTTP handlers mounted by Routes
type Handlers struct {
	Draft *handler.DraftHandler
	Sync  *handler.SyncHandler
	Auth  *handler.AuthHandler
}

// Routes builds the route groups of the desk API
func Routes(h Handlers) []RouteRegistrar {
	var groups []RouteRegistrar

	if h.Auth != nil {
		auth := NewDomainGroup("auth", "/auth")
		auth.POST("/login", h.Auth.Login).
			POST("/token", h.Auth.UseToken).
			POST("/logout", h.Auth.Logout).
			GET("/me", h.Auth.Me)
		groups = append(groups, auth)
	}

	if h.Sync != nil {
		data := NewDomainGroup("data", "")
		data.GET("/products", h.Sync.ListProducts).
			GET("/customers", h.Sync.ListCustomers).
			GET("/orders", h.Sync.ListOrders).
			GET("/templates", h.Sync.ListTemplates).
			GET("/document-templates/:id", h.Sync.GetDocumentTemplate)
		data.Group("sync", "/sync").
			POST("/invalidate", h.Sync.Invalidate).
			GET("/state", h.Sync.States)
		groups = append(groups, data)
	}

	if h.Draft != nil {
		d := h.Draft
		draft := NewDomainGroup("draft", "/draft")
		draft.GET("", d.GetDraft).
			POST("/reset", d.Reset).
			PATCH("/header", d.UpdateHeader).
			PUT("/status", d.SetStatus).
			POST("/save", d.SaveDraft).
			POST("/pending", d.MarkPending).
			GET("/warnings", d.Warnings).
			GET("/preview", d.Preview).
			POST("/copy-from", d.CopyFrom).
			POST("/copy-to", d.CopyTo).
			POST("/order", d.CreateOrder).
			POST("/upload", d.BulkUpload).
			POST("/customers", d.CreateCustomer)

		draft.Group("customer", "/customer").
			PUT("", d.SelectCustomer).
			DELETE("", d.ClearCustomer).
			POST("/guest", d.UseGuest).
			POST("/convert", d.ConvertGuest)

		draft.Group("lines", "/lines").
			GET("", d.ListLines).
			POST("", d.AddProduct).
			DELETE("", d.ClearLines).
			POST("/batch", d.AddProducts).
			POST("/custom", d.AddCustomLine).
			POST("/reorder", d.ReorderLines).
			PATCH("/:product_id", d.UpdateLine).
			DELETE("/:product_id", d.DeleteLine).
			POST("/:product_id/recurring", d.ToggleRecurring)

		draft.Group("selection", "/selection").
			PUT("", d.SetSelection).
			POST("/all", d.SelectAll).
			POST("/discount", d.ApplyBulkDiscount).
			POST("/tax", d.ApplyBulkTax)

		draft.Group("templates", "/templates").
			GET("", d.ListTemplates).
			POST("", d.SaveTemplate).
			POST("/preview", d.PreviewTemplate).
			DELETE("/:id", d.DeleteTemplate).
			POST("/:id/load", d.LoadTemplate)

		groups = append(groups, draft)
	}

	return groups
}
