package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/orderdesk/internal/application/datasync"
	appidentity "github.com/erp/orderdesk/internal/application/identity"
	"github.com/erp/orderdesk/internal/application/orderdraft"
	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/printing"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/infrastructure/persistence"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"github.com/erp/orderdesk/internal/infrastructure/sampledata"
	"github.com/erp/orderdesk/internal/interfaces/http/dto"
	"github.com/erp/orderdesk/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var errDown = errors.New("connection refused")

// fakeSource serves fixed remote data; a nil func answers errDown
type fakeSource struct {
	products  []catalog.Product
	customers func() ([]partner.Customer, error)
	orders    func(q remote.OrderQuery) (*remote.OrderPage, error)
	productsE error
}

func (f *fakeSource) Products(context.Context) ([]catalog.Product, error) {
	if f.productsE != nil {
		return nil, f.productsE
	}
	return f.products, nil
}

func (f *fakeSource) Customers(context.Context) ([]partner.Customer, error) {
	if f.customers == nil {
		return nil, errDown
	}
	return f.customers()
}

func (f *fakeSource) Orders(_ context.Context, q remote.OrderQuery) (*remote.OrderPage, error) {
	if f.orders == nil {
		return nil, errDown
	}
	return f.orders(q)
}

func (f *fakeSource) Templates(context.Context, int, int) (*remote.TemplatePage, error) {
	return nil, errDown
}

func (f *fakeSource) DocumentTemplate(context.Context, string) (*printing.DocumentTemplate, error) {
	return nil, errDown
}

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) CreateOrder(ctx context.Context, req remote.CreateOrderRequest) (*remote.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*remote.CreateOrderResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Login(ctx context.Context, email, password string) (*remote.Tokens, error) {
	args := m.Called(ctx, email, password)
	if t, ok := args.Get(0).(*remote.Tokens); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func catalogProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:    1,
			Code:  "P-001",
			Name:  catalog.LocalizedName{Default: "Yoga Mat"},
			Price: decimal.NewFromInt(20),
			Prices: []catalog.ProductPrice{
				{Status: catalog.StatusPublished, Price: decimal.NewNullDecimal(decimal.NewFromInt(25))},
			},
			Inventory: []catalog.Inventory{{Status: "published", Qty: 5}},
		},
	}
}

type testServer struct {
	engine  *gin.Engine
	draft   *orderdraft.Draft
	creator *mockCreator
	source  *fakeSource
}

func newTestServer(t *testing.T, samples sampledata.Dataset) *testServer {
	t.Helper()
	src := &fakeSource{products: catalogProducts()}
	creator := new(mockCreator)
	svc := datasync.NewService(src, nil, datasync.WithSamples(samples))
	draft := orderdraft.New(orderdraft.Config{OrgID: 63}, creator,
		orderdraft.WithOrderNumbers(func() int { return 7 }))

	base := NewBaseHandler("/signin")
	dh := NewDraftHandler(base, draft, svc)
	sh := NewSyncHandler(base, svc, 10, 5)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	d := api.Group("/draft")
	d.GET("", dh.GetDraft)
	d.PATCH("/header", dh.UpdateHeader)
	d.GET("/lines", dh.ListLines)
	d.POST("/lines", dh.AddProduct)
	d.PATCH("/lines/:product_id", dh.UpdateLine)
	d.POST("/copy-from", dh.CopyFrom)
	d.GET("/warnings", dh.Warnings)
	d.POST("/customer/guest", dh.UseGuest)
	d.PUT("/customer", dh.SelectCustomer)
	d.POST("/order", dh.CreateOrder)
	d.POST("/upload", dh.BulkUpload)
	d.POST("/templates", dh.SaveTemplate)
	d.GET("/templates", dh.ListTemplates)
	api.GET("/products", sh.ListProducts)
	api.GET("/customers", sh.ListCustomers)
	api.GET("/orders", sh.ListOrders)
	api.GET("/sync/state", sh.States)

	return &testServer{engine: engine, draft: draft, creator: creator, source: src}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestDraftHandler_ListLines(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 1, "qty": 2}).Code)

	var views []LineView
	w := s.do(http.MethodGet, "/api/v1/draft/lines?search=MAT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Yoga Mat", views[0].DisplayName)
	assert.Equal(t, 2, views[0].Qty)

	w = s.do(http.MethodGet, "/api/v1/draft/lines?search=kettlebell", nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &views))
	assert.Empty(t, views)
}

func TestDraftHandler_AddProduct(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})

	w := s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 1, "qty": 6})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Line  map[string]any    `json:"line"`
		Stock *trade.StockCheck `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "25", created.Line["product_price"])
	require.NotNil(t, created.Stock)
	assert.True(t, created.Stock.Insufficient)
	assert.Equal(t, 5, created.Stock.UsableStock)

	lines := s.draft.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 6, lines[0].Qty)

	t.Run("duplicate product is a conflict", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 1, "qty": 1})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "DUPLICATE_PRODUCT", decode(t, w).Error.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 99})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing product id fails validation", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"qty": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "product_id", env.Error.Details[0].Field)
	})

	t.Run("catalog outage is a hard error", func(t *testing.T) {
		s.source.productsE = &remote.StatusError{Method: http.MethodGet, Path: "/products", StatusCode: http.StatusBadGateway}
		defer func() { s.source.productsE = nil }()
		w := s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 1})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "REMOTE_UNAVAILABLE", decode(t, w).Error.Code)
	})
}

func TestDraftHandler_UpdateLine(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 1, "qty": 1}).Code)

	w := s.do(http.MethodPatch, "/api/v1/draft/lines/1", gin.H{"qty": 3, "discount": "150"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DISCOUNT", decode(t, w).Error.Code)

	w = s.do(http.MethodPatch, "/api/v1/draft/lines/1", gin.H{"qty": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	line, ok := s.draft.Line(1)
	require.True(t, ok)
	assert.Equal(t, 3, line.Qty)

	w = s.do(http.MethodPatch, "/api/v1/draft/lines/abc", gin.H{"qty": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/draft/lines/404", gin.H{"qty": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftHandler_StockWarningsAfterCopyFrom(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})
	order := gin.H{"order_lines": []gin.H{
		{"product_id": 1, "product_name": "Yoga Mat", "product_price": "25", "qty": 6},
	}}
	w := s.do(http.MethodPost, "/api/v1/draft/copy-from", order)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPatch, "/api/v1/draft/lines/1", gin.H{"qty": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Stock *trade.StockCheck `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &updated))
	require.NotNil(t, updated.Stock)
	assert.True(t, updated.Stock.Insufficient)
	assert.Equal(t, 7, updated.Stock.Requested)
	assert.Equal(t, 5, updated.Stock.UsableStock)

	var view struct {
		Warnings trade.Warnings `json:"warnings"`
	}
	w = s.do(http.MethodGet, "/api/v1/draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	require.Contains(t, view.Warnings.Stock, int64(1))
	assert.True(t, view.Warnings.Stock[1].Insufficient)

	var warnings trade.Warnings
	w = s.do(http.MethodGet, "/api/v1/draft/warnings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &warnings))
	require.Contains(t, warnings.Stock, int64(1))
	assert.Equal(t, 7, warnings.Stock[1].Requested)

	t.Run("catalog outage keeps the last snapshot", func(t *testing.T) {
		s.source.productsE = &remote.StatusError{Method: http.MethodGet, Path: "/products", StatusCode: http.StatusBadGateway}
		defer func() { s.source.productsE = nil }()
		w := s.do(http.MethodGet, "/api/v1/draft/warnings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var warnings trade.Warnings
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &warnings))
		assert.Contains(t, warnings.Stock, int64(1))
	})
}

func TestDraftHandler_UpdateLineNameKeepsTranslations(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})
	order := gin.H{"order_lines": []gin.H{{
		"product_id":           1,
		"product_name":         "Yoga Mat",
		"product_name_en_US":   "Yoga Mat (EN)",
		"product_name_zh_HANT": "瑜伽墊",
		"product_price":        "25",
		"qty":                  1,
	}}}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/draft/copy-from", order).Code)

	w := s.do(http.MethodPatch, "/api/v1/draft/lines/1", gin.H{"product_name": "Travel Yoga Mat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	line, ok := s.draft.Line(1)
	require.True(t, ok)
	assert.Equal(t, "Travel Yoga Mat", line.Default)
	assert.Equal(t, "Yoga Mat (EN)", line.EnUS)
	assert.Equal(t, "瑜伽墊", line.ZhHant)
}

func TestDraftHandler_UpdateHeaderRejectsUnknownCurrency(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})

	for _, code := range []string{"ABC", "XXX"} {
		w := s.do(http.MethodPatch, "/api/v1/draft/header", gin.H{"currency": code})
		require.Equal(t, http.StatusBadRequest, w.Code, code)
		env := decode(t, w)
		require.NotNil(t, env.Error)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "Invalid currency code", env.Error.Details[0].Message)
	}
	assert.Equal(t, "USD", string(s.draft.Header().Currency))

	w := s.do(http.MethodPatch, "/api/v1/draft/header", gin.H{"currency": "EUR", "notes": "rush"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "rush", s.draft.Header().Notes)
}

func TestDraftHandler_CreateOrder(t *testing.T) {
	t.Run("requires a customer", func(t *testing.T) {
		s := newTestServer(t, sampledata.Dataset{})
		w := s.do(http.MethodPost, "/api/v1/draft/order", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "NO_CUSTOMER", decode(t, w).Error.Code)
		s.creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("success marks the draft pending", func(t *testing.T) {
		s := newTestServer(t, sampledata.Dataset{})
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/draft/customer/guest", nil).Code)
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/draft/lines", gin.H{"product_id": 1, "qty": 2}).Code)

		s.creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req remote.CreateOrderRequest) bool {
			return req.Orq == 63 && len(req.Product) == 1 && req.Product[0].Qty == 2
		})).Return(&remote.CreateOrderResult{Status: http.StatusOK}, nil)

		w := s.do(http.MethodPost, "/api/v1/draft/order", nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "pending", string(s.draft.Status()))
		s.creator.AssertExpectations(t)
	})

	t.Run("rejected order keeps the draft", func(t *testing.T) {
		s := newTestServer(t, sampledata.Dataset{})
		s.do(http.MethodPost, "/api/v1/draft/customer/guest", nil)
		s.creator.On("CreateOrder", mock.Anything, mock.Anything).
			Return(&remote.CreateOrderResult{Status: 422, Message: "out of stock"}, nil)

		w := s.do(http.MethodPost, "/api/v1/draft/order", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "ORDER_CREATION_FAILED", decode(t, w).Error.Code)
		assert.Equal(t, "draft", string(s.draft.Status()))
	})

	t.Run("expired session redirects to login", func(t *testing.T) {
		s := newTestServer(t, sampledata.Dataset{})
		s.do(http.MethodPost, "/api/v1/draft/customer/guest", nil)
		s.creator.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, &remote.StatusError{Method: http.MethodPost, Path: "/sales-orders", StatusCode: http.StatusUnauthorized})

		w := s.do(http.MethodPost, "/api/v1/draft/order", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
		assert.Equal(t, "UNAUTHORIZED", decode(t, w).Error.Code)
	})
}

func TestDraftHandler_SelectCustomer(t *testing.T) {
	samples := sampledata.Dataset{Customers: []partner.Customer{{ID: 501, Name: "Acme"}}}
	s := newTestServer(t, samples)

	w := s.do(http.MethodPut, "/api/v1/draft/customer", gin.H{"customer_id": 501})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, s.draft.Customer())
	assert.Equal(t, "Acme", s.draft.Customer().Name)

	w = s.do(http.MethodPut, "/api/v1/draft/customer", gin.H{"customer_id": 9})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftHandler_BulkUpload(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "orders.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("product_id,qty\n1,2\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/draft/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var receipt orderdraft.UploadReceipt
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &receipt))
	assert.Equal(t, `File "orders.csv" has been uploaded successfully.`, receipt.Message)

	w = s.do(http.MethodPost, "/api/v1/draft/upload", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftHandler_Templates(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})

	w := s.do(http.MethodPost, "/api/v1/draft/templates", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/draft/templates", gin.H{"name": "Weekly", "tags": []string{"gym"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/draft/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestSyncHandler_Products(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})
	products := catalogProducts()
	products[0].Name.ZhHant = "瑜伽墊"
	s.source.products = products

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var views []ProductView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "瑜伽墊", views[0].DisplayName)
	assert.Equal(t, "Yoga Mat", views[0].Name.Default)
	assert.Equal(t, 5, views[0].UsableStock)
	assert.Equal(t, catalog.StockLevelLow, views[0].StockLevel)
}

func TestSyncHandler_Customers(t *testing.T) {
	samples := sampledata.Dataset{Customers: []partner.Customer{{ID: 1, Name: "Sample"}}}

	t.Run("sample fallback carries a soft error", func(t *testing.T) {
		s := newTestServer(t, samples)
		w := s.do(http.MethodGet, "/api/v1/customers", nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		require.NotNil(t, env.Meta)
		assert.Equal(t, "sample", env.Meta.Source)
		assert.Contains(t, env.Meta.SoftError, "connection refused")
	})

	t.Run("remote data", func(t *testing.T) {
		s := newTestServer(t, samples)
		s.source.customers = func() ([]partner.Customer, error) {
			return []partner.Customer{{ID: 2, Name: "Live"}, {ID: 3, Name: "Live 2"}}, nil
		}
		w := s.do(http.MethodGet, "/api/v1/customers", nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Equal(t, "remote", env.Meta.Source)
		assert.Empty(t, env.Meta.SoftError)
		assert.Equal(t, int64(2), env.Meta.Total)
	})

	t.Run("unauthorized is never masked", func(t *testing.T) {
		s := newTestServer(t, samples)
		s.source.customers = func() ([]partner.Customer, error) {
			return nil, &remote.StatusError{Method: http.MethodGet, Path: "/customers", StatusCode: http.StatusUnauthorized}
		}
		w := s.do(http.MethodGet, "/api/v1/customers", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
	})
}

func TestSyncHandler_Orders(t *testing.T) {
	s := newTestServer(t, sampledata.Dataset{})
	var got remote.OrderQuery
	s.source.orders = func(q remote.OrderQuery) (*remote.OrderPage, error) {
		got = q
		return &remote.OrderPage{TotalCount: 21}, nil
	}

	w := s.do(http.MethodGet, "/api/v1/orders?page=2&status=pending&date_from=2025-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, "pending", got.Status)
	require.NotNil(t, got.DateFrom)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got.DateFrom.UTC())

	env := decode(t, w)
	assert.Equal(t, 3, env.Meta.TotalPages)

	w = s.do(http.MethodGet, "/api/v1/orders?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/sync/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var states []datasync.ResourceState
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &states))
	assert.NotEmpty(t, states)
}

func TestAuthHandler(t *testing.T) {
	authn := new(mockAuthenticator)
	sessions := appidentity.NewSessionService(authn, persistence.NewMemorySessionStore(), nil)
	h := NewAuthHandler(NewBaseHandler(""), sessions)

	engine := gin.New()
	engine.POST("/auth/login", h.Login)
	engine.POST("/auth/logout", h.Logout)
	engine.GET("/auth/me", h.Me)
	s := &testServer{engine: engine}

	w := s.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, DefaultLoginPath, w.Header().Get("Location"))

	w = s.do(http.MethodPost, "/auth/login", gin.H{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	claims := jwt.MapClaims{"email": "jane@example.com", "name": "Jane", "exp": time.Now().Add(time.Hour).Unix()}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	authn.On("Login", mock.Anything, "jane@example.com", "secret").
		Return(&remote.Tokens{AccessToken: access}, nil)

	w = s.do(http.MethodPost, "/auth/login", gin.H{"email": "jane@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), access)

	w = s.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me SessionResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &me))
	assert.Equal(t, "Jane", me.Profile.Name)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/auth/me", nil).Code)
}
