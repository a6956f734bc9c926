package orderdraft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) CreateOrder(ctx context.Context, req remote.CreateOrderRequest) (*remote.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*remote.CreateOrderResult), args.Error(1)
	}
	return nil, args.Error(1)
}

var fixedNow = time.Date(2025, 1, 26, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newDraft(creator OrderCreator) *Draft {
	return New(Config{OrgID: 63}, creator,
		WithClock(func() time.Time { return fixedNow }),
		WithOrderNumbers(func() int { return 42 }))
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:    1,
			Code:  "P-001",
			Name:  catalog.LocalizedName{Default: "Yoga Mat"},
			Price: dec("20"),
			Prices: []catalog.ProductPrice{
				{Status: catalog.StatusPublished, Price: decimal.NewNullDecimal(dec("25")), DiscountRate: decimal.NewNullDecimal(dec("10"))},
			},
			Inventory: []catalog.Inventory{
				{Status: "published", Qty: 5},
				{Status: "draft", Qty: 100},
			},
		},
		{ID: 2, Code: "P-002", Name: catalog.LocalizedName{Default: "Water Bottle"}, Price: dec("8")},
	}
}

func line(id int64, price string, qty int) trade.OrderLine {
	return trade.OrderLine{
		ProductID:     id,
		ProductCode:   "C",
		LocalizedName: catalog.LocalizedName{Default: "Line"},
		ProductPrice:  dec(price),
		Qty:           qty,
	}
}

func TestNew(t *testing.T) {
	d := newDraft(nil)
	v := d.View()
	assert.Equal(t, "SO-42", v.OrderNumber)
	assert.Equal(t, trade.OrderStatusDraft, v.Status)
	assert.Equal(t, trade.OrderTypeStandard, v.Type)
	assert.Equal(t, valueobject.USD, v.Header.Currency)
	assert.Equal(t, fixedNow, v.Header.OrderDate)
	assert.Empty(t, v.Lines)
	assert.Nil(t, v.Customer)
}

func TestDraft_Status(t *testing.T) {
	d := newDraft(nil)
	d.MarkPending()
	assert.Equal(t, trade.OrderStatusPending, d.Status())
	d.SaveDraft()
	assert.Equal(t, trade.OrderStatusDraft, d.Status())

	assert.ErrorIs(t, d.SetStatus("shipped"), shared.ErrInvalidStatus)
	assert.Equal(t, trade.OrderStatusDraft, d.Status())
}

func TestDraft_UpdateHeader(t *testing.T) {
	d := newDraft(nil)
	due := fixedNow.AddDate(0, 0, 30)
	terms := "Net 30"
	eur := "eur"

	h, err := d.UpdateHeader(HeaderPatch{DueDate: &due, PaymentTerms: &terms, Currency: &eur})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EUR, h.Currency)
	assert.Equal(t, "Net 30", h.PaymentTerms)
	require.NotNil(t, h.DueDate)
	assert.Equal(t, due, *h.DueDate)

	bad := "EURO"
	_, err = d.UpdateHeader(HeaderPatch{Currency: &bad, Notes: &terms})
	require.Error(t, err)
	assert.Empty(t, d.Header().Notes, "invalid patch must not apply partially")

	h, err = d.UpdateHeader(HeaderPatch{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, h.DueDate)

	negative := dec("-1")
	_, err = d.UpdateHeader(HeaderPatch{ShippingCost: &negative})
	assert.Error(t, err)
}

func TestDraft_AddProduct(t *testing.T) {
	d := newDraft(nil)
	d.SetCatalog(testProducts())

	added, stock, err := d.AddProduct(1, 6)
	require.NoError(t, err)
	assert.True(t, added.ProductPrice.Equal(dec("25")), "published price wins")
	assert.True(t, added.Discount.Equal(dec("10")))
	require.NotNil(t, stock)
	assert.True(t, stock.Insufficient)
	assert.Equal(t, 5, stock.UsableStock)

	_, _, err = d.AddProduct(1, 1)
	assert.ErrorIs(t, err, shared.ErrDuplicateProduct)

	_, _, err = d.AddProduct(99, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, stock, err = d.AddLine(line(500, "3", 1))
	require.NoError(t, err)
	assert.Nil(t, stock, "products outside the catalog are not stock checked")
	assert.Len(t, d.Lines(), 2)
}

func TestDraft_LineOperations(t *testing.T) {
	d := newDraft(nil)
	_, err := d.AddLines([]trade.OrderLine{line(1, "10", 1), line(2, "20", 2), line(3, "30", 3)})
	require.NoError(t, err)

	qty := 4
	updated, _, err := d.UpdateLine(2, trade.LinePatch{Qty: &qty})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Qty)

	d.ReorderLines(3, 1)
	ids := func() []int64 {
		var out []int64
		for _, l := range d.OriginalLines() {
			out = append(out, l.ProductID)
		}
		return out
	}
	assert.Equal(t, []int64{3, 1, 2}, ids())

	d.SetSelection([]int64{1, 2})
	n, err := d.ApplyBulkDiscount(dec("50"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = d.ApplyBulkDiscount(dec("101"))
	assert.ErrorIs(t, err, shared.ErrInvalidDiscount)

	toggled, err := d.ToggleRecurring(3)
	require.NoError(t, err)
	assert.True(t, toggled.IsRecurring())

	require.NoError(t, d.DeleteLine(1))
	assert.ErrorIs(t, d.DeleteLine(1), shared.ErrLineNotFound)
	assert.Equal(t, []int64{2}, d.Selected())

	d.ClearLines()
	assert.Empty(t, d.OriginalLines())
	assert.True(t, d.Totals().Total.IsZero())
}

func TestDraft_Customers(t *testing.T) {
	d := newDraft(nil)

	_, err := d.ConvertGuest(partner.Details{Name: "Ann", Contact: partner.ContactInfo{Email: "ann@example.com"}})
	assert.ErrorIs(t, err, shared.ErrNoCustomer)

	guest := d.UseGuest()
	assert.True(t, guest.IsGuest)
	assert.Less(t, guest.ID, int64(0))

	_, err = d.ConvertGuest(partner.Details{Name: "Ann"})
	assert.ErrorIs(t, err, shared.ErrInvalidCustomer)
	assert.Same(t, guest, d.Customer())

	converted, err := d.ConvertGuest(partner.Details{Name: "Ann", Contact: partner.ContactInfo{Email: "ann@example.com"}})
	require.NoError(t, err)
	assert.False(t, converted.IsGuest)
	assert.NotEqual(t, guest.ID, converted.ID)
	assert.Same(t, converted, d.Customer())

	created, err := d.CreateCustomer(partner.Details{Name: "Bob", Contact: partner.ContactInfo{Email: "bob@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, partner.GroupNew, created.Group)
	assert.Same(t, created, d.Customer())
	assert.Len(t, d.LocalCustomers(), 2)

	d.SelectCustomer(nil)
	assert.Nil(t, d.Customer())
}

func TestDraft_Warnings(t *testing.T) {
	d := newDraft(nil)
	d.SetCatalog(testProducts())
	_, _, err := d.AddProduct(1, 6)
	require.NoError(t, err)

	w := d.Warnings()
	assert.Nil(t, w.Credit, "no customer, no credit check")
	require.Contains(t, w.Stock, int64(1))
	assert.True(t, w.Stock[1].Insufficient)

	d.SelectCustomer(&partner.Customer{ID: 7, CreditLimit: decimal.NewNullDecimal(dec("100"))})
	w = d.Warnings()
	require.NotNil(t, w.Credit)
	assert.True(t, w.Credit.Exceeded)
	assert.True(t, w.HasAny())
}

func TestDraft_CopyFrom(t *testing.T) {
	d := newDraft(nil)
	method := "express"
	_, err := d.UpdateHeader(HeaderPatch{ShippingMethod: &method})
	require.NoError(t, err)
	_, _, err = d.AddLine(line(9, "1", 1))
	require.NoError(t, err)

	delivery := time.Time{}
	due := fixedNow.AddDate(0, 1, 0)
	source := trade.SalesOrder{
		OrderNumber:   "SO-7",
		Status:        trade.OrderStatusPaid,
		Type:          trade.OrderTypeTemplate,
		DeliveryDate:  &delivery,
		DueDate:       &due,
		PaymentTerms:  "Net 15",
		Notes:         "note",
		InternalNotes: "internal",
		Lines:         []trade.OrderLine{line(1, "10", 2), line(2, "5", 1), line(1, "99", 9)},
	}

	skipped, err := d.CopyFrom(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, skipped)

	v := d.View()
	assert.Len(t, v.OriginalLines, 2)
	assert.Equal(t, v.Lines, v.OriginalLines)
	assert.Equal(t, fixedNow, v.Header.OrderDate, "missing order date becomes now")
	assert.Nil(t, v.Header.DeliveryDate, "zero delivery date is dropped")
	require.NotNil(t, v.Header.DueDate)
	assert.Equal(t, due, *v.Header.DueDate)
	assert.Equal(t, valueobject.USD, v.Header.Currency)
	assert.Empty(t, v.Header.ShippingMethod)
	assert.Equal(t, "Net 15", v.Header.PaymentTerms)
	assert.Equal(t, "internal", v.Header.InternalNotes)
	assert.Equal(t, trade.OrderStatusPaid, v.Status)
	assert.Equal(t, trade.OrderTypeStandard, v.Type)

	t.Run("invalid lines leave the draft untouched", func(t *testing.T) {
		bad := trade.SalesOrder{Lines: []trade.OrderLine{line(3, "-1", 1)}}
		_, err := d.CopyFrom(context.Background(), bad)
		require.Error(t, err)
		assert.Len(t, d.OriginalLines(), 2)
	})

	t.Run("an order without a line list keeps the lines", func(t *testing.T) {
		skipped, err := d.CopyFrom(context.Background(), trade.SalesOrder{PaymentTerms: "Net 30"})
		require.NoError(t, err)
		assert.Empty(t, skipped)
		assert.Len(t, d.OriginalLines(), 2)
		assert.Equal(t, "Net 30", d.Header().PaymentTerms)
	})

	t.Run("an empty line list clears the lines", func(t *testing.T) {
		_, err := d.CopyFrom(context.Background(), trade.SalesOrder{Lines: []trade.OrderLine{}})
		require.NoError(t, err)
		assert.Empty(t, d.OriginalLines())
	})
}

func TestDraft_TemplateRoundTrip(t *testing.T) {
	d := newDraft(nil)
	_, err := d.AddLines([]trade.OrderLine{line(1, "10", 2), line(2, "5.5", 3)})
	require.NoError(t, err)
	d.SetSelection([]int64{2})
	_, err = d.ApplyBulkDiscount(dec("15"))
	require.NoError(t, err)
	before := d.OriginalLines()

	_, err = d.SaveTemplate("  ", "", nil)
	require.Error(t, err)

	tpl, err := d.SaveTemplate("Weekly", "restock", []string{"gym"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, tpl.CreatedAt)
	require.Len(t, d.Templates(), 1)

	d.ClearLines()
	_, err = d.LoadTemplate(context.Background(), tpl.ID)
	require.NoError(t, err)

	after := d.OriginalLines()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ProductID, after[i].ProductID)
		assert.Equal(t, before[i].Qty, after[i].Qty)
		assert.True(t, before[i].ProductPrice.Equal(after[i].ProductPrice))
		assert.True(t, before[i].Discount.Equal(after[i].Discount))
	}

	require.NoError(t, d.DeleteTemplate(tpl.ID))
	assert.ErrorIs(t, d.DeleteTemplate(tpl.ID), shared.ErrNotFound)
	_, err = d.LoadTemplate(context.Background(), tpl.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraft_PreviewTemplate(t *testing.T) {
	d := newDraft(nil)
	d.SelectCustomer(&partner.Customer{ID: 3})

	tpl := trade.Template{
		SalesOrder: trade.SalesOrder{
			OrderNumber:  "SO-12",
			PaymentTerms: "Net 60",
			Currency:     valueobject.GBP,
			Lines:        []trade.OrderLine{line(1, "10", 1)},
		},
		Name: "Template 12",
	}
	preview, err := d.PreviewTemplate(tpl)
	require.NoError(t, err)
	assert.Equal(t, "PREVIEW-SO-12", preview.OrderNumber)
	assert.True(t, preview.Total.Equal(dec("10")))

	assert.Nil(t, d.Customer())
	assert.Equal(t, valueobject.GBP, d.Header().Currency)
	assert.Equal(t, "Net 60", d.Header().PaymentTerms)
	assert.Len(t, d.OriginalLines(), 1)
}

func TestDraft_Preview(t *testing.T) {
	d := newDraft(nil)
	_, _, err := d.AddLine(line(1, "100", 1))
	require.NoError(t, err)

	order, err := d.Preview("")
	require.NoError(t, err)
	assert.Equal(t, valueobject.USD, order.Currency)
	assert.True(t, order.Total.Equal(dec("100")))

	eur, err := d.Preview("EUR")
	require.NoError(t, err)
	assert.Equal(t, valueobject.EUR, eur.Currency)
	assert.True(t, eur.Total.Equal(dec("85")))

	_, err = d.Preview("???")
	assert.Error(t, err)
}

func TestDraft_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a customer", func(t *testing.T) {
		creator := new(mockCreator)
		d := newDraft(creator)
		_, err := d.CreateOrder(ctx)
		assert.ErrorIs(t, err, shared.ErrNoCustomer)
		creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("success marks pending", func(t *testing.T) {
		creator := new(mockCreator)
		d := newDraft(creator)
		d.SelectCustomer(&partner.Customer{ID: 11})
		_, err := d.AddLines([]trade.OrderLine{line(1, "10", 2), line(2, "5", 1)})
		require.NoError(t, err)

		want := remote.CreateOrderRequest{
			Orq:        63,
			Company:    11,
			CustomerID: 11,
			Product:    []remote.OrderItem{{ID: 1, Qty: 2}, {ID: 2, Qty: 1}},
		}
		creator.On("CreateOrder", mock.Anything, want).
			Return(&remote.CreateOrderResult{Status: 200, Message: "ok"}, nil).Once()

		result, err := d.CreateOrder(ctx)
		require.NoError(t, err)
		assert.True(t, result.Succeeded())
		assert.Equal(t, trade.OrderStatusPending, d.Status())
		creator.AssertExpectations(t)
	})

	t.Run("non-200 body keeps the draft", func(t *testing.T) {
		creator := new(mockCreator)
		d := newDraft(creator)
		d.SelectCustomer(&partner.Customer{ID: 11})
		_, _, err := d.AddLine(line(1, "10", 2))
		require.NoError(t, err)
		before := d.OriginalLines()

		creator.On("CreateOrder", mock.Anything, mock.Anything).
			Return(&remote.CreateOrderResult{Status: 400, Message: "out of stock"}, nil).Once()

		_, err = d.CreateOrder(ctx)
		assert.ErrorIs(t, err, shared.ErrOrderCreation)
		assert.Equal(t, trade.OrderStatusDraft, d.Status())
		assert.Equal(t, before, d.OriginalLines())
	})

	t.Run("transport failure keeps the draft", func(t *testing.T) {
		creator := new(mockCreator)
		d := newDraft(creator)
		d.SelectCustomer(&partner.Customer{ID: 11})
		creator.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused")).Once()

		_, err := d.CreateOrder(ctx)
		assert.ErrorIs(t, err, shared.ErrOrderCreation)
		assert.Equal(t, trade.OrderStatusDraft, d.Status())
	})

	t.Run("reset during the call keeps the new order in draft", func(t *testing.T) {
		creator := new(mockCreator)
		next := 0
		d := New(Config{OrgID: 63}, creator, WithOrderNumbers(func() int { next++; return next }))
		d.SelectCustomer(&partner.Customer{ID: 11})
		submitted := d.OrderNumber()

		creator.On("CreateOrder", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { d.Reset() }).
			Return(&remote.CreateOrderResult{Status: 200, Message: "ok"}, nil).Once()

		_, err := d.CreateOrder(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, submitted, d.OrderNumber())
		assert.Equal(t, trade.OrderStatusDraft, d.Status())
	})

	t.Run("unauthorized stays recognizable", func(t *testing.T) {
		creator := new(mockCreator)
		d := newDraft(creator)
		d.SelectCustomer(&partner.Customer{ID: 11})
		creator.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, &remote.StatusError{Method: "POST", Path: "/orders/create", StatusCode: 401}).Once()

		_, err := d.CreateOrder(ctx)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.ErrorIs(t, err, shared.ErrOrderCreation)
	})
}

func TestDraft_CopyToAndUpload(t *testing.T) {
	d := newDraft(nil)
	ctx := context.Background()

	assert.Error(t, d.CopyTo(ctx, " "))
	require.NoError(t, d.CopyTo(ctx, "invoice"))
	assert.Equal(t, "invoice", d.View().CopyTarget)

	receipt, err := d.BulkUpload(ctx, "orders.csv", 128)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, `File "orders.csv" has been uploaded successfully.`, receipt.Message)
	assert.Len(t, d.Uploads(), 1)

	_, err = d.BulkUpload(ctx, "", 1)
	assert.Error(t, err)
}

func TestDraft_Reset(t *testing.T) {
	next := 0
	d := New(Config{}, nil, WithOrderNumbers(func() int { next++; return next }))
	_, err := d.CreateCustomer(partner.Details{Name: "Bob", Contact: partner.ContactInfo{Email: "bob@example.com"}})
	require.NoError(t, err)
	_, _, err = d.AddLine(line(1, "1", 1))
	require.NoError(t, err)

	d.Reset()
	assert.Equal(t, "SO-2", d.OrderNumber())
	assert.Nil(t, d.Customer())
	assert.Empty(t, d.OriginalLines())
	assert.Len(t, d.LocalCustomers(), 1)
}
