// Package datasync fetches remote resources through a time-boxed cache,
// coalesces concurrent identical fetches and substitutes sample data where allowed.
package datasync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/orderdesk/internal/domain/catalog"
	"github.com/erp/orderdesk/internal/domain/partner"
	"github.com/erp/orderdesk/internal/domain/printing"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/infrastructure/cache"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"github.com/erp/orderdesk/internal/infrastructure/metrics"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"github.com/erp/orderdesk/internal/infrastructure/sampledata"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resource names, also used as cache keys
const (
	ResourceProducts         = "products"
	ResourceCustomers        = "customers"
	ResourceOrders           = "orders"
	ResourceTemplates        = "templates"
	ResourceDocumentTemplate = "document_template"
)

// DefaultMockTemplateID selects the built-in document template
const DefaultMockTemplateID = "jimmy"

// RemoteSource is the slice of the remote API the sync layer reads
type RemoteSource interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Customers(ctx context.Context) ([]partner.Customer, error)
	Orders(ctx context.Context, q remote.OrderQuery) (*remote.OrderPage, error)
	Templates(ctx context.Context, page, limit int) (*remote.TemplatePage, error)
	DocumentTemplate(ctx context.Context, id string) (*printing.DocumentTemplate, error)
}

// Result is the outcome of one fetch.
// SoftError is set when Data is substituted sample data.
type Result[T any] struct {
	Data       T
	TotalCount int
	Source     Source
	SoftError  error
}

type page[T any] struct {
	items []T
	total int
}

// Service is the data synchronization layer
type Service struct {
	remote         RemoteSource
	cache          cache.ResourceCache
	samples        sampledata.Dataset
	mockTemplateID string
	metrics        *metrics.SyncMetrics
	logger         *zap.Logger
	states         *StateTracker
	group          singleflight.Group
	now            func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithSamples sets the fallback dataset for customers and orders
func WithSamples(ds sampledata.Dataset) Option {
	return func(s *Service) { s.samples = ds }
}

// WithMockTemplateID sets the document template id answered by the built-in template
func WithMockTemplateID(id string) Option {
	return func(s *Service) { s.mockTemplateID = id }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a sync service. A nil cache disables caching.
func NewService(src RemoteSource, c cache.ResourceCache, opts ...Option) *Service {
	if c == nil {
		c = cache.NewInMemoryResourceCache(0)
	}
	s := &Service{
		remote:         src,
		cache:          c,
		mockTemplateID: DefaultMockTemplateID,
		logger:         zap.NewNop(),
		states:         NewStateTracker(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// States exposes the per-resource state tracker
func (s *Service) States() *StateTracker {
	return s.states
}

// Products returns the catalog. Failures are hard errors.
func (s *Service) Products(ctx context.Context) (*Result[[]catalog.Product], error) {
	return fetch(ctx, s, ResourceProducts, ResourceProducts, true,
		func(ctx context.Context) (page[catalog.Product], error) {
			items, err := s.remote.Products(ctx)
			return page[catalog.Product]{items: items, total: len(items)}, err
		}, nil)
}

// Customers returns the customer list, falling back to sample customers with a soft error
func (s *Service) Customers(ctx context.Context) (*Result[[]partner.Customer], error) {
	return fetch(ctx, s, ResourceCustomers, ResourceCustomers, true,
		func(ctx context.Context) (page[partner.Customer], error) {
			items, err := s.remote.Customers(ctx)
			return page[partner.Customer]{items: items, total: len(items)}, err
		},
		func() (page[partner.Customer], bool) {
			if s.samples.Customers == nil {
				return page[partner.Customer]{}, false
			}
			items := append([]partner.Customer(nil), s.samples.Customers...)
			return page[partner.Customer]{items: items, total: len(items)}, true
		})
}

// Orders returns one page of order history, falling back to paged sample orders with a soft error
func (s *Service) Orders(ctx context.Context, q remote.OrderQuery) (*Result[[]trade.SalesOrder], error) {
	q = normalizeQuery(q, 10)
	return fetch(ctx, s, ResourceOrders, orderKey(q), false,
		func(ctx context.Context) (page[trade.SalesOrder], error) {
			p, err := s.remote.Orders(ctx, q)
			if err != nil {
				return page[trade.SalesOrder]{}, err
			}
			return page[trade.SalesOrder]{items: p.Orders, total: p.TotalCount}, nil
		},
		func() (page[trade.SalesOrder], bool) {
			if s.samples.Orders == nil {
				return page[trade.SalesOrder]{}, false
			}
			items, total := pageOrders(s.samples.Orders, q)
			return page[trade.SalesOrder]{items: items, total: total}, true
		})
}

// Templates returns one page of remote templates. Failures are hard errors.
func (s *Service) Templates(ctx context.Context, pageNum, limit int) (*Result[[]trade.Template], error) {
	q := normalizeQuery(remote.OrderQuery{Page: pageNum, Limit: limit}, 5)
	key := fmt.Sprintf("%s:%d:%d", ResourceTemplates, q.Page, q.Limit)
	return fetch(ctx, s, ResourceTemplates, key, false,
		func(ctx context.Context) (page[trade.Template], error) {
			p, err := s.remote.Templates(ctx, q.Page, q.Limit)
			if err != nil {
				return page[trade.Template]{}, err
			}
			return page[trade.Template]{items: p.Templates, total: p.TotalCount}, nil
		}, nil)
}

// DocumentTemplate returns the document template with the given id.
// An empty id or the mock id yields the built-in template without a network call.
func (s *Service) DocumentTemplate(ctx context.Context, id string) (*Result[*printing.DocumentTemplate], error) {
	id = strings.TrimSpace(id)
	if id == "" || id == s.mockTemplateID {
		s.states.begin(ResourceDocumentTemplate)
		s.states.finish(ctx, ResourceDocumentTemplate, SourceMock, nil, nil)
		s.metrics.ObserveFetch(ResourceDocumentTemplate, string(SourceMock), 0)
		return &Result[*printing.DocumentTemplate]{Data: printing.MockTemplate(), TotalCount: 1, Source: SourceMock}, nil
	}

	start := s.now()
	s.states.begin(ResourceDocumentTemplate)
	v, err := s.coalesce(ctx, ResourceDocumentTemplate+":"+id, func(ctx context.Context) (any, error) {
		return s.remote.DocumentTemplate(ctx, id)
	})
	if err != nil {
		s.hardFailure(ctx, ResourceDocumentTemplate, start, err)
		return nil, err
	}
	s.states.finish(ctx, ResourceDocumentTemplate, SourceRemote, nil, nil)
	s.metrics.ObserveFetch(ResourceDocumentTemplate, string(SourceRemote), s.now().Sub(start))
	return &Result[*printing.DocumentTemplate]{Data: v.(*printing.DocumentTemplate), TotalCount: 1, Source: SourceRemote}, nil
}

// Invalidate drops the cached copies of resources so the next fetch goes to the network
func (s *Service) Invalidate(ctx context.Context, resources ...string) error {
	if len(resources) == 0 {
		resources = []string{ResourceCustomers, ResourceProducts}
	}
	return s.cache.Delete(ctx, resources...)
}

// fetch runs the cache, network and fallback steps for one resource.
// Only cacheable resources are read from and written to the cache.
func fetch[T any](
	ctx context.Context,
	s *Service,
	resource, key string,
	cacheable bool,
	load func(context.Context) (page[T], error),
	fallback func() (page[T], bool),
) (*Result[[]T], error) {
	log := logger.Or(ctx, s.logger).With(zap.String("resource", resource))
	start := s.now()
	s.states.begin(resource)

	if cacheable {
		if items, ok := readCache[T](ctx, s, key, log); ok {
			s.states.finish(ctx, resource, SourceCache, nil, nil)
			s.metrics.ObserveFetch(resource, string(SourceCache), s.now().Sub(start))
			return &Result[[]T]{Data: items, TotalCount: len(items), Source: SourceCache}, nil
		}
	}

	v, err := s.coalesce(ctx, key, func(ctx context.Context) (any, error) {
		p, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			writeCache(ctx, s, key, p.items, log)
		}
		return p, nil
	})
	if err == nil {
		p := v.(page[T])
		s.states.finish(ctx, resource, SourceRemote, nil, nil)
		s.metrics.ObserveFetch(resource, string(SourceRemote), s.now().Sub(start))
		return &Result[[]T]{Data: p.items, TotalCount: p.total, Source: SourceRemote}, nil
	}

	// Cancellation and expired sessions are never masked by samples.
	if fallback != nil && ctx.Err() == nil && !errors.Is(err, shared.ErrUnauthorized) {
		if p, ok := fallback(); ok {
			soft := fmt.Errorf("failed to fetch %s, showing sample data: %w", resource, err)
			log.Warn("using sample data", zap.Error(err))
			s.states.finish(ctx, resource, SourceSample, soft, nil)
			s.metrics.ObserveFetch(resource, string(SourceSample), s.now().Sub(start))
			return &Result[[]T]{Data: p.items, TotalCount: p.total, Source: SourceSample, SoftError: soft}, nil
		}
	}
	s.hardFailure(ctx, resource, start, err)
	return nil, err
}

func (s *Service) hardFailure(ctx context.Context, resource string, start time.Time, err error) {
	if ctx.Err() == nil {
		logger.Or(ctx, s.logger).Error("fetch failed", zap.String("resource", resource), zap.Error(err))
	}
	s.states.finish(ctx, resource, sourceError, nil, err)
	s.metrics.ObserveFetch(resource, string(sourceError), s.now().Sub(start))
}

// coalesce shares one in-flight call per key. The shared call outlives any
// single caller; a caller whose ctx ends stops waiting and gets ctx.Err().
func (s *Service) coalesce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func readCache[T any](ctx context.Context, s *Service, key string, log *zap.Logger) ([]T, bool) {
	entry, found, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		return nil, false
	}
	if !found {
		log.Debug("cache miss")
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(entry.Data, &items); err != nil {
		log.Warn("discarding unreadable cache entry", zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	log.Debug("cache hit", zap.Time("cached_at", entry.Timestamp))
	return items, true
}

func writeCache[T any](ctx context.Context, s *Service, key string, items []T, log *zap.Logger) {
	data, err := json.Marshal(items)
	if err != nil {
		log.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
}

func normalizeQuery(q remote.OrderQuery, defaultLimit int) remote.OrderQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	return q
}

func orderKey(q remote.OrderQuery) string {
	from := ""
	if q.DateFrom != nil {
		from = q.DateFrom.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s:%d:%d:%s:%s:%s", ResourceOrders, q.Page, q.Limit, q.Status, q.Type, from)
}

// pageOrders applies the order filters and pagination to the sample orders
func pageOrders(all []trade.SalesOrder, q remote.OrderQuery) ([]trade.SalesOrder, int) {
	var filtered []trade.SalesOrder
	for _, o := range all {
		if q.Status != "" && q.Status != "all" && string(o.Status) != q.Status {
			continue
		}
		if q.Type != "" && q.Type != "all" && o.Type != q.Type {
			continue
		}
		if q.DateFrom != nil && o.OrderDate.Before(q.DateFrom.Truncate(24*time.Hour)) {
			continue
		}
		filtered = append(filtered, o)
	}
	total := len(filtered)
	from := (q.Page - 1) * q.Limit
	if from >= total {
		return []trade.SalesOrder{}, total
	}
	to := min(from+q.Limit, total)
	return append([]trade.SalesOrder(nil), filtered[from:to]...), total
}
