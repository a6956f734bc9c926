// Package remote talks to the headless CMS backend that owns customers, products and orders.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource returns the bearer token to send, or "" for anonymous requests
type TokenSource func(ctx context.Context) string

// Observer is notified of every completed remote request
type Observer interface {
	ObserveRemote(method string, status int)
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap maps the status onto the domain error it stands for
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests:
		return shared.ErrRemoteUnavailable
	default:
		return nil
	}
}

// RetryConfig configures retry behavior for idempotent requests
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry func(resp *http.Response, err error) bool
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		RetryDelay: 200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		ShouldRetry: func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		},
	}
}

// ClientConfig configures a Client
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	Retry          RetryConfig
	RateLimitRPS   float64
	RateLimitBurst int
	UserAgent      string
}

// Request is one call to the remote API
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests carry no bearer token
	Anonymous bool
}

// Response is a fully read remote response
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode remote response: %w", err)
	}
	return nil
}

// Client is an HTTP client for the remote API with auth, retries and rate limiting
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	userAgent      string
	retry          RetryConfig
	limiter        *rate.Limiter
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	observer       Observer
	tracer         trace.Tracer
	logger         *zap.Logger
}

// ClientOption configures optional collaborators of a Client
type ClientOption func(*Client)

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the hook run on 401 responses to authenticated requests
func WithUnauthorizedHandler(fn func(ctx context.Context)) ClientOption {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithObserver sets the request observer
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// WithClientLogger sets the logger
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithTracerProvider sets where request spans are recorded.
// The global provider is used when unset.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

const tracerName = "github.com/erp/orderdesk/internal/infrastructure/remote"

// NewClient creates a remote client
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.ShouldRetry == nil {
		def := DefaultRetryConfig()
		def.MaxRetries = cfg.Retry.MaxRetries
		if cfg.Retry.RetryDelay > 0 {
			def.RetryDelay = cfg.Retry.RetryDelay
		}
		cfg.Retry = def
	}
	if cfg.Retry.Multiplier <= 0 {
		cfg.Retry.Multiplier = 2.0
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "orderdesk/1.0"
	}

	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   base,
		userAgent: cfg.UserAgent,
		retry:     cfg.Retry,
		limiter:   rate.NewLimiter(limit, burst),
		tokens:    func(context.Context) string { return "" },
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do executes req. GET requests are retried; others are sent once.
// Non-2xx responses come back together with a *StatusError.
func (c *Client) Do(ctx context.Context, req Request) (resp *Response, err error) {
	ctx, span := c.tracer.Start(ctx, "remote "+req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	defer func() {
		if resp != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	u, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	maxRetries := 0
	if req.Method == http.MethodGet {
		maxRetries = c.retry.MaxRetries
	}

	log := logger.L(ctx).With(zap.String("method", req.Method), zap.String("path", req.Path))
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var httpResp *http.Response
		resp, httpResp, lastErr = c.send(ctx, req, u, payload)
		if lastErr != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < maxRetries && c.retry.ShouldRetry(httpResp, lastErr) {
			log.Debug("retrying remote request", zap.Int("attempt", attempt+1), zap.Error(lastErr))
			continue
		}
		break
	}

	if lastErr != nil {
		c.observe(req.Method, 0)
		log.Warn("remote request failed", zap.Error(lastErr))
		return nil, fmt.Errorf("remote %s %s: %w: %w", req.Method, req.Path, shared.ErrRemoteUnavailable, lastErr)
	}

	c.observe(req.Method, resp.StatusCode)
	log.Debug("remote request", zap.Int("status", resp.StatusCode), zap.Duration("duration", resp.Duration))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && !req.Anonymous && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return resp, &StatusError{Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req Request, u *url.URL, payload []byte) (*Response, *http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.Anonymous {
		if tok := c.tokens(ctx); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if id := logger.RequestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}, httpResp, nil
}

func (c *Client) buildURL(path string, query url.Values) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := c.baseURL.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %s: %w", path, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.retry.RetryDelay) * math.Pow(c.retry.Multiplier, float64(attempt-1))
	if delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	jitter := delay * 0.25
	return time.Duration(delay + (rand.Float64()*2-1)*jitter)
}

func (c *Client) observe(method string, status int) {
	if c.observer != nil {
		c.observer.ObserveRemote(method, status)
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
