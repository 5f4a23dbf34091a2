// Package client provides the JSON HTTP client the console uses to reach the
// customer backend. It includes request ids, bearer tokens, client-side rate
// limiting and retry of idempotent requests.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/config"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/logger"
)

// RequestIDHeader carries the per-action request id.
const RequestIDHeader = "X-Request-ID"

// RequestObserver receives one observation per HTTP attempt. status is 0
// when no response was received.
type RequestObserver interface {
	ObserveRequest(method string, status int, duration time.Duration)
}

// Client is the HTTP client for the customer backend.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	pathPrefix  string
	headers     map[string]string
	retryConfig RetryConfig
	limiter     *rate.Limiter
	observer    RequestObserver
	logger      *zap.Logger
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry func(resp *http.Response, err error) bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		ShouldRetry: retryable,
	}
}

// retryable retries transport errors, 5xx and 429 (Too Many Requests).
func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Option customises a Client.
type Option func(*Client)

// WithObserver reports every attempt to o.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend described by cfg. A nil
// retryCfg derives retry settings from cfg.
func NewClient(cfg config.BackendConfig, retryCfg *RetryConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if retryCfg == nil {
		derived := DefaultRetryConfig()
		derived.MaxRetries = cfg.MaxRetries
		if cfg.RetryDelay > 0 {
			derived.RetryDelay = cfg.RetryDelay
		}
		if cfg.MaxRetryDelay > 0 {
			derived.MaxDelay = cfg.MaxRetryDelay
		}
		retryCfg = &derived
	}
	if retryCfg.ShouldRetry == nil {
		retryCfg.ShouldRetry = retryable
	}
	if retryCfg.Multiplier <= 0 {
		retryCfg.Multiplier = 2.0
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in, rejected in production
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		httpClient:  &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:     baseURL,
		pathPrefix:  strings.Trim(cfg.PathPrefix, "/"),
		headers:     make(map[string]string),
		retryConfig: *retryCfg,
		logger:      zap.NewNop(),
	}

	c.headers["Content-Type"] = "application/json"
	c.headers["Accept"] = "application/json"
	c.headers["User-Agent"] = "customer-console/1.0"
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}
	if cfg.Token != "" {
		c.headers["Authorization"] = "Bearer " + cfg.Token
	}

	if cfg.RateLimitQPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request represents an HTTP request to be executed.
type Request struct {
	Method string
	Path   string
	// RawQuery is appended verbatim, without the leading '?'.
	RawQuery string
	Headers  map[string]string
	Body     any
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Attempts   int
	RequestID  string
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorMessage returns the backend-provided failure text, or "".
func (r *Response) ErrorMessage() string {
	return ParseErrorMessage(r.Body)
}

// Do executes an HTTP request. GET, PUT and DELETE are retried on transport
// errors and retryable statuses; POST is sent exactly once. A non-2xx
// response is not an error: the caller inspects StatusCode.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u := c.buildURL(req.Path, req.RawQuery)

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	log := logger.Enrich(ctx, c.logger)
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		log = log.With(zap.String("request_id", requestID))
	}
	if action := logger.GetAction(ctx); action != "" {
		log = log.With(zap.String("action", action))
	}

	maxRetries := c.retryConfig.MaxRetries
	if !isIdempotent(req.Method) {
		maxRetries = 0
	}

	var lastResp *Response
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			log.Warn("Retrying backend request",
				zap.String("method", req.Method),
				zap.String("path", u.Path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastResp, ctx.Err()
			case <-timer.C:
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return lastResp, fmt.Errorf("waiting for rate limiter: %w", err)
			}
		}

		// A fresh reader per attempt; a consumed reader would send an empty body.
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP request: %w", err)
		}
		c.setHeaders(httpReq, req.Headers)
		httpReq.Header.Set(RequestIDHeader, requestID)

		start := time.Now()
		httpResp, err := c.httpClient.Do(httpReq)
		duration := time.Since(start)

		resp := &Response{Duration: duration, Attempts: attempt + 1, RequestID: requestID}
		if err == nil {
			resp.StatusCode = httpResp.StatusCode
			resp.Headers = httpResp.Header
			resp.Body, err = io.ReadAll(httpResp.Body)
			_ = httpResp.Body.Close()
			if err != nil {
				err = fmt.Errorf("reading response body: %w", err)
			}
		}

		if c.observer != nil {
			c.observer.ObserveRequest(req.Method, resp.StatusCode, duration)
		}
		log.Debug("Backend request",
			zap.String("method", req.Method),
			zap.String("url", u.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(err))

		lastResp, lastErr = resp, err

		if attempt < maxRetries && ctx.Err() == nil && c.retryConfig.ShouldRetry(httpResp, err) {
			continue
		}
		break
	}

	if lastErr != nil {
		return lastResp, lastErr
	}
	return lastResp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path, rawQuery string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, RawQuery: rawQuery})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request. body may be nil.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// buildURL joins the base URL, path prefix and path.
func (c *Client) buildURL(path, rawQuery string) *url.URL {
	path = "/" + strings.TrimPrefix(path, "/")
	if c.pathPrefix != "" {
		path = "/" + c.pathPrefix + path
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = rawQuery
	return &u
}

// setHeaders sets default headers, then per-request headers.
func (c *Client) setHeaders(req *http.Request, customHeaders map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range customHeaders {
		req.Header.Set(k, v)
	}
}

// calculateBackoff calculates the backoff delay for the given attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryConfig.RetryDelay) * math.Pow(c.retryConfig.Multiplier, float64(attempt-1))
	if ceiling := float64(c.retryConfig.MaxDelay); ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	// Add jitter (±25%)
	jitter := delay * 0.25
	delay += (rand.Float64()*2 - 1) * jitter //nolint:gosec // jitter only
	return time.Duration(delay)
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}
