package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/config"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/logger"
)

func fastRetry(n int) *RetryConfig {
	return &RetryConfig{MaxRetries: n, RetryDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []int
}

func (o *recordingObserver) ObserveRequest(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func TestClientCreation(t *testing.T) {
	c, err := NewClient(config.BackendConfig{BaseURL: "http://localhost:8080"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Nil(t, c.limiter)

	_, err = NewClient(config.BackendConfig{}, nil)
	assert.Error(t, err)
}

func TestClientCreation_DerivesRetryConfig(t *testing.T) {
	c, err := NewClient(config.BackendConfig{
		BaseURL:       "http://localhost:8080",
		MaxRetries:    5,
		RetryDelay:    10 * time.Millisecond,
		MaxRetryDelay: time.Second,
		RateLimitQPS:  3,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, c.retryConfig.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, c.retryConfig.RetryDelay)
	assert.Equal(t, time.Second, c.retryConfig.MaxDelay)
	assert.NotNil(t, c.retryConfig.ShouldRetry)
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}

func TestBasicRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/customers", r.URL.Path)
		assert.Equal(t, "first_name=Sam", r.URL.RawQuery)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "acme", r.Header.Get("X-Tenant"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, err := NewClient(config.BackendConfig{
		BaseURL:    server.URL,
		PathPrefix: "/api/",
		Token:      "test-token",
		Headers:    map[string]string{"X-Tenant": "acme"},
	}, fastRetry(0))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/customers", "first_name=Sam")
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "[]", string(resp.Body))
	assert.Equal(t, 1, resp.Attempts)
}

func TestRequestIDFromContext(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(0))
	require.NoError(t, err)

	ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-42")
	resp, err := c.Delete(ctx, "/customers/1")
	require.NoError(t, err)

	assert.Equal(t, "req-42", got)
	assert.Equal(t, "req-42", resp.RequestID)
}

func TestRequestLogsCarryContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	core, logs := observer.New(zap.DebugLevel)
	c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(1), WithLogger(zap.New(core)))
	require.NoError(t, err)

	t.Run("request id and action from the dispatching session", func(t *testing.T) {
		ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-7")
		ctx = logger.WithAction(ctx, "retrieve")

		_, err := c.Get(ctx, "/customers/1", "")
		require.NoError(t, err)

		retries := logs.TakeAll()
		require.Len(t, retries, 3, "two attempts and one retry notice")
		for _, entry := range retries {
			fields := entry.ContextMap()
			assert.Equal(t, "req-7", fields["request_id"], entry.Message)
			assert.Equal(t, "retrieve", fields["action"], entry.Message)
		}
	})

	t.Run("generated request id when none is in context", func(t *testing.T) {
		resp, err := c.Get(context.Background(), "/customers/1", "")
		require.NoError(t, err)

		for _, entry := range logs.TakeAll() {
			fields := entry.ContextMap()
			assert.Equal(t, resp.RequestID, fields["request_id"], entry.Message)
			assert.NotContains(t, fields, "action")
		}
	})
}

func TestPostRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Sam", body["first_name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7}`))
	}))
	defer server.Close()

	c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(0))
	require.NoError(t, err)

	resp, err := c.Post(context.Background(), "customers", map[string]string{"first_name": "Sam"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct{ ID int64 }
	require.NoError(t, resp.DecodeJSON(&out))
	assert.Equal(t, int64(7), out.ID)
}

func TestRetryLogic(t *testing.T) {
	t.Run("GET is retried on 5xx until success", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		obs := &recordingObserver{}
		c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(3), WithObserver(obs))
		require.NoError(t, err)

		resp, err := c.Get(context.Background(), "/customers", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 3, resp.Attempts)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, []int{503, 503, 200}, obs.statuses)
	})

	t.Run("PUT resends the same body on retry", func(t *testing.T) {
		var calls atomic.Int32
		var bodies []string
		var mu sync.Mutex
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(b))
			mu.Unlock()
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(2))
		require.NoError(t, err)

		_, err = c.Put(context.Background(), "/customers/1", map[string]string{"city": "NYC"})
		require.NoError(t, err)
		require.Len(t, bodies, 2)
		assert.Equal(t, bodies[0], bodies[1])
		assert.JSONEq(t, `{"city":"NYC"}`, bodies[1])
	})

	t.Run("POST is never retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		}))
		defer server.Close()

		c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(3))
		require.NoError(t, err)

		resp, err := c.Post(context.Background(), "/customers", map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "boom", resp.ErrorMessage())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("4xx is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		c, err := NewClient(config.BackendConfig{BaseURL: server.URL}, fastRetry(3))
		require.NoError(t, err)

		resp, err := c.Get(context.Background(), "/customers/9", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("transport error is returned after retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		obs := &recordingObserver{}
		c, err := NewClient(config.BackendConfig{BaseURL: url}, fastRetry(1), WithObserver(obs))
		require.NoError(t, err)

		resp, err := c.Get(context.Background(), "/customers", "")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 0, resp.StatusCode)
		assert.Equal(t, 2, resp.Attempts)
		assert.Equal(t, []int{0, 0}, obs.statuses)
	})
}

func TestContextCancelStopsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, err := NewClient(config.BackendConfig{BaseURL: server.URL},
		&RetryConfig{MaxRetries: 5, RetryDelay: time.Hour, MaxDelay: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	resp, err := c.Get(ctx, "/customers", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient(config.BackendConfig{
		BaseURL:        server.URL,
		RateLimitQPS:   20,
		RateLimitBurst: 1,
	}, fastRetry(0))
	require.NoError(t, err)

	start := time.Now()
	for range 3 {
		_, err := c.Get(context.Background(), "/customers", "")
		require.NoError(t, err)
	}
	// Two waits of 50ms each after the initial burst token.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		prefix string
		path   string
		query  string
		want   string
	}{
		{"plain", "http://h:8080", "", "/customers", "", "http://h:8080/customers"},
		{"missing slash", "http://h:8080", "", "customers/1", "", "http://h:8080/customers/1"},
		{"prefix", "http://h:8080", "api", "/customers", "", "http://h:8080/api/customers"},
		{"base path", "http://h:8080/svc/", "", "/customers", "", "http://h:8080/svc/customers"},
		{"query", "http://h:8080", "", "/customers", "email=a%40b.co", "http://h:8080/customers?email=a%40b.co"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(config.BackendConfig{BaseURL: tt.base, PathPrefix: tt.prefix}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.buildURL(tt.path, tt.query).String())
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryConfig: RetryConfig{RetryDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}}

	first := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, first, 75*time.Millisecond)
	assert.LessOrEqual(t, first, 125*time.Millisecond)

	capped := c.calculateBackoff(10)
	assert.LessOrEqual(t, capped, 375*time.Millisecond)
}
