package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infra-nli/internal/config"
	"github.com/infra-nli/internal/controller"
	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/logging"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	ctrl := controller.NewWithConfig(cfg, logging.Nop())
	return NewServerWithController(8080, cfg, ctrl, logging.Nop()).Handler()
}

func postParse(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/nli/parse", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, "enabled", resp.Checks["cache"])
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestParseEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	rr := postParse(t, h, `{"command":"Create a Kubernetes cluster with 3 nodes","context":{"environment":"dev"}}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	for _, key := range []string{"understood", "intent", "entities", "generatedCode", "estimatedCost", "recommendations", "alternatives"} {
		assert.Contains(t, raw, key)
	}

	var resp domain.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Understood)
	assert.Equal(t, domain.IntentCreateCluster, resp.Intent)
	assert.Contains(t, resp.GeneratedCode[domain.FormatTerraform], "iac-dev-cluster")
}

func TestParseEndpointUnknownCommand(t *testing.T) {
	h := newTestServer(t, nil)

	rr := postParse(t, h, `{"command":"what is the weather"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp domain.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Understood)
	assert.Equal(t, domain.IntentUnknown, resp.Intent)
}

func TestParseEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"command":`, http.StatusBadRequest},
		{"wrong type", `{"command":42}`, http.StatusBadRequest},
		{"empty command", `{"command":"   "}`, http.StatusBadRequest},
		{"missing command", `{}`, http.StatusBadRequest},
		{"too large", fmt.Sprintf(`{"command":%q}`, strings.Repeat("a", 70<<10)), http.StatusRequestEntityTooLarge},
	}

	h := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postParse(t, h, tt.body, map[string]string{RequestIDHeader: "req-123"})
			assert.Equal(t, tt.status, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, "req-123", resp.RequestID)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/nli/parse", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestExamplesEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/nli/examples", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Examples []struct {
			Category string   `json:"category"`
			Commands []string `json:"commands"`
		} `json:"examples"`
		Providers []string `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Examples)
	assert.Contains(t, body.Providers, "aws")
}

func TestAPIKey(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.APIKey = "s3cret"
	})
	body := `{"command":"Create a Kubernetes cluster"}`

	assert.Equal(t, http.StatusUnauthorized, postParse(t, h, body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, postParse(t, h, body, map[string]string{"X-API-Key": "wrong"}).Code)
	assert.Equal(t, http.StatusOK, postParse(t, h, body, map[string]string{"X-API-Key": "s3cret"}).Code)
	assert.Equal(t, http.StatusOK, postParse(t, h, body, map[string]string{"Authorization": "Bearer s3cret"}).Code)

	// health stays public
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitedEndpoint(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.RateLimit.RequestsPerMinute = 60
		cfg.Server.RateLimit.Burst = 2
	})
	body := `{"command":"Create a Kubernetes cluster"}`

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, postParse(t, h, body, nil).Code)
	}
	rr := postParse(t, h, body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	// other clients keep their own bucket
	assert.Equal(t, http.StatusOK, postParse(t, h, body, map[string]string{"X-Forwarded-For": "10.1.1.1"}).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 5)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	// First 5 requests should be allowed
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("192.168.1.1"), "request %d should be allowed", i+1)
	}

	// 6th request should be denied
	assert.False(t, rl.Allow("192.168.1.1"), "6th request should be denied")

	// Different IP should be allowed
	assert.True(t, rl.Allow("192.168.1.2"))

	// one token refills every 12 seconds
	now = now.Add(13 * time.Second)
	assert.True(t, rl.Allow("192.168.1.1"))
	assert.False(t, rl.Allow("192.168.1.1"))
	assert.Equal(t, 12, rl.RetryAfter())
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	assert.Len(t, rl.visitors, 2)

	now = now.Add(6 * time.Minute)
	rl.Allow("10.0.0.3")
	assert.Len(t, rl.visitors, 1)
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 10)
	assert.Nil(t, rl)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("1.2.3.4"))
	}
	assert.Equal(t, 0, rl.RetryAfter())
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "127.0.0.1:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "127.0.0.1:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"no port", nil, "192.0.2.9", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestCheckAPIKey(t *testing.T) {
	h := http.Header{}
	assert.True(t, CheckAPIKey("", h))
	assert.False(t, CheckAPIKey("k", h))
	h.Set("Authorization", "Basic k")
	assert.False(t, CheckAPIKey("k", h))
	h.Set("Authorization", "Bearer k")
	assert.True(t, CheckAPIKey("k", h))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("command", "required"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestDecodeParseRequest(t *testing.T) {
	req, err := DecodeParseRequest([]byte(`{"command":"deploy redis","context":{"provider":"gcp","budget":50}}`))
	require.NoError(t, err)
	assert.Equal(t, "deploy redis", req.Command)
	require.NotNil(t, req.Context)
	assert.Equal(t, "gcp", req.Context.Provider)
	require.NotNil(t, req.Context.Budget)
	assert.Equal(t, 50.0, *req.Context.Budget)

	_, err = DecodeParseRequest([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	h := withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil))
	req.Header.Set(RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
}
