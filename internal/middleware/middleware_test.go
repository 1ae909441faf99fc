package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/wallet_ledger/internal/middleware"
	"github.com/SscSPs/wallet_ledger/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	distinctID string
	event      string
	props      map[string]any
}

type fakeSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakeSink) IsInitialized() bool { return true }

func (f *fakeSink) Enqueue(distinctID string, event string, properties map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedEvent{distinctID, event, properties})
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.Use(mw...)
	return r
}

func do(r *gin.Engine, method, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.10:4321"
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPosthogMiddleware_TracksLedgerMutations(t *testing.T) {
	sink := &fakeSink{}
	r := newEngine(middleware.PosthogMiddleware(sink))
	r.POST("/api/v1/transactions/withdraw", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.POST("/api/v1/transactions/deposit", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.DELETE("/api/v1/accounts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/api/v1/accounts/:id/balance", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodPost, "/api/v1/transactions/deposit")
	do(r, http.MethodPost, "/api/v1/transactions/withdraw")
	do(r, http.MethodDelete, "/api/v1/accounts/acc-1")
	do(r, http.MethodGet, "/api/v1/accounts/acc-1/balance")

	require.Len(t, sink.events, 3, "reads are not tracked")

	assert.Equal(t, "deposit_recorded", sink.events[0].event)
	assert.Equal(t, true, sink.events[0].props["success"])
	assert.Equal(t, "192.0.2.10", sink.events[0].distinctID)

	assert.Equal(t, "withdrawal_recorded", sink.events[1].event)
	assert.Equal(t, false, sink.events[1].props["success"])
	assert.Equal(t, http.StatusBadRequest, sink.events[1].props["status_code"])

	assert.Equal(t, "account_deleted", sink.events[2].event)
	assert.Equal(t, "acc-1", sink.events[2].props["account_id"])
}

func TestPosthogMiddleware_UninitializedClientIsNoop(t *testing.T) {
	client := utils.InitializePosthogClient("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := newEngine(middleware.PosthogMiddleware(client))
	r.POST("/api/v1/accounts", func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/accounts").Code)
}

func TestRateLimit(t *testing.T) {
	lim, err := middleware.NewRateLimiter("2-M")
	require.NoError(t, err)
	r := newEngine(middleware.RateLimit(lim))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := do(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping").Code)

	third := do(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, third.Body.String())
}

func TestNewRateLimiter_RejectsBadFormat(t *testing.T) {
	_, err := middleware.NewRateLimiter("lots")
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	const secret, issuer = "middleware-test-secret", "wallet-ledger"
	r := newEngine(middleware.AuthMiddleware(secret, issuer))
	r.GET("/me", func(c *gin.Context) {
		userID, _ := middleware.GetUserIDFromContext(c)
		c.String(http.StatusOK, userID)
	})

	valid, err := utils.GenerateJWT("operator-7", secret, time.Hour, issuer)
	require.NoError(t, err)
	expired, err := utils.GenerateJWT("operator-7", secret, -time.Minute, issuer)
	require.NoError(t, err)
	foreign, err := utils.GenerateJWT("operator-7", secret, time.Hour, "someone-else")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   []string
		wantCode int
		wantBody string
	}{
		{"missing header", nil, http.StatusUnauthorized, `{"error":"Authorization header required"}`},
		{"wrong scheme", []string{"Authorization", "Basic abc"}, http.StatusUnauthorized, `{"error":"Authorization header format must be Bearer {token}"}`},
		{"expired", []string{"Authorization", "Bearer " + expired}, http.StatusUnauthorized, `{"error":"Token has expired"}`},
		{"wrong issuer", []string{"Authorization", "Bearer " + foreign}, http.StatusUnauthorized, `{"error":"Invalid token"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/me", tt.header...)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}

	w := do(r, http.MethodGet, "/me", "Authorization", "Bearer "+valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator-7", w.Body.String())
}
