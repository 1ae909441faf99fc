package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EventSink receives product analytics events. *utils.PosthogClientWrapper satisfies it.
type EventSink interface {
	IsInitialized() bool
	Enqueue(distinctID string, event string, properties map[string]any)
}

// ledgerEvents names the analytics event for each tracked route, keyed by
// method and route pattern. Read-only routes are not tracked.
var ledgerEvents = map[string]string{
	http.MethodPost + " /api/v1/accounts":             "account_created",
	http.MethodDelete + " /api/v1/accounts/:id":       "account_deleted",
	http.MethodPost + " /api/v1/transactions/deposit":  "deposit_recorded",
	http.MethodPost + " /api/v1/transactions/withdraw": "withdrawal_recorded",
}

// PosthogMiddleware reports ledger mutations to PostHog. Failed requests are
// reported too, under the same event with success=false, so rejected
// withdrawals show up next to settled ones.
// The distinct ID is the authenticated user, or the client IP when auth is disabled.
func PosthogMiddleware(sink EventSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if sink == nil || !sink.IsInitialized() {
			return
		}
		event, ok := ledgerEvents[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return
		}

		status := c.Writer.Status()
		props := map[string]any{
			"status_code": status,
			"success":     status < http.StatusBadRequest,
		}
		if id := c.Param("id"); id != "" {
			props["account_id"] = id
		}
		sink.Enqueue(clientKey(c), event, props)
	}
}

// clientKey identifies the caller for rate limiting and analytics.
func clientKey(c *gin.Context) string {
	if userID, ok := GetUserIDFromContext(c); ok {
		return userID
	}
	return c.ClientIP()
}
