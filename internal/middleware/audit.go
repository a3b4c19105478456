package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/middleware/requestid"
)

// AuditWriter persists audit rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type accessRecord struct {
	Method    string `json:"method"`
	Route     string `json:"route"`
	Query     string `json:"query,omitempty"`
	Status    int    `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	RequestID string `json:"request_id,omitempty"`
}

// Audit records one row per successful request to the wrapped route. Failed
// requests are not audited.
func Audit(writer AuditWriter, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		if writer == nil || status >= http.StatusBadRequest {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if claims := Claims(c); claims != nil {
			entry.UserID = &claims.UserID
		}
		entry.NewValues, _ = json.Marshal(accessRecord{
			Method:    c.Request.Method,
			Route:     c.FullPath(),
			Query:     c.Request.URL.RawQuery,
			Status:    status,
			LatencyMs: time.Since(started).Milliseconds(),
			RequestID: requestid.Value(c),
		})
		_ = writer.CreateAuditLog(c.Request.Context(), entry)
	}
}
