package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/middleware/requestid"
)

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON writes data with optional pagination and a single meta map.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	body := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && len(meta[0]) > 0 {
		body.Meta = meta[0]
	}
	write(c, status, body)
}

func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error maps err onto its coded form. Unknown errors surface as INTERNAL_ERROR
// and the request id is echoed so operators can find the matching log line.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	body := Envelope{Error: appErr}
	if id := requestid.Value(c); id != "" {
		body.Meta = map[string]interface{}{"request_id": id}
	}
	if appErr.Status == http.StatusTooManyRequests && c.Writer.Header().Get("Retry-After") == "" {
		c.Header("Retry-After", "60")
	}
	_ = c.Error(err)
	write(c, appErr.Status, body)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// File sends body as a download named filename.
func File(c *gin.Context, filename, contentType string, body []byte) {
	noStore(c)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

func write(c *gin.Context, status int, body Envelope) {
	noStore(c)
	c.JSON(status, body)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
