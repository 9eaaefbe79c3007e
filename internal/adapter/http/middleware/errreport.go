package middleware

import (
	"net/http"
	"strings"
	"time"

	"solana-vend-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// ErrorReport creates a middleware that forwards server-side failures to
// the error tracker after the response is written. Client errors are not
// reported.
func ErrorReport(reporter ports.ErrorReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError {
			return
		}

		msgs := make([]string, 0, len(c.Errors))
		for _, e := range c.Errors {
			msgs = append(msgs, e.Error())
		}
		message := strings.Join(msgs, "; ")
		if message == "" {
			message = http.StatusText(status)
		}

		reporter.Report(ports.Incident{
			Message:   message,
			Path:      c.Request.URL.Path,
			Status:    status,
			Timestamp: time.Now().UTC(),
		})
	}
}
