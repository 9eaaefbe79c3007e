package middleware

import (
	"solana-vend-gateway/pkg/apperror"
	"solana-vend-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Admission creates a middleware that paces authenticated requests through
// a shared token bucket. Callers over the sustained rate are suspended
// until a permit frees up rather than rejected; only a cancelled request
// context produces an error.
func Admission(limiter *rate.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := limiter.Wait(c.Request.Context()); err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("admission wait aborted")
			response.Error(c, apperror.ErrServiceUnavailable(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
