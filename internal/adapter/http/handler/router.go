package handler

import (
	"solana-vend-gateway/internal/adapter/http/middleware"
	"solana-vend-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Issuer         ports.PaymentIssuer
	Verifier       ports.PaymentVerifier
	Reporter       ports.ErrorReporter // nil = error tracking disabled
	APIKey         string
	Limiter        *rate.Limiter // nil = admission control disabled
	HealthCheckers []ports.HealthChecker
	Registry       *prometheus.Registry // nil = metrics disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 << 10))
	if deps.Registry != nil {
		r.Use(middleware.NewHTTPMetrics(deps.Registry).Handler())
	}
	if deps.Reporter != nil {
		r.Use(middleware.ErrorReport(deps.Reporter))
	}

	// Health check (deep, verifies Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// Authenticated vending controller API. Admission control sits behind
	// auth so unauthenticated traffic never consumes a permit.
	authed := r.Group("/", middleware.APIKeyAuth(deps.APIKey, deps.Logger))
	if deps.Limiter != nil {
		authed.Use(middleware.Admission(deps.Limiter, deps.Logger))
	}

	paymentHandler := NewPaymentHandler(deps.Issuer, deps.Verifier)
	{
		authed.POST("/generate_payment", paymentHandler.GeneratePayment)
		authed.POST("/verify_payment", paymentHandler.VerifyPayment)
		authed.GET("/transaction_status", paymentHandler.TransactionStatus)
	}

	return r
}
