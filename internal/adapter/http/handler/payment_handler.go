package handler

import (
	"net/http"
	"strings"

	"solana-vend-gateway/internal/adapter/http/dto"
	"solana-vend-gateway/internal/core/ports"
	"solana-vend-gateway/pkg/apperror"
	"solana-vend-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment issuance and verification endpoints.
type PaymentHandler struct {
	issuer   ports.PaymentIssuer
	verifier ports.PaymentVerifier
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(issuer ports.PaymentIssuer, verifier ports.PaymentVerifier) *PaymentHandler {
	return &PaymentHandler{issuer: issuer, verifier: verifier}
}

// GeneratePayment handles POST /generate_payment.
func (h *PaymentHandler) GeneratePayment(c *gin.Context) {
	var req dto.GeneratePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.issuer.Issue(c.Request.Context(), ports.IssueRequest{
		ItemPrice:       req.ItemPrice,
		RecipientWallet: req.RecipientWallet,
		ItemSlot:        req.ItemSlot,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.GeneratePaymentResponse{
		PaymentURL: result.PaymentURL,
		QRCodePath: result.QRCodePath,
		Memo:       result.Memo,
	})
}

// VerifyPayment handles POST /verify_payment. An unmatched or unknown memo
// is a normal outcome, not an error, so the response is always 200 unless
// an upstream dependency fails.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrMissingMemo())
		return
	}

	outcome, err := h.verifier.Verify(c.Request.Context(), req.Memo)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatusResponse{Status: string(outcome)})
}

// TransactionStatus handles GET /transaction_status. It reports the stored
// record state without consulting the ledger.
func (h *PaymentHandler) TransactionStatus(c *gin.Context) {
	memo := strings.TrimSpace(c.Query("memo"))
	if memo == "" {
		response.Error(c, apperror.ErrMissingMemo())
		return
	}

	status, err := h.verifier.Status(c.Request.Context(), memo)
	if err != nil {
		response.Error(c, err)
		return
	}
	if status == "" {
		response.Error(c, apperror.ErrPaymentNotFound())
		return
	}

	response.OK(c, dto.StatusResponse{Status: strings.ToLower(string(status))})
}

// HealthCheck handles GET /health, verifying every registered dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
