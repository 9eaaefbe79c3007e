package ports

import (
	"context"
	"time"

	"solana-vend-gateway/internal/core/domain"
)

// EncryptionService seals and opens record payloads (AES-256-GCM).
type EncryptionService interface {
	Seal(plaintext []byte) (string, error)
	Open(ciphertext string) ([]byte, error)
}

// QRRenderer renders a payment URI into a scannable image and returns
// the path it was written to.
type QRRenderer interface {
	Render(content string, memo string) (string, error)
}

// --- Service Ports (Business Logic) ---

// IssueRequest holds validated input for creating a payment request.
type IssueRequest struct {
	ItemPrice       float64
	RecipientWallet string
	ItemSlot        string
}

// IssueResult is the issued payment request descriptor.
type IssueResult struct {
	Memo       string
	PaymentURL string
	QRCodePath string
}

// PaymentIssuer creates payment records and their scannable descriptors.
type PaymentIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
}

// VerifyOutcome is the result of a verification query. The values double
// as the wire-level status strings.
type VerifyOutcome string

const (
	OutcomeVerified    VerifyOutcome = "verified"
	OutcomeNotVerified VerifyOutcome = "not_verified"
	OutcomeNotFound    VerifyOutcome = "not_found"
)

// PaymentVerifier decides whether a payment record is settled on the
// ledger, and answers status queries.
type PaymentVerifier interface {
	// Verify checks the ledger for a settling transaction. A negative
	// outcome leaves the record Pending; upstream failures surface as
	// errors, never as OutcomeNotVerified.
	Verify(ctx context.Context, memo string) (VerifyOutcome, error)
	// Status reports the stored record's status without touching the
	// ledger. Returns an empty status if the record is absent.
	Status(ctx context.Context, memo string) (domain.PaymentStatus, error)
}

// Incident is a fault forwarded to the error-tracking collaborator.
type Incident struct {
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorReporter forwards incidents to an external collector. Delivery is
// best-effort and must never block or fail the request path.
type ErrorReporter interface {
	Report(incident Incident)
}
