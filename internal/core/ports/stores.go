package ports

import (
	"context"
	"time"

	"solana-vend-gateway/internal/core/domain"
)

// TransactionStore is encrypted, TTL-backed persistence for payment
// records, keyed by memo. Absent and expired keys are indistinguishable
// to callers: Get returns nil for both.
type TransactionStore interface {
	// Put persists a record with the given TTL. All-or-nothing.
	Put(ctx context.Context, memo string, record *domain.PaymentRecord, ttl time.Duration) error
	// Get returns the record, or nil if absent or expired.
	Get(ctx context.Context, memo string) (*domain.PaymentRecord, error)
	// CompareAndSet replaces the stored record iff its current status
	// equals expected and is not terminal. Returns false (without
	// effect) otherwise. This is the only sanctioned way to mutate
	// status.
	CompareAndSet(ctx context.Context, memo string, expected domain.PaymentStatus, record *domain.PaymentRecord) (bool, error)
	// Delete removes a record. Deleting an absent key is not an error.
	Delete(ctx context.Context, memo string) error
	// ScanExpired returns the memos of records whose TTL has elapsed
	// but which still occupy storage.
	ScanExpired(ctx context.Context) ([]string, error)
}

// SignatureInfo identifies one recent transaction touching an address,
// newest first in ledger query results.
type SignatureInfo struct {
	Signature string
	Memo      string // memo text attached to the transaction, if any
	Err       bool   // transaction failed on chain
}

// TransactionDetail carries the settlement facts the verifier needs.
type TransactionDetail struct {
	Signature string
	Memo      string
	// Lamports credited to the queried recipient address
	// (post-balance minus pre-balance).
	ReceivedLamports uint64
}

// LedgerClient reads a public transaction ledger. Implementations carry
// their own retry and consistency semantics; callers bound each call
// with a context timeout.
type LedgerClient interface {
	// SignaturesForAddress lists up to limit recent transaction
	// signatures for the address, most recent first.
	SignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)
	// TransactionDetail fetches settlement details for one signature
	// as observed by the given recipient address.
	TransactionDetail(ctx context.Context, signature string, recipient string) (TransactionDetail, error)
}
