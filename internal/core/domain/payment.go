package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// LamportsPerSOL is the number of base units in one SOL.
const LamportsPerSOL = 1_000_000_000

// PaymentStatus represents the lifecycle state of a payment record.
// Transitions are one-way: PENDING -> VERIFIED or PENDING -> EXPIRED.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusVerified PaymentStatus = "VERIFIED"
	PaymentStatusExpired  PaymentStatus = "EXPIRED"
)

// PaymentRecord is the sole persisted entity: one pending or settled
// point-of-sale payment request, keyed by its memo.
type PaymentRecord struct {
	Memo            string        `json:"memo"`
	RecipientWallet string        `json:"recipient_wallet"`
	ItemPrice       float64       `json:"item_price"` // in SOL
	ItemSlot        string        `json:"item_slot"`
	Status          PaymentStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	VerifiedAt      *time.Time    `json:"verified_at,omitempty"`
	ExpiresAt       time.Time     `json:"expires_at"`
}

// IsTerminal returns true if the record is in a final state.
func (r *PaymentRecord) IsTerminal() bool {
	return r.Status == PaymentStatusVerified || r.Status == PaymentStatusExpired
}

// ExpiredAt reports whether the record's TTL has elapsed at the given instant.
func (r *PaymentRecord) ExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// PriceLamports converts the item price to the ledger's base unit.
func (r *PaymentRecord) PriceLamports() uint64 {
	return SOLToLamports(r.ItemPrice)
}

// SOLToLamports converts a SOL amount to lamports, rounding to the nearest
// base unit to absorb float representation noise.
func SOLToLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return uint64(math.Round(sol * LamportsPerSOL))
}

// NewMemo generates an opaque payment reference: 16 random bytes, hex
// encoded. 128 bits keeps collision probability across live records
// cryptographically negligible.
func NewMemo() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generating memo: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
