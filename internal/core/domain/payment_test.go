package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemo_FormatAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		memo, err := NewMemo()
		require.NoError(t, err)
		assert.Len(t, memo, 32)

		_, dup := seen[memo]
		require.False(t, dup, "memo collision: %s", memo)
		seen[memo] = struct{}{}
	}
}

func TestSOLToLamports(t *testing.T) {
	tests := []struct {
		sol      float64
		expected uint64
	}{
		{1.0, 1_000_000_000},
		{0.5, 500_000_000},
		{0.000000001, 1},
		{2.75, 2_750_000_000},
		// 0.1 is not exactly representable; rounding must absorb the noise.
		{0.1, 100_000_000},
		{0, 0},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SOLToLamports(tt.sol), "sol=%v", tt.sol)
	}
}

func TestPaymentRecord_ExpiredAt(t *testing.T) {
	now := time.Now().UTC()
	rec := &PaymentRecord{
		Memo:      "abc",
		Status:    PaymentStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	assert.False(t, rec.ExpiredAt(now))
	assert.False(t, rec.ExpiredAt(now.Add(time.Hour-time.Millisecond)))
	assert.True(t, rec.ExpiredAt(now.Add(time.Hour)))
	assert.True(t, rec.ExpiredAt(now.Add(2*time.Hour)))
}

func TestPaymentRecord_IsTerminal(t *testing.T) {
	rec := &PaymentRecord{Status: PaymentStatusPending}
	assert.False(t, rec.IsTerminal())

	rec.Status = PaymentStatusVerified
	assert.True(t, rec.IsTerminal())

	rec.Status = PaymentStatusExpired
	assert.True(t, rec.IsTerminal())
}

func TestPaymentRecord_PriceLamports(t *testing.T) {
	rec := &PaymentRecord{ItemPrice: 1.25}
	assert.Equal(t, uint64(1_250_000_000), rec.PriceLamports())
}
