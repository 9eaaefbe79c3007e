package service

import (
	"context"
	"strings"
	"time"

	"solana-vend-gateway/internal/core/domain"
	"solana-vend-gateway/internal/core/ports"
	"solana-vend-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// VerifierService implements ports.PaymentVerifier: it decides whether a
// Pending payment record has settled on the ledger and performs the
// at-most-once Pending -> Verified transition via compare-and-set.
type VerifierService struct {
	store         ports.TransactionStore
	ledger        ports.LedgerClient
	sigLimit      int
	ledgerTimeout time.Duration
	log           zerolog.Logger
}

// NewVerifierService creates a new VerifierService.
func NewVerifierService(
	store ports.TransactionStore,
	ledger ports.LedgerClient,
	sigLimit int,
	ledgerTimeout time.Duration,
	log zerolog.Logger,
) *VerifierService {
	return &VerifierService{
		store:         store,
		ledger:        ledger,
		sigLimit:      sigLimit,
		ledgerTimeout: ledgerTimeout,
		log:           log,
	}
}

// Verify checks whether the record's payment has settled. A transaction
// matches when it carries the exact memo and the lamports credited to
// the recipient cover the item price; the most recent match wins.
// Ledger or store failures surface as errors, never as a negative
// verification result.
func (s *VerifierService) Verify(ctx context.Context, memo string) (ports.VerifyOutcome, error) {
	record, err := s.store.Get(ctx, memo)
	if err != nil {
		return "", apperror.ErrStoreFailure(err)
	}
	if record == nil {
		return ports.OutcomeNotFound, nil
	}
	if record.Status == domain.PaymentStatusVerified {
		// Verification is a query; the terminal state already
		// reflects settlement.
		return ports.OutcomeVerified, nil
	}

	// Bound the ledger work so a slow upstream cannot hold an
	// admission permit indefinitely.
	lctx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	sigs, err := s.ledger.SignaturesForAddress(lctx, record.RecipientWallet, s.sigLimit)
	if err != nil {
		return "", apperror.ErrLedgerUnavailable(err)
	}

	wantLamports := record.PriceLamports()
	for _, sig := range sigs {
		if sig.Err {
			continue
		}
		// The signature listing often carries the memo already;
		// use it to skip detail fetches for unrelated transactions.
		if sig.Memo != "" && !strings.Contains(sig.Memo, memo) {
			continue
		}

		detail, err := s.ledger.TransactionDetail(lctx, sig.Signature, record.RecipientWallet)
		if err != nil {
			return "", apperror.ErrLedgerUnavailable(err)
		}
		if !strings.Contains(detail.Memo, memo) || detail.ReceivedLamports < wantLamports {
			continue
		}

		return s.markVerified(ctx, record, detail.Signature)
	}

	return ports.OutcomeNotVerified, nil
}

// markVerified performs the Pending -> Verified transition. A lost CAS
// race still reports verified: some concurrent caller recorded the same
// settlement first.
func (s *VerifierService) markVerified(ctx context.Context, record *domain.PaymentRecord, signature string) (ports.VerifyOutcome, error) {
	now := time.Now().UTC()
	verified := *record
	verified.Status = domain.PaymentStatusVerified
	verified.VerifiedAt = &now

	ok, err := s.store.CompareAndSet(ctx, record.Memo, domain.PaymentStatusPending, &verified)
	if err != nil {
		return "", apperror.ErrStoreFailure(err)
	}

	s.log.Info().
		Str("memo", record.Memo).
		Str("signature", signature).
		Bool("transitioned", ok).
		Msg("payment verified")

	return ports.OutcomeVerified, nil
}

// Status reports the stored status without querying the ledger.
// Returns an empty status if the record is absent or expired.
func (s *VerifierService) Status(ctx context.Context, memo string) (domain.PaymentStatus, error) {
	record, err := s.store.Get(ctx, memo)
	if err != nil {
		return "", apperror.ErrStoreFailure(err)
	}
	if record == nil {
		return "", nil
	}
	return record.Status, nil
}
