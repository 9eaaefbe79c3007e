package service

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"solana-vend-gateway/internal/core/domain"
	"solana-vend-gateway/internal/core/ports"
	"solana-vend-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// Solana addresses are base58, 32-44 characters.
var walletAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IssuerService implements ports.PaymentIssuer: it creates a Pending
// payment record and the scannable Solana Pay descriptor for it.
type IssuerService struct {
	store     ports.TransactionStore
	qr        ports.QRRenderer
	label     string
	recordTTL time.Duration
	log       zerolog.Logger
}

// NewIssuerService creates a new IssuerService.
func NewIssuerService(
	store ports.TransactionStore,
	qr ports.QRRenderer,
	label string,
	recordTTL time.Duration,
	log zerolog.Logger,
) *IssuerService {
	return &IssuerService{
		store:     store,
		qr:        qr,
		label:     label,
		recordTTL: recordTTL,
		log:       log,
	}
}

// Issue validates the request, persists a Pending record with the
// configured TTL and returns the payment URL, QR code path and memo.
func (s *IssuerService) Issue(ctx context.Context, req ports.IssueRequest) (*ports.IssueResult, error) {
	if req.ItemPrice <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if !walletAddressRe.MatchString(req.RecipientWallet) {
		return nil, apperror.ErrInvalidWalletAddress()
	}

	memo, err := domain.NewMemo()
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()
	record := &domain.PaymentRecord{
		Memo:            memo,
		RecipientWallet: req.RecipientWallet,
		ItemPrice:       req.ItemPrice,
		ItemSlot:        req.ItemSlot,
		Status:          domain.PaymentStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.recordTTL),
	}

	// The record must be durable before the request is observable.
	if err := s.store.Put(ctx, memo, record, s.recordTTL); err != nil {
		return nil, apperror.ErrStoreFailure(err)
	}

	paymentURL := s.buildPaymentURL(record)

	qrPath, err := s.qr.Render(paymentURL, memo)
	if err != nil {
		// All-or-nothing toward the caller: an unusable descriptor
		// must not leave a pending record behind.
		if delErr := s.store.Delete(ctx, memo); delErr != nil {
			s.log.Error().Err(delErr).Str("memo", memo).Msg("failed to roll back record after QR render failure")
		}
		return nil, apperror.InternalError(fmt.Errorf("rendering qr code: %w", err))
	}

	s.log.Info().
		Str("memo", memo).
		Str("item_slot", req.ItemSlot).
		Float64("item_price", req.ItemPrice).
		Msg("payment request issued")

	return &ports.IssueResult{
		Memo:       memo,
		PaymentURL: paymentURL,
		QRCodePath: qrPath,
	}, nil
}

// buildPaymentURL encodes a Solana Pay request URI: recipient in the
// opaque part, amount/reference/label/message as query parameters.
func (s *IssuerService) buildPaymentURL(record *domain.PaymentRecord) string {
	q := url.Values{}
	q.Set("amount", strconv.FormatFloat(record.ItemPrice, 'f', -1, 64))
	q.Set("reference", record.Memo)
	q.Set("label", s.label)
	q.Set("message", fmt.Sprintf("Purchase at %s - Slot %s", s.label, record.ItemSlot))
	return fmt.Sprintf("solana:%s?%s", record.RecipientWallet, q.Encode())
}
