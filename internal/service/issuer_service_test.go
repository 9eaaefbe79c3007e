package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"solana-vend-gateway/internal/core/domain"
	"solana-vend-gateway/internal/core/ports"
	"solana-vend-gateway/internal/core/ports/mocks"
	"solana-vend-gateway/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testWallet = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

type issuerTestDeps struct {
	svc   *IssuerService
	store *mocks.MockTransactionStore
	qr    *mocks.MockQRRenderer
	ctrl  *gomock.Controller
}

func setupIssuer(t *testing.T) *issuerTestDeps {
	ctrl := gomock.NewController(t)
	d := &issuerTestDeps{
		store: mocks.NewMockTransactionStore(ctrl),
		qr:    mocks.NewMockQRRenderer(ctrl),
		ctrl:  ctrl,
	}
	d.svc = NewIssuerService(d.store, d.qr, "Necta Vending", time.Hour, zerolog.Nop())
	return d
}

func TestIssuerService_Issue_Success(t *testing.T) {
	d := setupIssuer(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	var stored *domain.PaymentRecord
	d.store.EXPECT().
		Put(ctx, gomock.Any(), gomock.Any(), time.Hour).
		DoAndReturn(func(_ context.Context, memo string, rec *domain.PaymentRecord, _ time.Duration) error {
			stored = rec
			assert.Equal(t, memo, rec.Memo)
			return nil
		})
	d.qr.EXPECT().
		Render(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ string, memo string) (string, error) {
			return "qr_codes/" + memo + ".png", nil
		})

	result, err := d.svc.Issue(ctx, ports.IssueRequest{
		ItemPrice:       1.5,
		RecipientWallet: testWallet,
		ItemSlot:        "B2",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Len(t, result.Memo, 32)
	assert.Equal(t, "qr_codes/"+result.Memo+".png", result.QRCodePath)

	require.NotNil(t, stored)
	assert.Equal(t, domain.PaymentStatusPending, stored.Status)
	assert.Equal(t, testWallet, stored.RecipientWallet)
	assert.Equal(t, 1.5, stored.ItemPrice)
	assert.Equal(t, "B2", stored.ItemSlot)
	assert.WithinDuration(t, stored.CreatedAt.Add(time.Hour), stored.ExpiresAt, time.Second)
}

func TestIssuerService_Issue_PaymentURL(t *testing.T) {
	d := setupIssuer(t)
	defer d.ctrl.Finish()

	var paymentURL string
	d.store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.qr.EXPECT().
		Render(gomock.Any(), gomock.Any()).
		DoAndReturn(func(content string, memo string) (string, error) {
			paymentURL = content
			return "qr_codes/" + memo + ".png", nil
		})

	result, err := d.svc.Issue(context.Background(), ports.IssueRequest{
		ItemPrice:       0.75,
		RecipientWallet: testWallet,
		ItemSlot:        "A3",
	})
	require.NoError(t, err)
	assert.Equal(t, paymentURL, result.PaymentURL)

	require.True(t, strings.HasPrefix(paymentURL, "solana:"+testWallet+"?"), paymentURL)
	query, err := url.ParseQuery(strings.SplitN(paymentURL, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "0.75", query.Get("amount"))
	assert.Equal(t, result.Memo, query.Get("reference"))
	assert.Equal(t, "Necta Vending", query.Get("label"))
	assert.Equal(t, "Purchase at Necta Vending - Slot A3", query.Get("message"))
}

func TestIssuerService_Issue_InvalidAmount(t *testing.T) {
	d := setupIssuer(t)
	defer d.ctrl.Finish()

	for _, price := range []float64{0, -1.0} {
		result, err := d.svc.Issue(context.Background(), ports.IssueRequest{
			ItemPrice:       price,
			RecipientWallet: testWallet,
			ItemSlot:        "A1",
		})
		assert.Nil(t, result)
		require.Error(t, err)
		assertAppError(t, err, "VAL_002")
	}
}

func TestIssuerService_Issue_InvalidWallet(t *testing.T) {
	d := setupIssuer(t)
	defer d.ctrl.Finish()

	for _, wallet := range []string{"", "short", "contains-invalid-chars-0OIl!!aaaaaaaaaa"} {
		result, err := d.svc.Issue(context.Background(), ports.IssueRequest{
			ItemPrice:       1.0,
			RecipientWallet: wallet,
			ItemSlot:        "A1",
		})
		assert.Nil(t, result)
		require.Error(t, err)
		assertAppError(t, err, "VAL_003")
	}
}

func TestIssuerService_Issue_StoreFailure(t *testing.T) {
	d := setupIssuer(t)
	defer d.ctrl.Finish()

	d.store.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))
	// QR renderer must never run if the record did not persist.

	result, err := d.svc.Issue(context.Background(), ports.IssueRequest{
		ItemPrice:       1.0,
		RecipientWallet: testWallet,
		ItemSlot:        "A1",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "UP_002")
}

func TestIssuerService_Issue_QRFailureRollsBack(t *testing.T) {
	d := setupIssuer(t)
	defer d.ctrl.Finish()

	var memo string
	d.store.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m string, _ *domain.PaymentRecord, _ time.Duration) error {
			memo = m
			return nil
		})
	d.qr.EXPECT().Render(gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))
	d.store.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m string) error {
			assert.Equal(t, memo, m)
			return nil
		})

	result, err := d.svc.Issue(context.Background(), ports.IssueRequest{
		ItemPrice:       1.0,
		RecipientWallet: testWallet,
		ItemSlot:        "A1",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "SYS_001")
}
