package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentEvent(paymentID string, tenantID uint) *billing.PaymentEvent {
	return &billing.PaymentEvent{
		ExternalPaymentID: paymentID,
		TenantID:          tenantID,
		SubjectType:       billing.SubjectInvoice,
		InvoiceID:         42,
		Status:            billing.PaymentStatusApproved,
		PaymentMethod:     "credit_card",
		Amount:            decimal.NewFromFloat(150.00),
		OccurredAt:        time.Now().UTC(),
	}
}

func TestGatewayPaymentDuplicateInsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGatewayPaymentRepository(db, nil)
	ctx := context.Background()

	_, err := repo.Save(ctx, billing.NewGatewayPayment(paymentEvent("mp-100", 1)), 1)
	require.NoError(t, err)

	// Same natural key again trips the unique index and surfaces as a
	// domain-level conflict, not a raw driver error.
	_, err = repo.Save(ctx, billing.NewGatewayPayment(paymentEvent("mp-100", 1)), 1)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// Same payment id under another tenant is a distinct record.
	_, err = repo.Save(ctx, billing.NewGatewayPayment(paymentEvent("mp-100", 2)), 2)
	assert.NoError(t, err)
}

func TestGatewayPaymentFindByPaymentID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGatewayPaymentRepository(db, nil)
	ctx := context.Background()

	saved, err := repo.Save(ctx, billing.NewGatewayPayment(paymentEvent("mp-200", 1)), 1)
	require.NoError(t, err)

	got, err := repo.FindByPaymentID(ctx, "mp-200", 1)
	require.NoError(t, err)
	assert.Equal(t, saved.GetID(), got.GetID())
	assert.Equal(t, billing.PaymentStatusApproved, got.Status)

	_, err = repo.FindByPaymentID(ctx, "mp-200", 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByPaymentID(ctx, "mp-200", 0)
	assert.ErrorIs(t, err, shared.ErrTenantRequired)
}

func TestInvoiceFindByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db, nil)
	ctx := context.Background()

	invoice := &billing.Invoice{
		Code:       "INV-0001",
		CustomerID: 9,
		Status:     billing.InvoiceStatusPending,
		Total:      decimal.NewFromInt(100),
	}
	_, err := repo.Save(ctx, invoice, 1)
	require.NoError(t, err)

	got, err := repo.FindByCode(ctx, "INV-0001", 1)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPending, got.Status)

	_, err = repo.FindByCode(ctx, "INV-0001", 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
