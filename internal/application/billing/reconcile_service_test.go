package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/activity"
	domainbilling "github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type capturingNotifier struct {
	mu     sync.Mutex
	events []*domainbilling.PaymentEvent
}

func (n *capturingNotifier) PaymentReceived(ctx context.Context, event *domainbilling.PaymentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type capturingRecorder struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *capturingRecorder) Record(ctx context.Context, entry activity.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *capturingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type fixture struct {
	service  *ReconcileService
	payments *persistence.GormGatewayPaymentRepository
	invoices *persistence.GormInvoiceRepository
	subs     *persistence.GormPlanSubscriptionRepository
	notifier *capturingNotifier
	recorder *capturingRecorder
	db       *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domainbilling.GatewayPayment{},
		&domainbilling.Invoice{},
		&domainbilling.PlanSubscription{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_gateway_payments_natural_key ON gateway_payments (payment_id, tenant_id)",
	).Error)

	f := &fixture{
		payments: persistence.NewGormGatewayPaymentRepository(db, nil),
		invoices: persistence.NewGormInvoiceRepository(db, nil),
		subs:     persistence.NewGormPlanSubscriptionRepository(db, nil),
		notifier: &capturingNotifier{},
		recorder: &capturingRecorder{},
		db:       db,
	}
	f.service = NewReconcileService(f.payments, f.invoices, f.subs, f.recorder, f.notifier, nil, 5*time.Second)
	return f
}

func (f *fixture) seedInvoice(t *testing.T, tenantID uint) *domainbilling.Invoice {
	t.Helper()
	invoice := &domainbilling.Invoice{
		Code:       "INV-100",
		CustomerID: 5,
		Status:     domainbilling.InvoiceStatusPending,
		Total:      decimal.NewFromInt(200),
	}
	saved, err := f.invoices.Save(context.Background(), invoice, tenantID)
	require.NoError(t, err)
	return saved
}

func (f *fixture) seedSubscription(t *testing.T, tenantID uint) *domainbilling.PlanSubscription {
	t.Helper()
	sub := &domainbilling.PlanSubscription{
		PlanID: 2,
		Status: domainbilling.SubscriptionStatusPending,
	}
	saved, err := f.subs.Save(context.Background(), sub, tenantID)
	require.NoError(t, err)
	return saved
}

func invoiceEvent(paymentID string, tenantID, invoiceID uint, status domainbilling.PaymentStatus) *domainbilling.PaymentEvent {
	return &domainbilling.PaymentEvent{
		ExternalPaymentID: paymentID,
		TenantID:          tenantID,
		SubjectType:       domainbilling.SubjectInvoice,
		InvoiceID:         invoiceID,
		Status:            status,
		PaymentMethod:     "credit_card",
		Amount:            decimal.NewFromInt(200),
		OccurredAt:        time.Now().UTC(),
	}
}

func TestReconcileFirstDeliverySettlesInvoice(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, 1)

	event := invoiceEvent("mp-1", 1, invoice.GetID(), domainbilling.PaymentStatusApproved)
	result, err := f.service.Reconcile(context.Background(), event)

	require.NoError(t, err)
	assert.False(t, result.AlreadyExisted)
	assert.True(t, result.SubjectUpdated)
	assert.NotZero(t, result.Payment.GetID())

	got, err := f.invoices.FindByID(context.Background(), invoice.GetID(), 1)
	require.NoError(t, err)
	assert.Equal(t, domainbilling.InvoiceStatusPaid, got.Status)
	assert.Equal(t, "mp-1", got.PaymentID)
	assert.NotNil(t, got.PaidAt)

	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, 1, f.recorder.count())
}

func TestReconcileRedeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, 1)
	event := invoiceEvent("mp-2", 1, invoice.GetID(), domainbilling.PaymentStatusApproved)

	first, err := f.service.Reconcile(context.Background(), event)
	require.NoError(t, err)
	require.False(t, first.AlreadyExisted)

	second, err := f.service.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExisted)
	assert.False(t, second.SubjectUpdated)
	assert.Equal(t, first.Payment.GetID(), second.Payment.GetID())

	// Exactly one payment row, one notification, one audit entry.
	var count int64
	require.NoError(t, f.db.Model(&domainbilling.GatewayPayment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, 1, f.recorder.count())
}

func TestReconcileStatusProgression(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, 1)

	pending := invoiceEvent("mp-3", 1, invoice.GetID(), domainbilling.PaymentStatusPending)
	result, err := f.service.Reconcile(context.Background(), pending)
	require.NoError(t, err)
	assert.False(t, result.SubjectUpdated, "pending payment must not settle the invoice")

	approved := invoiceEvent("mp-3", 1, invoice.GetID(), domainbilling.PaymentStatusApproved)
	result, err = f.service.Reconcile(context.Background(), approved)
	require.NoError(t, err)
	assert.True(t, result.AlreadyExisted)
	assert.True(t, result.SubjectUpdated)

	got, err := f.payments.FindByPaymentID(context.Background(), "mp-3", 1)
	require.NoError(t, err)
	assert.Equal(t, domainbilling.PaymentStatusApproved, got.Status)

	inv, err := f.invoices.FindByID(context.Background(), invoice.GetID(), 1)
	require.NoError(t, err)
	assert.Equal(t, domainbilling.InvoiceStatusPaid, inv.Status)

	// The pending delivery must not notify; the approval is the first
	// success and must notify exactly once.
	assert.Equal(t, 1, f.notifier.count())
}

func TestReconcileActivatesSubscription(t *testing.T) {
	f := newFixture(t)
	sub := f.seedSubscription(t, 4)

	event := &domainbilling.PaymentEvent{
		ExternalPaymentID:  "mp-sub-1",
		TenantID:           4,
		SubjectType:        domainbilling.SubjectPlanSubscription,
		PlanSubscriptionID: sub.GetID(),
		Status:             domainbilling.PaymentStatusApproved,
		Amount:             decimal.NewFromInt(50),
		OccurredAt:         time.Now().UTC(),
	}

	result, err := f.service.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, result.SubjectUpdated)

	got, err := f.subs.FindByID(context.Background(), sub.GetID(), 4)
	require.NoError(t, err)
	assert.Equal(t, domainbilling.SubscriptionStatusActive, got.Status)
	assert.Equal(t, "mp-sub-1", got.LastPaymentID)
	require.NotNil(t, got.CurrentPeriodEnd)

	// A renewal payment extends the period instead of resetting it.
	firstEnd := *got.CurrentPeriodEnd
	renewal := *event
	renewal.ExternalPaymentID = "mp-sub-2"
	result, err = f.service.Reconcile(context.Background(), &renewal)
	require.NoError(t, err)
	assert.True(t, result.SubjectUpdated)

	got, err = f.subs.FindByID(context.Background(), sub.GetID(), 4)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentPeriodEnd)
	assert.True(t, got.CurrentPeriodEnd.After(firstEnd))
}

func TestReconcileMissingSubjectFails(t *testing.T) {
	f := newFixture(t)

	event := invoiceEvent("mp-4", 1, 9999, domainbilling.PaymentStatusApproved)
	_, err := f.service.Reconcile(context.Background(), event)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReconcileTenantIsolation(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, 1)

	// An event for another tenant must not see tenant 1's invoice.
	event := invoiceEvent("mp-5", 2, invoice.GetID(), domainbilling.PaymentStatusApproved)
	_, err := f.service.Reconcile(context.Background(), event)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReconcileRejectsInvalidEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Reconcile(context.Background(), &domainbilling.PaymentEvent{})
	require.Error(t, err)

	_, err = f.service.Reconcile(context.Background(), &domainbilling.PaymentEvent{
		ExternalPaymentID: "mp-6",
		SubjectType:       domainbilling.SubjectInvoice,
		InvoiceID:         1,
	})
	require.Error(t, err, "missing tenant id must be rejected")
}

func TestReconcileRejectedPaymentLeavesInvoicePending(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, 1)

	event := invoiceEvent("mp-7", 1, invoice.GetID(), domainbilling.PaymentStatusRejected)
	result, err := f.service.Reconcile(context.Background(), event)

	require.NoError(t, err)
	assert.False(t, result.SubjectUpdated)

	got, err := f.invoices.FindByID(context.Background(), invoice.GetID(), 1)
	require.NoError(t, err)
	assert.Equal(t, domainbilling.InvoiceStatusPending, got.Status)

	// Rejected payments are recorded for audit but never notified.
	assert.Equal(t, 0, f.notifier.count())
	assert.Equal(t, 1, f.recorder.count())
}

// racingPaymentRepo simulates a concurrent delivery: the first natural-key
// lookup misses, and before the caller's insert lands a competing row is
// written through the real repository. The caller's insert then trips the
// unique index and must recover by re-reading the winner.
type racingPaymentRepo struct {
	*persistence.GormGatewayPaymentRepository

	t      *testing.T
	winner *domainbilling.PaymentEvent
	raced  bool
}

func (r *racingPaymentRepo) FindByPaymentID(ctx context.Context, paymentID string, tenantID uint) (*domainbilling.GatewayPayment, error) {
	if !r.raced {
		r.raced = true
		_, err := r.GormGatewayPaymentRepository.Save(ctx, domainbilling.NewGatewayPayment(r.winner), tenantID)
		require.NoError(r.t, err)
		return nil, shared.ErrNotFound
	}
	return r.GormGatewayPaymentRepository.FindByPaymentID(ctx, paymentID, tenantID)
}

func TestReconcileConcurrentDuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	invoice := f.seedInvoice(t, 1)

	// The competing delivery wins the insert with the payment still pending;
	// the losing delivery carries the approval.
	winner := invoiceEvent("mp-race", 1, invoice.GetID(), domainbilling.PaymentStatusPending)
	racing := &racingPaymentRepo{
		GormGatewayPaymentRepository: f.payments,
		t:                            t,
		winner:                       winner,
	}
	service := NewReconcileService(racing, f.invoices, f.subs, f.recorder, f.notifier, nil, 5*time.Second)

	approved := invoiceEvent("mp-race", 1, invoice.GetID(), domainbilling.PaymentStatusApproved)
	result, err := service.Reconcile(context.Background(), approved)

	require.NoError(t, err, "losing an insert race must not surface as an error")
	assert.True(t, result.AlreadyExisted)
	assert.True(t, result.SubjectUpdated)

	var count int64
	require.NoError(t, f.db.Model(&domainbilling.GatewayPayment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := f.payments.FindByPaymentID(context.Background(), "mp-race", 1)
	require.NoError(t, err)
	assert.Equal(t, domainbilling.PaymentStatusApproved, got.Status)

	// The losing delivery carried the first success, so it notifies.
	assert.Equal(t, 1, f.notifier.count())
}
