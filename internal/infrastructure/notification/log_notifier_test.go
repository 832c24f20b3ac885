package notification

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
)

type notifierFixture struct {
	providers *persistence.GormProviderRepository
	customers *persistence.GormCustomerRepository
	invoices  *persistence.GormInvoiceRepository
	recorded  *observer.ObservedLogs
	notifier  *LogNotifier
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&partner.Provider{}, &partner.Customer{}, &billing.Invoice{}))

	f := &notifierFixture{
		providers: persistence.NewGormProviderRepository(db, nil),
		customers: persistence.NewGormCustomerRepository(db, nil),
		invoices:  persistence.NewGormInvoiceRepository(db, nil),
	}
	core, recorded := observer.New(zap.InfoLevel)
	f.recorded = recorded
	f.notifier = NewLogNotifier(f.providers, f.customers, f.invoices, zap.New(core))
	return f
}

func (f *notifierFixture) entry(t *testing.T) map[string]any {
	t.Helper()
	entries := f.recorded.FilterMessage("payment received notification").All()
	require.Len(t, entries, 1)
	return entries[0].ContextMap()
}

func notifierPaymentEvent(tenantID, userID, invoiceID uint) *billing.PaymentEvent {
	return &billing.PaymentEvent{
		ExternalPaymentID: "mp-notify-1",
		TenantID:          tenantID,
		SubjectType:       billing.SubjectInvoice,
		InvoiceID:         invoiceID,
		Status:            billing.PaymentStatusApproved,
		PaymentMethod:     "credit_card",
		Amount:            decimal.NewFromInt(200),
		OccurredAt:        time.Now().UTC(),
		UserID:            userID,
	}
}

func TestLogNotifierNamesProviderAndCustomer(t *testing.T) {
	ctx := context.Background()
	f := newNotifierFixture(t)

	_, err := f.providers.Save(ctx, &partner.Provider{
		UserID: 42,
		Name:   "Ana Souza",
		Email:  "ana@example.com",
	}, 7)
	require.NoError(t, err)

	customer, err := f.customers.Save(ctx, &partner.Customer{
		Name:  "Acme Ltda",
		Email: "billing@acme.example",
	}, 7)
	require.NoError(t, err)

	invoice, err := f.invoices.Save(ctx, &billing.Invoice{
		Code:       "INV-100",
		CustomerID: customer.GetID(),
		Total:      decimal.NewFromInt(200),
	}, 7)
	require.NoError(t, err)

	require.NoError(t, f.notifier.PaymentReceived(ctx, notifierPaymentEvent(7, 42, invoice.GetID())))

	fields := f.entry(t)
	assert.Equal(t, "Ana Souza", fields["provider_name"])
	assert.Equal(t, "ana@example.com", fields["provider_email"])
	assert.Equal(t, "Acme Ltda", fields["customer_name"])
	assert.Equal(t, "billing@acme.example", fields["customer_email"])
	assert.Equal(t, "mp-notify-1", fields["payment_id"])
}

func TestLogNotifierToleratesUnknownParties(t *testing.T) {
	// Nothing seeded; the notification still goes out, just without the
	// resolved party fields.
	ctx := context.Background()
	f := newNotifierFixture(t)

	require.NoError(t, f.notifier.PaymentReceived(ctx, notifierPaymentEvent(7, 99, 55)))

	fields := f.entry(t)
	assert.NotContains(t, fields, "provider_name")
	assert.NotContains(t, fields, "customer_name")
	assert.Equal(t, "approved", fields["status"])
}

func TestLogNotifierWithoutRepositories(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	notifier := NewLogNotifier(nil, nil, nil, zap.New(core))

	require.NoError(t, notifier.PaymentReceived(context.Background(), notifierPaymentEvent(7, 42, 11)))

	assert.Equal(t, 1, recorded.FilterMessage("payment received notification").Len())
}
