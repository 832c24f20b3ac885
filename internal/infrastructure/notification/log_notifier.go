// Package notification holds outbound notification channels for settled
// payments. The log notifier is the default until a mail or push channel
// is wired in.
package notification

import (
	"context"

	"go.uber.org/zap"

	appbilling "github.com/backoffice/backend/internal/application/billing"
	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/partner"
)

// LogNotifier records payment notifications in the application log. It
// resolves the same parties a mail channel would address: the provider
// account behind the paying user, and for invoice payments the billed
// customer who gets the receipt.
type LogNotifier struct {
	providers partner.ProviderRepository
	customers partner.CustomerRepository
	invoices  billing.InvoiceRepository
	logger    *zap.Logger
}

// NewLogNotifier creates a LogNotifier. Any repository may be nil, in which
// case the corresponding party is left unresolved.
func NewLogNotifier(
	providers partner.ProviderRepository,
	customers partner.CustomerRepository,
	invoices billing.InvoiceRepository,
	logger *zap.Logger,
) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{
		providers: providers,
		customers: customers,
		invoices:  invoices,
		logger:    logger,
	}
}

func (n *LogNotifier) PaymentReceived(ctx context.Context, event *billing.PaymentEvent) error {
	fields := []zap.Field{
		zap.String("payment_id", event.ExternalPaymentID),
		zap.Uint("tenant_id", event.TenantID),
		zap.String("subject_type", string(event.SubjectType)),
		zap.Uint("subject_id", event.SubjectID()),
		zap.String("status", string(event.Status)),
		zap.String("amount", event.Amount.String()),
	}
	if provider := n.resolveProvider(ctx, event); provider != nil {
		fields = append(fields,
			zap.String("provider_name", provider.Name),
			zap.String("provider_email", provider.Email),
		)
	}
	if customer := n.resolveCustomer(ctx, event); customer != nil {
		fields = append(fields,
			zap.String("customer_name", customer.Name),
			zap.String("customer_email", customer.Email),
		)
	}
	n.logger.Info("payment received notification", fields...)
	return nil
}

// resolveProvider looks up the provider account behind the payment. A
// failed lookup never blocks the notification; the payment is already
// reconciled by the time this runs.
func (n *LogNotifier) resolveProvider(ctx context.Context, event *billing.PaymentEvent) *partner.Provider {
	if n.providers == nil || event.UserID == 0 {
		return nil
	}
	provider, err := n.providers.FindByUserID(ctx, event.UserID, event.TenantID)
	if err != nil {
		n.logger.Debug("notification provider lookup failed",
			zap.Uint("user_id", event.UserID),
			zap.Uint("tenant_id", event.TenantID),
			zap.Error(err),
		)
		return nil
	}
	return provider
}

// resolveCustomer follows an invoice payment to the billed customer, the
// party a receipt would go to. Plan payments have no customer side.
func (n *LogNotifier) resolveCustomer(ctx context.Context, event *billing.PaymentEvent) *partner.Customer {
	if n.customers == nil || n.invoices == nil || event.SubjectType != billing.SubjectInvoice {
		return nil
	}
	invoice, err := n.invoices.FindByID(ctx, event.InvoiceID, event.TenantID)
	if err != nil || invoice.CustomerID == 0 {
		return nil
	}
	customer, err := n.customers.FindByID(ctx, invoice.CustomerID, event.TenantID)
	if err != nil {
		n.logger.Debug("notification customer lookup failed",
			zap.Uint("customer_id", invoice.CustomerID),
			zap.Uint("tenant_id", event.TenantID),
			zap.Error(err),
		)
		return nil
	}
	return customer
}

var _ appbilling.Notifier = (*LogNotifier)(nil)
