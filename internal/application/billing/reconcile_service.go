package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/activity"
	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReconcileResult reports what a reconciliation run did.
type ReconcileResult struct {
	// Payment is the local record after reconciliation.
	Payment *billing.GatewayPayment

	// AlreadyExisted is true when a record for the event's natural key was
	// already present. The audit entry is suppressed when set; the success
	// notification is keyed on the status transition instead, so a payment
	// first seen as pending still notifies once it turns approved.
	AlreadyExisted bool

	// SubjectUpdated is true when the referenced invoice or subscription
	// actually changed state.
	SubjectUpdated bool
}

// ReconcileService converges repeated payment notifications onto a single
// local record per (payment id, tenant) and drives the referenced invoice or
// plan subscription to the state the payment implies.
//
// Every step is idempotent. The uniqueness constraint on the payment table
// breaks insert races between concurrent deliveries; the loser of such a
// race re-reads the winner's row and continues as a re-delivery.
type ReconcileService struct {
	payments      billing.GatewayPaymentRepository
	invoices      billing.InvoiceRepository
	subscriptions billing.PlanSubscriptionRepository
	recorder      activity.Recorder
	notifier      Notifier
	logger        *zap.Logger
	timeout       time.Duration
}

// NewReconcileService wires a reconciliation service. recorder and notifier
// may be nil; both default to no-ops.
func NewReconcileService(
	payments billing.GatewayPaymentRepository,
	invoices billing.InvoiceRepository,
	subscriptions billing.PlanSubscriptionRepository,
	recorder activity.Recorder,
	notifier Notifier,
	logger *zap.Logger,
	timeout time.Duration,
) *ReconcileService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ReconcileService{
		payments:      payments,
		invoices:      invoices,
		subscriptions: subscriptions,
		recorder:      recorder,
		notifier:      notifier,
		logger:        logger,
		timeout:       timeout,
	}
}

// Reconcile processes one normalized payment event end to end: upsert the
// local payment record by natural key, then apply the payment to its
// subject. Safe to call any number of times with the same event.
func (s *ReconcileService) Reconcile(ctx context.Context, event *billing.PaymentEvent) (*ReconcileResult, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.logger.With(
		zap.String("payment_id", event.ExternalPaymentID),
		zap.Uint("tenant_id", event.TenantID),
		zap.String("status", string(event.Status)),
	)

	result, becameSuccessful, err := s.upsertPayment(ctx, event, log)
	if err != nil {
		return nil, err
	}

	updated, err := s.applyToSubject(ctx, event, log)
	if err != nil {
		return nil, err
	}
	result.SubjectUpdated = updated

	if !result.AlreadyExisted {
		s.recordAudit(ctx, event)
	}
	if becameSuccessful {
		s.notifySuccess(ctx, event, log)
	}

	log.Info("payment reconciled",
		zap.Bool("already_existed", result.AlreadyExisted),
		zap.Bool("subject_updated", result.SubjectUpdated))
	return result, nil
}

// upsertPayment converges on exactly one record for the event's natural key.
// The second return value reports whether this run moved the record into a
// success status for the first time.
func (s *ReconcileService) upsertPayment(ctx context.Context, event *billing.PaymentEvent, log *zap.Logger) (*ReconcileResult, bool, error) {
	existing, err := s.payments.FindByPaymentID(ctx, event.ExternalPaymentID, event.TenantID)
	switch {
	case err == nil:
		return s.refreshExisting(ctx, existing, event, log)

	case errors.Is(err, shared.ErrNotFound):
		payment := billing.NewGatewayPayment(event)
		saved, saveErr := s.payments.Save(ctx, payment, event.TenantID)
		if saveErr == nil {
			return &ReconcileResult{Payment: saved}, event.Status.IsSuccess(), nil
		}
		if !errors.Is(saveErr, shared.ErrAlreadyExists) {
			return nil, false, fmt.Errorf("inserting payment record: %w", saveErr)
		}

		// A concurrent delivery inserted first. Re-read its row and treat
		// this run as a re-delivery.
		log.Info("concurrent delivery won the insert, reprocessing as re-delivery")
		winner, findErr := s.payments.FindByPaymentID(ctx, event.ExternalPaymentID, event.TenantID)
		if findErr != nil {
			return nil, false, fmt.Errorf("re-reading payment record after insert conflict: %w", findErr)
		}
		return s.refreshExisting(ctx, winner, event, log)

	default:
		return nil, false, fmt.Errorf("looking up payment record: %w", err)
	}
}

// refreshExisting applies the event to an already persisted record. When the
// event carries nothing new the stored row is left completely untouched.
func (s *ReconcileService) refreshExisting(ctx context.Context, payment *billing.GatewayPayment, event *billing.PaymentEvent, log *zap.Logger) (*ReconcileResult, bool, error) {
	result := &ReconcileResult{Payment: payment, AlreadyExisted: true}

	wasSuccess := payment.Status.IsSuccess()
	if !payment.ApplyEvent(event) {
		log.Debug("payment record already current, skipping write")
		return result, false, nil
	}

	saved, err := s.payments.Save(ctx, payment, event.TenantID)
	if err != nil {
		return nil, false, fmt.Errorf("updating payment record: %w", err)
	}
	result.Payment = saved
	return result, !wasSuccess && saved.Status.IsSuccess(), nil
}

// applyToSubject moves the referenced invoice or subscription to the state
// the payment implies. The transition helpers are no-ops for payments the
// subject already reflects.
func (s *ReconcileService) applyToSubject(ctx context.Context, event *billing.PaymentEvent, log *zap.Logger) (bool, error) {
	switch event.SubjectType {
	case billing.SubjectInvoice:
		invoice, err := s.invoices.FindByID(ctx, event.InvoiceID, event.TenantID)
		if err != nil {
			return false, fmt.Errorf("loading invoice %d: %w", event.InvoiceID, err)
		}
		if !invoice.ApplyPayment(event) {
			return false, nil
		}
		if _, err := s.invoices.Save(ctx, invoice, event.TenantID); err != nil {
			return false, fmt.Errorf("updating invoice %d: %w", event.InvoiceID, err)
		}
		log.Info("invoice settled", zap.Uint("invoice_id", event.InvoiceID))
		return true, nil

	case billing.SubjectPlanSubscription:
		sub, err := s.subscriptions.FindByID(ctx, event.PlanSubscriptionID, event.TenantID)
		if err != nil {
			return false, fmt.Errorf("loading plan subscription %d: %w", event.PlanSubscriptionID, err)
		}
		if !sub.ApplyPayment(event) {
			return false, nil
		}
		if _, err := s.subscriptions.Save(ctx, sub, event.TenantID); err != nil {
			return false, fmt.Errorf("updating plan subscription %d: %w", event.PlanSubscriptionID, err)
		}
		log.Info("plan subscription extended", zap.Uint("plan_subscription_id", event.PlanSubscriptionID))
		return true, nil

	default:
		return false, shared.ErrInvalidInput
	}
}

// recordAudit writes the once-per-payment audit entry. The recorder never
// propagates failures; the payment state is already durable.
func (s *ReconcileService) recordAudit(ctx context.Context, event *billing.PaymentEvent) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, activity.Entry{
		TenantID:    event.TenantID,
		ActorID:     event.UserID,
		ActionType:  "payment.reconciled",
		SubjectType: string(event.SubjectType),
		SubjectID:   event.SubjectID(),
		Description: fmt.Sprintf("gateway payment %s recorded as %s", event.ExternalPaymentID, event.Status),
		Metadata: map[string]any{
			"payment_id":     event.ExternalPaymentID,
			"payment_method": event.PaymentMethod,
			"amount":         event.Amount.String(),
		},
	})
}

// notifySuccess fires once per payment, on the delivery that first carried a
// success status. Notification failure is logged, never propagated.
func (s *ReconcileService) notifySuccess(ctx context.Context, event *billing.PaymentEvent, log *zap.Logger) {
	if err := s.notifier.PaymentReceived(ctx, event); err != nil {
		log.Warn("payment notification failed", zap.Error(err))
	}
}
