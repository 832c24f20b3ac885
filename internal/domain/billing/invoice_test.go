package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedEvent(paymentID string) *PaymentEvent {
	return &PaymentEvent{
		ExternalPaymentID: paymentID,
		TenantID:          7,
		SubjectType:       SubjectInvoice,
		InvoiceID:         42,
		Status:            PaymentStatusApproved,
		PaymentMethod:     "pix",
		Amount:            decimal.NewFromFloat(150.00),
		OccurredAt:        time.Now(),
	}
}

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("approved payment marks invoice paid", func(t *testing.T) {
		inv := &Invoice{Code: "INV-001", Status: InvoiceStatusPending}

		changed := inv.ApplyPayment(approvedEvent("PAY-1"))

		assert.True(t, changed)
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.Equal(t, "PAY-1", inv.PaymentID)
		assert.Equal(t, "pix", inv.PaymentMethod)
		require.NotNil(t, inv.PaidAt)
	})

	t.Run("reapplying the same payment is a no-op", func(t *testing.T) {
		inv := &Invoice{Code: "INV-001", Status: InvoiceStatusPending}
		require.True(t, inv.ApplyPayment(approvedEvent("PAY-1")))
		paidAt := inv.PaidAt

		changed := inv.ApplyPayment(approvedEvent("PAY-1"))

		assert.False(t, changed)
		assert.Equal(t, paidAt, inv.PaidAt)
	})

	t.Run("non-approved payment does not transition", func(t *testing.T) {
		inv := &Invoice{Code: "INV-001", Status: InvoiceStatusPending}
		ev := approvedEvent("PAY-1")
		ev.Status = PaymentStatusPending

		assert.False(t, inv.ApplyPayment(ev))
		assert.Equal(t, InvoiceStatusPending, inv.Status)
	})
}

func TestPlanSubscription_ApplyPayment(t *testing.T) {
	t.Run("approved payment activates subscription", func(t *testing.T) {
		sub := &PlanSubscription{PlanID: 1, Status: SubscriptionStatusPending}
		ev := approvedEvent("PAY-9")
		ev.SubjectType = SubjectPlanSubscription
		ev.PlanSubscriptionID = 3

		changed := sub.ApplyPayment(ev)

		assert.True(t, changed)
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
		assert.Equal(t, "PAY-9", sub.LastPaymentID)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.True(t, sub.CurrentPeriodEnd.After(*sub.CurrentPeriodStart))
	})

	t.Run("redelivered payment does not extend the period twice", func(t *testing.T) {
		sub := &PlanSubscription{PlanID: 1, Status: SubscriptionStatusPending}
		ev := approvedEvent("PAY-9")
		ev.SubjectType = SubjectPlanSubscription
		ev.PlanSubscriptionID = 3
		require.True(t, sub.ApplyPayment(ev))
		end := *sub.CurrentPeriodEnd

		changed := sub.ApplyPayment(ev)

		assert.False(t, changed)
		assert.Equal(t, end, *sub.CurrentPeriodEnd)
	})

	t.Run("renewal extends from the current period end", func(t *testing.T) {
		sub := &PlanSubscription{PlanID: 1, Status: SubscriptionStatusPending}
		first := approvedEvent("PAY-9")
		first.SubjectType = SubjectPlanSubscription
		first.PlanSubscriptionID = 3
		require.True(t, sub.ApplyPayment(first))
		firstEnd := *sub.CurrentPeriodEnd

		renewal := approvedEvent("PAY-10")
		renewal.SubjectType = SubjectPlanSubscription
		renewal.PlanSubscriptionID = 3
		require.True(t, sub.ApplyPayment(renewal))

		assert.Equal(t, firstEnd, *sub.CurrentPeriodStart)
		assert.True(t, sub.CurrentPeriodEnd.After(firstEnd))
	})
}

func TestPaymentEvent_Validate(t *testing.T) {
	t.Run("valid invoice event", func(t *testing.T) {
		assert.NoError(t, approvedEvent("PAY-1").Validate())
	})

	t.Run("missing external payment id", func(t *testing.T) {
		ev := approvedEvent("")
		assert.Error(t, ev.Validate())
	})

	t.Run("missing tenant id", func(t *testing.T) {
		ev := approvedEvent("PAY-1")
		ev.TenantID = 0
		assert.Error(t, ev.Validate())
	})

	t.Run("invoice event without invoice id", func(t *testing.T) {
		ev := approvedEvent("PAY-1")
		ev.InvoiceID = 0
		assert.Error(t, ev.Validate())
	})

	t.Run("unknown subject type", func(t *testing.T) {
		ev := approvedEvent("PAY-1")
		ev.SubjectType = "order"
		assert.Error(t, ev.Validate())
	})
}
