package billing

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
)

// SubscriptionStatus represents the lifecycle status of a plan subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// PlanSubscription ties a tenant's provider account to a billing plan.
type PlanSubscription struct {
	shared.TenantEntity

	PlanID     uint               `gorm:"not null;index" json:"plan_id"`
	ProviderID uint               `gorm:"index" json:"provider_id"`
	Status     SubscriptionStatus `gorm:"not null;default:'pending'" json:"status"`

	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`

	// LastPaymentID records the gateway payment that last touched the
	// subscription, making repeated deliveries detectable.
	LastPaymentID string `gorm:"not null;default:''" json:"last_payment_id,omitempty"`
}

// TableName sets the table name
func (PlanSubscription) TableName() string {
	return "plan_subscriptions"
}

// ApplyPayment activates or extends the subscription for an approved payment
// and reports whether the subscription changed. A payment already reflected
// in the subscription is a no-op.
func (s *PlanSubscription) ApplyPayment(event *PaymentEvent) bool {
	if !event.Status.IsSuccess() {
		return false
	}
	if s.Status == SubscriptionStatusActive && s.LastPaymentID == event.ExternalPaymentID {
		return false
	}

	start := time.Now()
	if s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(start) {
		start = *s.CurrentPeriodEnd
	}
	end := start.AddDate(0, 1, 0)

	s.Status = SubscriptionStatusActive
	s.CurrentPeriodStart = &start
	s.CurrentPeriodEnd = &end
	s.LastPaymentID = event.ExternalPaymentID
	return true
}
