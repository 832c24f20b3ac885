package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := map[string]PaymentStatus{
		"approved":     PaymentStatusApproved,
		"pending":      PaymentStatusPending,
		"authorized":   PaymentStatusPending,
		"in_process":   PaymentStatusPending,
		"in_mediation": PaymentStatusPending,
		"rejected":     PaymentStatusRejected,
		"cancelled":    PaymentStatusCancelled,
		"refunded":     PaymentStatusRefunded,
		"charged_back": PaymentStatusRefunded,
		"something":    PaymentStatusPending,
		"":             PaymentStatusPending,
	}

	for raw, want := range cases {
		assert.Equal(t, want, MapGatewayStatus(raw), "raw status %q", raw)
	}
}

func TestPaymentStatus_IsFinal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsFinal())
	assert.True(t, PaymentStatusApproved.IsFinal())
	assert.True(t, PaymentStatusRejected.IsFinal())
	assert.True(t, PaymentStatusCancelled.IsFinal())
	assert.True(t, PaymentStatusRefunded.IsFinal())
}
