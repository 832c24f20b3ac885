package billing

// PaymentStatus is the internal status of a local gateway payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsFinal reports whether the status terminates the payment lifecycle.
func (s PaymentStatus) IsFinal() bool {
	switch s {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the payment completed successfully.
func (s PaymentStatus) IsSuccess() bool {
	return s == PaymentStatusApproved
}

// MapGatewayStatus translates a raw gateway status string into the internal
// status set. Unknown statuses map to pending so an unexpected gateway value
// never finalizes a payment.
func MapGatewayStatus(raw string) PaymentStatus {
	switch raw {
	case "approved":
		return PaymentStatusApproved
	case "pending", "authorized", "in_process", "in_mediation":
		return PaymentStatusPending
	case "rejected":
		return PaymentStatusRejected
	case "cancelled":
		return PaymentStatusCancelled
	case "refunded", "charged_back":
		return PaymentStatusRefunded
	default:
		return PaymentStatusPending
	}
}
