package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		AccessToken: "test-token",
		BaseURL:     server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestClientRequiresAccessToken(t *testing.T) {
	_, err := NewClient(&Config{})
	require.Error(t, err)
}

func TestGetPayment(t *testing.T) {
	const body = `{
		"id": 12345,
		"status": "approved",
		"transaction_amount": 150.50,
		"payment_method_id": "credit_card",
		"date_approved": "2026-08-01T10:30:00.000-03:00",
		"external_reference": "{\"tenant_id\":7,\"subject_type\":\"invoice\",\"invoice_id\":42,\"user_id\":3,\"code\":\"INV-42\"}"
	}`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/12345", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, body)
	})

	event, err := client.GetPayment(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "12345", event.ExternalPaymentID)
	assert.Equal(t, uint(7), event.TenantID)
	assert.Equal(t, billing.SubjectInvoice, event.SubjectType)
	assert.Equal(t, uint(42), event.InvoiceID)
	assert.Equal(t, billing.PaymentStatusApproved, event.Status)
	assert.Equal(t, "credit_card", event.PaymentMethod)
	assert.Equal(t, "150.5", event.Amount.String())
	assert.Equal(t, "INV-42", event.Code)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestGetPaymentMapsGatewayStatuses(t *testing.T) {
	cases := map[string]billing.PaymentStatus{
		"approved":     billing.PaymentStatusApproved,
		"in_process":   billing.PaymentStatusPending,
		"rejected":     billing.PaymentStatusRejected,
		"charged_back": billing.PaymentStatusRefunded,
		"weird_new":    billing.PaymentStatusPending,
	}

	for gatewayStatus, want := range cases {
		t.Run(gatewayStatus, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{
					"id": 1,
					"status": %q,
					"transaction_amount": 10,
					"external_reference": "{\"tenant_id\":1,\"subject_type\":\"invoice\",\"invoice_id\":5}"
				}`, gatewayStatus)
			})

			event, err := client.GetPayment(context.Background(), "1")
			require.NoError(t, err)
			assert.Equal(t, want, event.Status)
		})
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetPayment(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetPaymentUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetPayment(context.Background(), "1")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestGetPaymentMissingExternalReference(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1, "status": "approved", "transaction_amount": 10}`)
	})

	_, err := client.GetPayment(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external reference")
}

func TestGetPaymentInvalidReference(t *testing.T) {
	// A reference without a tenant id cannot be reconciled.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": 1,
			"status": "approved",
			"transaction_amount": 10,
			"external_reference": "{\"subject_type\":\"invoice\",\"invoice_id\":5}"
		}`)
	})

	_, err := client.GetPayment(context.Background(), "1")
	require.Error(t, err)
}
