package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/backoffice/backend/internal/application/billing"
	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/infrastructure/webhook"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
)

// maxWebhookBodyBytes caps what we are willing to read from the gateway.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives payment notifications from the gateway, verifies
// their authenticity and hands them to the reconciliation service. The
// handler is idempotent for identical deliveries; the gateway retries on any
// non-2xx status.
type WebhookHandler struct {
	verifier   webhook.SignatureVerifier
	replays    shared.ReplayStore
	gateway    appbilling.GatewayClient
	reconciler *appbilling.ReconcileService
	cfg        config.WebhookConfig
	logger     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	verifier webhook.SignatureVerifier,
	replays shared.ReplayStore,
	gateway appbilling.GatewayClient,
	reconciler *appbilling.ReconcileService,
	cfg config.WebhookConfig,
	log *zap.Logger,
) *WebhookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{
		verifier:   verifier,
		replays:    replays,
		gateway:    gateway,
		reconciler: reconciler,
		cfg:        cfg,
		logger:     log,
	}
}

// resourceID tolerates both encodings the gateway uses for data.id; older
// notification formats carry a JSON number, newer ones a JSON string.
type resourceID string

func (r *resourceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = resourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = resourceID(n.String())
	return nil
}

// webhookNotification is the gateway's delivery envelope. Only the payment
// id inside it is trusted; everything else about the payment is fetched
// back from the gateway API.
type webhookNotification struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID resourceID `json:"id"`
	} `json:"data"`
}

func (n *webhookNotification) topic() string {
	if n.Type != "" {
		return n.Type
	}
	return n.Topic
}

// RegisterRoutes mounts the webhook endpoints
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/webhooks/payments")
	payments.POST("/invoice", h.InvoicePayment)
	payments.POST("/plan", h.PlanPayment)
}

// InvoicePayment handles POST /webhooks/payments/invoice
func (h *WebhookHandler) InvoicePayment(c *gin.Context) {
	h.handle(c, billing.SubjectInvoice)
}

// PlanPayment handles POST /webhooks/payments/plan
func (h *WebhookHandler) PlanPayment(c *gin.Context) {
	h.handle(c, billing.SubjectPlanSubscription)
}

func (h *WebhookHandler) handle(c *gin.Context, subject billing.SubjectType) {
	log := logger.WithLogger(c.Request.Context(), h.logger.With(zap.String("subject_type", string(subject))))

	// The request id doubles as the replay key, so its absence fails the
	// delivery before anything is read or written.
	requestID := c.GetHeader("X-Request-Id")
	if requestID == "" {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, "missing X-Request-Id header"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "unreadable request body"))
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader("X-Signature")); err != nil {
		log.Warn("webhook signature rejected", zap.String("request_id", requestID))
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, "invalid signature"))
		return
	}

	var notification webhookNotification
	if len(body) > 0 {
		if err := json.Unmarshal(body, &notification); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "malformed notification payload"))
			return
		}
	}

	// Non-payment topics (merchant orders, chargebacks we do not track yet)
	// are acknowledged without processing so the gateway stops resending.
	if notification.topic() != "payment" {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ignored", "topic": notification.topic()}))
		return
	}

	paymentID := string(notification.Data.ID)
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "notification carries no payment id"))
		return
	}

	ctx := c.Request.Context()

	if h.cfg.ReplayTrackingEnabled && h.replays != nil {
		seen, err := h.replays.IsSeen(ctx, requestID)
		switch {
		case err != nil:
			// Reconciliation is idempotent on its own, so a broken replay
			// store degrades to duplicate work instead of lost deliveries.
			log.Warn("replay store unavailable, processing anyway", zap.Error(err))
		case seen:
			log.Info("replayed delivery acknowledged without processing",
				zap.String("request_id", requestID),
				zap.String("payment_id", paymentID))
			c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "already processed"}))
			return
		}
	}

	event, err := h.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		log.Error("gateway payment lookup failed",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "payment lookup failed"))
		return
	}

	if event.SubjectType != subject {
		log.Error("payment subject does not match endpoint",
			zap.String("payment_id", paymentID),
			zap.String("payment_subject", string(event.SubjectType)))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "payment subject mismatch"))
		return
	}

	result, err := h.reconciler.Reconcile(ctx, event)
	if err != nil {
		if errors.Is(err, shared.ErrCrossTenantViolation) {
			log.Error("cross-tenant payment delivery rejected",
				zap.String("payment_id", paymentID),
				zap.Uint("tenant_id", event.TenantID))
		} else {
			log.Error("payment reconciliation failed",
				zap.String("payment_id", paymentID),
				zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "payment processing failed"))
		return
	}

	// The replay id is recorded only once reconciliation succeeded. A
	// delivery that failed with 500 keeps its id unmarked, so the gateway's
	// retry with the identical payload is processed instead of swallowed.
	if h.cfg.ReplayTrackingEnabled && h.replays != nil {
		if _, err := h.replays.MarkSeen(ctx, requestID, h.cfg.ReplayTTL); err != nil {
			log.Warn("failed to record replay id", zap.String("request_id", requestID), zap.Error(err))
		}
	}

	status := "reconciled"
	if result.AlreadyExisted {
		status = "already processed"
	}
	log.Info("webhook delivery processed",
		zap.String("request_id", requestID),
		zap.String("payment_id", paymentID),
		zap.Bool("already_existed", result.AlreadyExisted),
		zap.Bool("subject_updated", result.SubjectUpdated))

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"status":     status,
		"payment_id": paymentID,
	}))
}
