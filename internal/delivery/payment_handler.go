package delivery

import (
	"encoding/json"
	"net/http"

	"shoplit/internal/clients"
	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const headerPaystackSignature = "x-paystack-signature"

type PaymentHandler struct {
	useCase       domain.PaymentUseCase
	webhookSecret string
	log           *logrus.Logger
}

// NewPaymentHandler checks webhook signatures only when webhookSecret is set.
func NewPaymentHandler(uc domain.PaymentUseCase, webhookSecret string, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		useCase:       uc,
		webhookSecret: webhookSecret,
		log:           logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(public, authed gin.IRouter) {
	public.POST("/payments/webhook", h.Webhook)

	payments := authed.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.POST("/initialize/:order_id", h.InitializePayment)
		payments.POST("/verify/:reference", h.VerifyPayment)
	}
}

func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	orderID, ok := int64Param(c, h.log, "order_id")
	if !ok {
		return
	}
	uid := userID(c)
	h.log.Infof("Handler: User %d initializing payment for order %d", uid, orderID)

	session, err := h.useCase.InitializePayment(c.Request.Context(), uid, orderID)
	if err != nil {
		failWith(c, h.log, "initialize payment", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment initialized successfully", session)
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")
	payment, err := h.useCase.VerifyPayment(c.Request.Context(), userID(c), reference)
	if err != nil {
		failWith(c, h.log, "verify payment", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment verified successfully", payment)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.useCase.ListPayments(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "list payments", err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	SuccessResponse(c, http.StatusOK, "Payments retrieved successfully", payments)
}

// Webhook always answers 200. The caller is the gateway, so problems are
// only logged.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.log.Warnf("Handler: Failed to read webhook body: %v", err)
		c.Status(http.StatusOK)
		return
	}
	if h.webhookSecret != "" && !clients.VerifyPaystackSignature(h.webhookSecret, body, c.GetHeader(headerPaystackSignature)) {
		h.log.Warn("Handler: Ignoring webhook with invalid signature")
		c.Status(http.StatusOK)
		return
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Warnf("Handler: Ignoring undecodable webhook payload: %v", err)
		c.Status(http.StatusOK)
		return
	}
	if err := h.useCase.HandleWebhook(c.Request.Context(), event); err != nil {
		h.log.WithField("reference", event.Data.Reference).Errorf("Handler: Webhook '%s' processing failed: %v", event.Event, err)
	}
	c.Status(http.StatusOK)
}
