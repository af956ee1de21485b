package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/pkg/response"
)

// PaymentHandler receives the external processor's confirmation callbacks.
type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: payments}
}

type paymentCallbackRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	Result    string `json:"result" binding:"required,oneof=completed failed"`
}

// Callback processes a payment result event
// POST /api/payments/callback
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.HandleResult(req.PaymentID, req.Result)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{
		"payment_id": payment.PaymentID,
		"status":     payment.Status,
	})
}
