package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/payment"
	"github.com/gatechat/gatechat-server/internal/store"
)

// PaymentHandlers verifies gateway receipts and unlocks group
// membership.
type PaymentHandlers struct {
	store    store.UserStore
	verifier *payment.Verifier
	log      *zerolog.Logger
}

// NewPaymentHandlers creates a new payment handlers instance.
func NewPaymentHandlers(st store.UserStore, verifier *payment.Verifier, logger *zerolog.Logger) *PaymentHandlers {
	return &PaymentHandlers{
		store:    st,
		verifier: verifier,
		log:      logger,
	}
}

// VerifyPaymentRequest is the signed receipt forwarded by the client
// after checkout.
type VerifyPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// Verify checks the receipt signature and marks the user as a group
// member.
// POST /api/payments/verify
func (h *PaymentHandlers) Verify(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.verifier.Verify(req.OrderID, req.PaymentID, req.Signature); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.log.Warn().Int64("user_id", userID).Str("order_id", req.OrderID).Msg("payment signature rejected")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment signature"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.SetGroupMember(c.Request.Context(), userID, true); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to unlock membership")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", userID).Str("order_id", req.OrderID).Msg("group membership unlocked")
	c.JSON(http.StatusOK, gin.H{"groupMember": true})
}
