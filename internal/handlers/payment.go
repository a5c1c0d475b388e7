package handlers

import (
	"net/http"

	"matchbot-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	subs *services.SubscriptionManager
	log  logrus.FieldLogger
}

func NewPaymentHandler(subs *services.SubscriptionManager, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{subs: subs, log: log}
}

// Confirm is called by the gateway for every payment provider callback.
// Redelivered events answer 200 with activated=false.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var ev services.PaymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.subs.ConfirmPayment(c.Request.Context(), ev)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
