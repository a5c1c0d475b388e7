package handlers

import (
	"net/http"

	"matchbot-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MatchHandler struct {
	session *services.MatchSession
	log     logrus.FieldLogger
}

type InboxResponseRequest struct {
	Like *bool `json:"like" binding:"required"`
}

func NewMatchHandler(session *services.MatchSession, log logrus.FieldLogger) *MatchHandler {
	return &MatchHandler{session: session, log: log}
}

// Next shows the next candidate. Quota, empty pool and denial are reported
// in the outcome field with status 200.
func (h *MatchHandler) Next(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.session.ShowNext(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MatchHandler) Like(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := idParam(c, "target")
	if !ok {
		return
	}

	result, err := h.session.Like(c.Request.Context(), userID, targetID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MatchHandler) Inbox(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	items, err := h.session.ReviewInbox(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if items == nil {
		items = []services.InboxItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *MatchHandler) RespondInbox(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	fromID, ok := idParam(c, "from")
	if !ok {
		return
	}

	var req InboxResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session.RespondToInbox(c.Request.Context(), userID, fromID, *req.Like)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
