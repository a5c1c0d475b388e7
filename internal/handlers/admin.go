package handlers

import (
	"net/http"
	"time"

	"matchbot-server/internal/models"
	"matchbot-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	moderation *services.ModerationService
	subs       *services.SubscriptionManager
	settings   *services.SettingsService
	log        logrus.FieldLogger
}

type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// SetVIPRequest grants or revokes VIP. With a duration the grant expires;
// without one the permanent flag is set.
type SetVIPRequest struct {
	VIP      *bool  `json:"vip" binding:"required"`
	Duration string `json:"duration,omitempty"`
}

type SetLimitsRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

func NewAdminHandler(moderation *services.ModerationService, subs *services.SubscriptionManager, settings *services.SettingsService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		subs:       subs,
		settings:   settings,
		log:        log,
	}
}

func (h *AdminHandler) SetBlocked(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.moderation.SetBlocked(c.Request.Context(), userID, *req.Blocked); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "blocked": *req.Blocked})
}

func (h *AdminHandler) SetVIP(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetVIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	resp := gin.H{"user_id": userID, "vip": *req.VIP}

	switch {
	case !*req.VIP:
		if err := h.subs.Revoke(ctx, userID); err != nil {
			respondError(c, h.log, err)
			return
		}
	case req.Duration != "":
		duration, err := time.ParseDuration(req.Duration)
		if err != nil || duration <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duration"})
			return
		}
		until, err := h.subs.Activate(ctx, userID, duration)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		resp["vip_until"] = until
	default:
		if err := h.subs.Grant(ctx, userID); err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListComplaints(c *gin.Context) {
	complaints, err := h.moderation.ListComplaints(c.Request.Context(), limitQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

func (h *AdminHandler) ComplaintsAgainst(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	complaints, err := h.moderation.ComplaintsAgainst(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

func (h *AdminHandler) ListViews(c *gin.Context) {
	views, err := h.moderation.ViewHistory(c.Request.Context(), limitQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if views == nil {
		views = []models.ViewEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.moderation.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetLimits(c *gin.Context) {
	disabled, err := h.settings.LimitsDisabled(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled": disabled})
}

func (h *AdminHandler) SetLimits(c *gin.Context) {
	var req SetLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.SetLimitsDisabled(c.Request.Context(), *req.Disabled); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.WithField("disabled", *req.Disabled).Info("view limits toggled")
	c.JSON(http.StatusOK, gin.H{"disabled": *req.Disabled})
}

func (h *AdminHandler) ListModerators(c *gin.Context) {
	ids, err := h.settings.ModeratorIDs(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"moderators": ids})
}

func (h *AdminHandler) AddModerator(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.settings.AddModerator(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) RemoveModerator(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.settings.RemoveModerator(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckModerator reports whether a chat user may use the moderation commands.
func (h *AdminHandler) CheckModerator(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	isModerator, err := h.settings.IsModerator(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"admin":     h.settings.IsAdmin(userID),
		"moderator": isModerator,
	})
}
