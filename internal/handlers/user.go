package handlers

import (
	"errors"
	"net/http"
	"time"

	"matchbot-server/internal/config"
	"matchbot-server/internal/models"
	"matchbot-server/internal/repository"
	"matchbot-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const mediaURLExpiry = time.Hour

type UserHandler struct {
	profiles   *services.ProfileService
	moderation *services.ModerationService
	subs       *services.SubscriptionManager
	cfg        *config.Config
	log        logrus.FieldLogger
}

type RegisterProfileRequest struct {
	Name           string                `json:"name" binding:"required"`
	Age            int                   `json:"age" binding:"required"`
	City           string                `json:"city" binding:"required"`
	Gender         models.Gender         `json:"gender" binding:"required"`
	Bio            *string               `json:"bio,omitempty"`
	GenderInterest models.GenderInterest `json:"gender_interest" binding:"required"`
	Interests      []string              `json:"interests,omitempty"`
	Smoking        *models.Answer        `json:"smoking,omitempty"`
	Drinking       *models.Answer        `json:"drinking,omitempty"`
	Relationship   *models.Answer        `json:"relationship,omitempty"`
}

type UpdateProfileRequest struct {
	Name           *string                `json:"name,omitempty"`
	Age            *int                   `json:"age,omitempty"`
	City           *string                `json:"city,omitempty"`
	Gender         *models.Gender         `json:"gender,omitempty"`
	Bio            *string                `json:"bio,omitempty"`
	GenderInterest *models.GenderInterest `json:"gender_interest,omitempty"`
	Interests      []string               `json:"interests,omitempty"`
	Smoking        *models.Answer         `json:"smoking,omitempty"`
	Drinking       *models.Answer         `json:"drinking,omitempty"`
	Relationship   *models.Answer         `json:"relationship,omitempty"`
}

type AgePreferenceRequest struct {
	MinAge int  `json:"min_age"`
	MaxAge int  `json:"max_age"`
	Clear  bool `json:"clear"`
}

type CityFilterRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type ReplacePhotosRequest struct {
	Refs []string `json:"refs"`
}

type ComplaintRequest struct {
	ReportedID int64  `json:"reported_id" binding:"required"`
	Reason     string `json:"reason,omitempty"`
}

func NewUserHandler(profiles *services.ProfileService, moderation *services.ModerationService, subs *services.SubscriptionManager, cfg *config.Config, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		profiles:   profiles,
		moderation: moderation,
		subs:       subs,
		cfg:        cfg,
		log:        log,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RegisterProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Register(c.Request.Context(), &models.Profile{
		TelegramID:     userID,
		Name:           req.Name,
		Age:            req.Age,
		City:           req.City,
		Gender:         req.Gender,
		Bio:            req.Bio,
		GenderInterest: req.GenderInterest,
		Interests:      req.Interests,
		Smoking:        req.Smoking,
		Drinking:       req.Drinking,
		Relationship:   req.Relationship,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

// GetProfile returns the profile; ?media_urls=true adds presigned download URLs.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := gin.H{"profile": profile}
	if c.Query("media_urls") == "true" {
		photos, err := h.profiles.MediaURLs(ctx, profile.Photos, mediaURLExpiry)
		if err == nil {
			var videos []string
			videos, err = h.profiles.MediaURLs(ctx, profile.Videos, mediaURLExpiry)
			resp["photo_urls"], resp["video_urls"] = photos, videos
		}
		if err != nil && !errors.Is(err, services.ErrMediaUnavailable) {
			respondError(c, h.log, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, repository.ProfileUpdate{
		Name:           req.Name,
		Age:            req.Age,
		City:           req.City,
		Gender:         req.Gender,
		Bio:            req.Bio,
		GenderInterest: req.GenderInterest,
		Interests:      req.Interests,
		Smoking:        req.Smoking,
		Drinking:       req.Drinking,
		Relationship:   req.Relationship,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *UserHandler) DeleteProfile(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.profiles.Delete(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Touch marks the user as active.
func (h *UserHandler) Touch(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.profiles.Touch(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetAgePreference(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AgePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.Clear {
		err = h.profiles.ClearAgePreference(ctx, userID)
	} else {
		err = h.profiles.SetAgePreference(ctx, userID, req.MinAge, req.MaxAge)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetCityFilter(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CityFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.SetCityFilter(c.Request.Context(), userID, *req.Enabled); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) UploadPhoto(c *gin.Context) {
	h.upload(c, services.MediaPhotos, h.cfg.AllowedImageTypes)
}

func (h *UserHandler) UploadVideo(c *gin.Context) {
	h.upload(c, services.MediaVideos, h.cfg.AllowedVideoTypes)
}

func (h *UserHandler) upload(c *gin.Context, kind string, allowed []string) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !isAllowedType(contentType, allowed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported content type " + contentType})
		return
	}

	ctx := c.Request.Context()
	var ref string
	if kind == services.MediaVideos {
		ref, err = h.profiles.AddVideo(ctx, userID, file, header.Size, header.Filename, contentType)
	} else {
		ref, err = h.profiles.AddPhoto(ctx, userID, file, header.Size, header.Filename, contentType)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ref": ref})
}

func (h *UserHandler) ReplacePhotos(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReplacePhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.ReplacePhotos(c.Request.Context(), userID, req.Refs); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) AddComplaint(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	complaint, err := h.moderation.AddComplaint(c.Request.Context(), userID, req.ReportedID, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"complaint": complaint})
}

func (h *UserHandler) VIPStatus(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	active, err := h.subs.IsActive(ctx, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":    active,
		"vip":       profile.VIP,
		"vip_until": profile.VIPUntil,
	})
}

func isAllowedType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if t == contentType {
			return true
		}
	}
	return false
}
