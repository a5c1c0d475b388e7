package handlers

import (
	"net/http"

	"matchbot-server/internal/config"
	"matchbot-server/internal/middleware"
	"matchbot-server/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Match   *MatchHandler
	Payment *PaymentHandler
	Admin   *AdminHandler
	Hub     *websocket.Hub
	// Limiter is built from cfg when nil.
	Limiter *middleware.RateLimiter
}

func SetupRoutes(h Handlers, cfg *config.Config, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := h.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	auth := middleware.AuthRequired(cfg.JWTSecret)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/token", limiter.Middleware(), h.Auth.IssueToken)

		users := v1.Group("/users/:id")
		users.Use(auth, limiter.Middleware())
		{
			users.POST("/profile", h.User.Register)
			users.GET("/profile", h.User.GetProfile)
			users.PATCH("/profile", h.User.UpdateProfile)
			users.DELETE("/profile", h.User.DeleteProfile)
			users.POST("/activity", h.User.Touch)
			users.PUT("/preferences/age", h.User.SetAgePreference)
			users.PUT("/preferences/city-filter", h.User.SetCityFilter)
			users.POST("/media/photos", h.User.UploadPhoto)
			users.PUT("/media/photos", h.User.ReplacePhotos)
			users.POST("/media/videos", h.User.UploadVideo)
			users.POST("/complaints", h.User.AddComplaint)
			users.GET("/vip", h.User.VIPStatus)
			users.GET("/moderator", h.Admin.CheckModerator)

			users.POST("/next", h.Match.Next)
			users.POST("/likes/:target", h.Match.Like)
			users.GET("/inbox", h.Match.Inbox)
			users.POST("/inbox/:from", h.Match.RespondInbox)
		}

		v1.POST("/payments/confirm", auth, h.Payment.Confirm)

		if h.Hub != nil {
			v1.GET("/ws", auth, func(c *gin.Context) {
				websocket.HandleWebSocket(h.Hub, c)
			})
		}

		admin := v1.Group("/admin")
		admin.Use(auth, middleware.AdminRequired())
		{
			admin.PUT("/users/:id/blocked", h.Admin.SetBlocked)
			admin.PUT("/users/:id/vip", h.Admin.SetVIP)
			admin.GET("/users/:id/complaints", h.Admin.ComplaintsAgainst)
			admin.GET("/complaints", h.Admin.ListComplaints)
			admin.GET("/views", h.Admin.ListViews)
			admin.GET("/stats", h.Admin.Stats)
			admin.GET("/settings/limits", h.Admin.GetLimits)
			admin.PUT("/settings/limits", h.Admin.SetLimits)
			admin.GET("/moderators", h.Admin.ListModerators)
			admin.POST("/moderators/:id", h.Admin.AddModerator)
			admin.DELETE("/moderators/:id", h.Admin.RemoveModerator)
		}
	}

	return router
}
