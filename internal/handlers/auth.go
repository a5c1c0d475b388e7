package handlers

import (
	"net/http"
	"time"

	"matchbot-server/internal/config"
	"matchbot-server/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	cfg *config.Config
	log logrus.FieldLogger
}

type TokenRequest struct {
	Gateway string `json:"gateway" binding:"required,min=1,max=64"`
	Secret  string `json:"secret" binding:"required"`
	Role    string `json:"role" binding:"omitempty,oneof=gateway admin"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

func NewAuthHandler(cfg *config.Config, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log}
}

// IssueToken exchanges a gateway secret for a bearer token. Admin tokens are
// checked against ADMIN_SECRET_HASH, gateway tokens against GATEWAY_SECRET_HASH.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = middleware.RoleGateway
	}

	hash := h.cfg.GatewaySecretHash
	if req.Role == middleware.RoleAdmin {
		hash = h.cfg.AdminSecretHash
	}
	if hash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token exchange disabled for role " + req.Role})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Secret)); err != nil {
		h.log.WithFields(logrus.Fields{"gateway": req.Gateway, "role": req.Role}).Warn("rejected token request")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	expiresAt := time.Now().Add(h.cfg.JWTExpiry)
	token, err := h.generateToken(req.Gateway, req.Role, expiresAt)
	if err != nil {
		h.log.WithError(err).Error("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, ExpiresAt: expiresAt, Role: req.Role})
}

func (h *AuthHandler) generateToken(gateway, role string, expiresAt time.Time) (string, error) {
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   gateway,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
