package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	RoleGateway = "gateway"
	RoleAdmin   = "admin"
)

// Claims identify the calling gateway process.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if claims.Subject == "" || (claims.Role != RoleGateway && claims.Role != RoleAdmin) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set("gateway", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("gateway"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Gateway not authenticated"})
			c.Abort()
			return
		}

		if c.GetString("role") != RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// RateLimiter keeps one token bucket per requester. Buckets idle for
// longer than the idle window are evicted by Cleanup.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now().UnixNano()

	rl.mu.RLock()
	v, ok := rl.limiters[key]
	rl.mu.RUnlock()
	if ok {
		v.lastSeen.Store(now)
		return v.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if v, ok := rl.limiters[key]; ok {
		v.lastSeen.Store(now)
		return v.limiter
	}
	v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
	v.lastSeen.Store(now)
	rl.limiters[key] = v
	return v.limiter
}

// Sweep drops buckets not used within idle and returns how many were removed.
func (rl *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := rl.now().Add(-idle).UnixNano()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, v := range rl.limiters {
		if v.lastSeen.Load() < cutoff {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked requesters.
func (rl *RateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

// Cleanup sweeps idle buckets every interval until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep(idle)
		}
	}
}

// Middleware limits by the :id route parameter (the chat user) and falls
// back to the client IP for routes without one. A non-positive rate disables limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if id := c.Param("id"); id != "" {
			key = "user:" + id
		}

		if !rl.limiter(key).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "retryable": true})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"gateway":  c.GetString("gateway"),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("request failed")
		default:
			entry.Debug("request")
		}
	}
}
