package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"matchbot-server/internal/repository"
	"matchbot-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps service and store errors onto HTTP status codes.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		log.WithError(err).WithField("path", c.FullPath()).Warn("store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable", "retryable": true})
	case errors.Is(err, services.ErrMediaUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": false})
	case errors.Is(err, services.ErrProfileNotFound), errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidProfile),
		errors.Is(err, services.ErrSelfLike),
		errors.Is(err, services.ErrInvalidComplaint),
		errors.Is(err, services.ErrMediaLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPaymentTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// idParam parses a positive chat user id from the named route parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}
