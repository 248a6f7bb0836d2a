package httpserver

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

const customerHeader = "X-Customer-ID"

// adminMiddleware requires the configured bearer token. With no token
// configured every request is refused.
func adminMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(c, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func isAdmin(c *gin.Context, token string) bool {
	if token == "" {
		return false
	}
	got := bearerToken(c.GetHeader("Authorization"))
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func customerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(customerHeader))
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// writeError maps domain errors onto collection API statuses.
func writeError(c *gin.Context, logger *log.Logger, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	default:
		logger.Printf("httpserver: %s error=%v", op, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
