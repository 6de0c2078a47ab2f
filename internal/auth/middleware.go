package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextKeyUsername = "auth_username"

// UsernameFromContext returns the user set by RequireBasicAuth. "" if not set.
func UsernameFromContext(c *gin.Context) string {
	return c.GetString(contextKeyUsername)
}

// RequireBasicAuth returns a middleware that checks HTTP basic credentials
// and sets the username in context. Missing or wrong credentials get a 401
// with a WWW-Authenticate challenge so browsers prompt for a login.
func RequireBasicAuth(a Authenticator, realm string, logger *zap.Logger) gin.HandlerFunc {
	challenge := "Basic realm=" + strconv.Quote(realm)
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c, challenge)
			return
		}
		valid, err := a.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			logger.Error("authentication check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
			return
		}
		if !valid {
			logger.Info("rejected credentials", zap.String("username", username), zap.String("path", c.Request.URL.Path))
			unauthorized(c, challenge)
			return
		}
		c.Set(contextKeyUsername, username)
		c.Next()
	}
}

func unauthorized(c *gin.Context, challenge string) {
	c.Header("WWW-Authenticate", challenge)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}
