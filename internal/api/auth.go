package api

import (
	"regexp"
	"strings"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/service"
	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

var bearerPattern = regexp.MustCompile(`(?i)^\s*Bearer\s+(\S+)\s*$`)

// bearerToken extracts the session token from the Authorization header. It
// returns an empty token when the header is absent and an error when the
// header is present but not a bearer credential.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if strings.TrimSpace(header) == "" {
		return "", nil
	}
	m := bearerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", service.ErrUnauthenticated("malformed authorization header")
	}
	return m[1], nil
}

// requireUser rejects requests without a valid session token and stores the
// authenticated user on the context
func requireUser(identity service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := identity.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// currentUser returns the user stored by requireUser
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
