package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/auth"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// Owner is the resolved identity of the authenticated caller. It is built
// once per request by the auth middleware; handlers and the service layer
// only ever see the resolved id, never the raw username or token.
type Owner struct {
	ID       int64
	Username string
}

// ownerKey is the gin context key under which the resolved Owner is stored.
const ownerKey = "owner"

// requireAuth verifies the bearer token and resolves its username to the
// owner id that all contact operations are scoped by. A valid token whose
// user row is missing is a backend inconsistency, not a client error.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	username, err := auth.ParseToken(s.jwtSecret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	ownerID, err := s.resolver.Resolve(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "user record missing"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		}
		return
	}

	c.Set(ownerKey, Owner{ID: ownerID, Username: username})
	c.Next()
}

// currentOwner returns the Owner stored by requireAuth. It panics if called
// on a route that is not behind the middleware.
func currentOwner(c *gin.Context) Owner {
	return c.MustGet(ownerKey).(Owner)
}
