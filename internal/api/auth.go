package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/auth"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/model"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// credentials is the request body of both auth endpoints.
type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// register creates a new user account.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/auth/register --request "POST" --include --header "Content-Type: application/json" --data '{"username": "alice", "password": "wonderland"}'
func (s *Server) register(c *gin.Context) {
	var creds credentials
	if err := c.BindJSON(&creds); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	user, err := s.users.Insert(c.Request.Context(), model.User{
		Username:     creds.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "username already taken"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		}
		return
	}
	c.IndentedJSON(http.StatusCreated, user)
}

// login verifies a username/password pair and responds with a bearer token.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/auth/login --request "POST" --include --header "Content-Type: application/json" --data '{"username": "alice", "password": "wonderland"}'
func (s *Server) login(c *gin.Context) {
	var creds credentials
	if err := c.BindJSON(&creds); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	user, err := s.users.FindByUsername(c.Request.Context(), creds.Username)
	if err != nil {
		// An unknown username answers exactly like a wrong password.
		if errors.Is(err, store.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		}
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, creds.Password) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	token, err := auth.SignToken(s.jwtSecret, user.Username, s.tokenTTL)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"token": token})
}
