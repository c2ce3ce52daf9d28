// Package api exposes the contact service over HTTP. It binds and validates
// request bodies, resolves the authenticated owner once per request, and
// translates the service's error taxonomy into status codes.
package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/service"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// Server wires the HTTP handlers to the service layer.
type Server struct {
	users     *store.UserStore
	resolver  *service.OwnerResolver
	contacts  *service.ContactService
	jwtSecret string
	tokenTTL  time.Duration
}

// NewServer returns a server issuing tokens with the given secret and TTL.
func NewServer(users *store.UserStore, resolver *service.OwnerResolver, contacts *service.ContactService, jwtSecret string, tokenTTL time.Duration) *Server {
	return &Server{
		users:     users,
		resolver:  resolver,
		contacts:  contacts,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Router initializes the REST API router and registers all endpoints.
func (s *Server) Router() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}

	router.GET("/health", health)

	router.POST("/api/auth/register", s.register)
	router.POST("/api/auth/login", s.login)

	contacts := router.Group("/api/contacts", s.requireAuth)
	contacts.POST("", s.createContact)
	contacts.GET("", s.listContacts)
	contacts.GET("/page", s.listContactsPage)
	contacts.GET("/:id", s.findContactByID)
	contacts.PUT("/:id", s.updateContactByID)
	contacts.DELETE("/:id", s.deleteContactByID)

	return router
}

// health responds OK without touching the database, for readiness polling.
func health(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
}
