package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/model"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/service"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// contactRequest is the request body for creating and updating a contact.
// Update is a full replace: every mutable field is taken from this body,
// missing optional fields become NULL.
type contactRequest struct {
	FirstName string     `json:"firstName"   binding:"required"`
	LastName  string     `json:"lastName"    binding:"required"`
	Phone     string     `json:"phoneNumber" binding:"required"`
	Email     *string    `json:"email"       binding:"omitempty,email"`
	Birthdate *time.Time `json:"birthdate"`
}

// bindContact binds and validates a contact body. On failure it aborts the
// request with BAD REQUEST and returns false.
func bindContact(c *gin.Context) (contactRequest, bool) {
	var req contactRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return contactRequest{}, false
	}
	if req.Birthdate != nil && !req.Birthdate.Before(time.Now()) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "birthdate must be in the past"})
		return contactRequest{}, false
	}
	return req, true
}

// toContact converts the request body to the model. Ownership and id are set
// by the service, never taken from the body.
func (r contactRequest) toContact() model.Contact {
	return model.Contact{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Email:     r.Email,
		Birthdate: r.Birthdate,
	}
}

// parseContactID reads the :id path parameter. A non-numeric id can never
// name a contact, so it answers NOT FOUND without reaching the database.
func parseContactID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// parsePageParams inspects the URL parameters of the page endpoint and
// determines page index, page size, sort key and direction, applying the
// documented defaults for whatever is omitted.
func parsePageParams(c *gin.Context) (page int, size int, sortBy string, direction string, success bool) {
	page, size = 0, service.DefaultPageSize
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid page parameter"})
			return 0, 0, "", "", false
		}
		page = n
	}
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid size parameter"})
			return 0, 0, "", "", false
		}
		size = n
	}
	sortBy = c.DefaultQuery("sortBy", service.DefaultSortKey)
	direction = c.DefaultQuery("direction", "asc")
	return page, size, sortBy, direction, true
}

// renderError translates a service or store error into an HTTP response.
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrContactNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	case errors.Is(err, service.ErrInvalidSortKey):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid sortBy parameter"})
	case errors.Is(err, store.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "user record missing"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// createContact inserts the contact specified in the request's JSON for the
// authenticated owner. It responds with the full contact data including the
// newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"firstName": "Hans", "lastName": "Wurst", "phoneNumber": "0815", "email": "hans@example.com", "birthdate": "1969-03-02T00:00:00Z"}'
func (s *Server) createContact(c *gin.Context) {
	req, ok := bindContact(c)
	if !ok {
		return
	}
	contact, err := s.contacts.Create(c.Request.Context(), currentOwner(c).ID, req.toContact())
	if err != nil {
		renderError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// listContacts responds with all contacts of the authenticated owner as
// JSON, in store order.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --header "Authorization: Bearer $TOKEN"
func (s *Server) listContacts(c *gin.Context) {
	contacts, err := s.contacts.ListAll(c.Request.Context(), currentOwner(c).ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// listContactsPage responds with one page of the authenticated owner's
// contacts plus pagination metadata.
//
// The URL parameter 'page' is the zero-based page index (default 0), 'size'
// the page length (default 10) and 'sortBy' the contact field to sort by
// (default 'firstName'). Valid values for 'sortBy' are 'id', 'firstName',
// 'lastName', 'phoneNumber', 'email' and 'birthdate'. If the URL parameter
// 'direction' equals 'desc' in any casing, the sort order is reversed; any
// other value sorts ascending.
//
// Example REST API calls:
//
//	> curl "http://localhost:8080/api/contacts/page" --header "Authorization: Bearer $TOKEN"
//	> curl "http://localhost:8080/api/contacts/page?page=2&size=20" --header "Authorization: Bearer $TOKEN"
//	> curl "http://localhost:8080/api/contacts/page?sortBy=lastName&direction=desc" --header "Authorization: Bearer $TOKEN"
func (s *Server) listContactsPage(c *gin.Context) {
	page, size, sortBy, direction, ok := parsePageParams(c)
	if !ok {
		return
	}
	result, err := s.contacts.ListPage(c.Request.Context(), currentOwner(c).ID, page, size, sortBy, direction)
	if err != nil {
		renderError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}

// findContactByID locates the authenticated owner's contact whose ID matches
// the id parameter of the request URL, then returns that contact as a
// response. A contact belonging to another user answers NOT FOUND, exactly
// like a contact that does not exist.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --header "Authorization: Bearer $TOKEN"
func (s *Server) findContactByID(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	contact, err := s.contacts.Get(c.Request.Context(), currentOwner(c).ID, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces all mutable fields of the contact whose ID
// matches the id parameter of the request URL with the values in the JSON
// body, and responds with the new version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"firstName": "Hans", "lastName": "Wurst", "phoneNumber": "81970"}'
func (s *Server) updateContactByID(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	req, ok := bindContact(c)
	if !ok {
		return
	}
	contact, err := s.contacts.Update(c.Request.Context(), currentOwner(c).ID, id, req.toContact())
	if err != nil {
		renderError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the authenticated owner's contact whose ID
// matches the id parameter of the request URL.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "DELETE" --header "Authorization: Bearer $TOKEN"
func (s *Server) deleteContactByID(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	if err := s.contacts.Delete(c.Request.Context(), currentOwner(c).ID, id); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
