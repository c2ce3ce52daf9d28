// Package service implements the owner-scoped contact operations. Every
// operation takes an owner id that has already been resolved from the
// authenticated caller; usernames never reach this package.
package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/model"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

// DefaultPageSize is the page length used when the caller does not ask for
// one.
const DefaultPageSize = 10

// DefaultSortKey is the sort key used when the caller does not ask for one.
const DefaultSortKey = "firstName"

// ErrInvalidSortKey means a page request named a sort key that is not a
// contact field. This is a client input error.
var ErrInvalidSortKey = errors.New("invalid sort key")

// sortColumns maps the sort keys accepted from callers to the columns they
// sort by. Only values from this map may ever reach an ORDER BY clause.
var sortColumns = map[string]string{
	"id":          "id",
	"firstName":   "firstname",
	"lastName":    "lastname",
	"phoneNumber": "phone",
	"email":       "email",
	"birthdate":   "birthdate",
}

// OwnerResolver maps an authenticated username to the durable user id that
// contacts are scoped by.
type OwnerResolver struct {
	users *store.UserStore
}

// NewOwnerResolver returns a resolver backed by the given user store.
func NewOwnerResolver(users *store.UserStore) *OwnerResolver {
	return &OwnerResolver{users: users}
}

// Resolve returns the user id for the given username. The caller was already
// authenticated, so store.ErrUserNotFound here means the identity provider
// and the user store disagree and must be treated as a server fault.
func (r *OwnerResolver) Resolve(ctx context.Context, username string) (int64, error) {
	user, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// ContactService performs contact operations for a single resolved owner per
// call. It never acts on a contact whose owner differs from the caller's.
type ContactService struct {
	contacts *store.ContactStore
}

// NewContactService returns a service backed by the given contact store.
func NewContactService(contacts *store.ContactStore) *ContactService {
	return &ContactService{contacts: contacts}
}

// Create persists a new contact for the given owner and returns it with the
// assigned id. Field validation happens at the transport edge.
func (s *ContactService) Create(ctx context.Context, ownerID int64, contact model.Contact) (model.Contact, error) {
	contact.ID = 0
	contact.UserID = ownerID
	return s.contacts.Insert(ctx, contact)
}

// ListAll returns every contact of the given owner in store order.
func (s *ContactService) ListAll(ctx context.Context, ownerID int64) ([]model.Contact, error) {
	contacts, err := s.contacts.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, nil
}

// ListPage returns the requested page of the owner's contacts sorted by
// sortBy. Any direction other than "desc" (case-insensitive) sorts
// ascending. A page index past the end yields an empty page with the
// aggregate counts still filled in.
func (s *ContactService) ListPage(ctx context.Context, ownerID int64, page, size int, sortBy, direction string) (model.ContactPage, error) {
	if size < 1 {
		size = DefaultPageSize
	}
	if sortBy == "" {
		sortBy = DefaultSortKey
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return model.ContactPage{}, ErrInvalidSortKey
	}
	order := "ASC"
	if strings.EqualFold(direction, "desc") {
		order = "DESC"
	}

	contacts, total, err := s.contacts.FindPageByOwner(ctx, ownerID, page*size, size, column, order)
	if err != nil {
		return model.ContactPage{}, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return model.ContactPage{
		Contacts:      contacts,
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalElements: total,
	}, nil
}

// Get returns the owner's contact with the given id, or
// store.ErrContactNotFound. The lookup filters by id and owner in a single
// predicate, so a contact owned by somebody else looks exactly like a
// missing one.
func (s *ContactService) Get(ctx context.Context, ownerID, contactID int64) (model.Contact, error) {
	return s.contacts.FindOneByOwnerAndID(ctx, ownerID, contactID)
}

// Update replaces all mutable fields of the owner's contact with the given
// values and returns the stored result. The id and owner of the contact
// never change. Not-found semantics match Get.
func (s *ContactService) Update(ctx context.Context, ownerID, contactID int64, contact model.Contact) (model.Contact, error) {
	contact.ID = contactID
	contact.UserID = ownerID
	return s.contacts.Update(ctx, contact)
}

// Delete removes the owner's contact with the given id, or returns
// store.ErrContactNotFound. Deleting an already deleted contact yields the
// same error as any other missing contact.
func (s *ContactService) Delete(ctx context.Context, ownerID, contactID int64) error {
	return s.contacts.DeleteByOwnerAndID(ctx, ownerID, contactID)
}
