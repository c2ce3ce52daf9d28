package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/model"
)

// ContactStore reads and writes contact rows. All lookups by contact id
// carry the owner's user id in the same WHERE clause.
type ContactStore struct {
	db *sqlx.DB

	insert             *sqlx.NamedStmt
	selectAllByOwner   *sqlx.Stmt
	selectByOwnerAndID *sqlx.Stmt
	countByOwner       *sqlx.Stmt
	existsByOwnerAndID *sqlx.Stmt
}

// NewContactStore prepares the contact statements on the given database
// handle. Prepared statements offer a significant speed increase if executed
// many times.
func NewContactStore(db *sqlx.DB) (*ContactStore, error) {
	s := &ContactStore{db: db}
	var err error
	s.insert, err = db.PrepareNamed(`
		INSERT INTO contacts (firstname, lastname, phone, email, birthdate, user_id)
		VALUES (:firstname, :lastname, :phone, :email, :birthdate, :user_id)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare insert contact")
	}
	s.selectAllByOwner, err = db.Preparex(`
		SELECT * FROM contacts WHERE user_id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select contacts by owner")
	}
	s.selectByOwnerAndID, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select contact by owner and id")
	}
	s.countByOwner, err = db.Preparex(`
		SELECT COUNT(*) FROM contacts WHERE user_id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare count contacts by owner")
	}
	s.existsByOwnerAndID, err = db.Preparex(`
		SELECT EXISTS(SELECT 1 FROM contacts WHERE id = ? AND user_id = ?)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare contact existence check")
	}
	return s, nil
}

// Insert persists a new contact and returns it with the assigned id.
func (s *ContactStore) Insert(ctx context.Context, contact model.Contact) (model.Contact, error) {
	result, err := s.insert.ExecContext(ctx, &contact)
	if err != nil {
		return model.Contact{}, errors.Wrap(err, "insert contact")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, errors.Wrap(err, "last insert id")
	}
	contact.ID = id
	return contact, nil
}

// FindAllByOwner returns every contact of the given owner in store order.
func (s *ContactStore) FindAllByOwner(ctx context.Context, ownerID int64) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := s.selectAllByOwner.SelectContext(ctx, &contacts, ownerID); err != nil {
		return nil, errors.Wrap(err, "select contacts by owner")
	}
	return contacts, nil
}

// FindPageByOwner returns one slice of the owner's contacts sorted by the
// given column and direction, plus the owner's total contact count. The
// column and direction must already be validated against an allow-list;
// they are interpolated into the statement because MySQL placeholders
// cannot appear in an ORDER BY clause.
func (s *ContactStore) FindPageByOwner(ctx context.Context, ownerID int64, offset, limit int, sortColumn, direction string) ([]model.Contact, int64, error) {
	query := fmt.Sprintf(`
		SELECT *
		FROM contacts
		WHERE user_id = ?
		ORDER BY %s %s
		LIMIT ?
		OFFSET ?`, sortColumn, direction)
	var contacts []model.Contact
	if err := s.db.SelectContext(ctx, &contacts, query, ownerID, limit, offset); err != nil {
		return nil, 0, errors.Wrap(err, "select contact page by owner")
	}
	var total int64
	if err := s.countByOwner.GetContext(ctx, &total, ownerID); err != nil {
		return nil, 0, errors.Wrap(err, "count contacts by owner")
	}
	return contacts, total, nil
}

// FindOneByOwnerAndID returns the contact with the given id if it belongs to
// the given owner, and ErrContactNotFound otherwise.
func (s *ContactStore) FindOneByOwnerAndID(ctx context.Context, ownerID, contactID int64) (model.Contact, error) {
	var contacts []model.Contact
	if err := s.selectByOwnerAndID.SelectContext(ctx, &contacts, contactID, ownerID); err != nil {
		return model.Contact{}, errors.Wrap(err, "select contact by owner and id")
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrContactNotFound
	}
	return contacts[0], nil
}

// ExistsByOwnerAndID reports whether the given owner has a contact with the
// given id.
func (s *ContactStore) ExistsByOwnerAndID(ctx context.Context, ownerID, contactID int64) (bool, error) {
	var exists bool
	if err := s.existsByOwnerAndID.GetContext(ctx, &exists, contactID, ownerID); err != nil {
		return false, errors.Wrap(err, "contact existence check")
	}
	return exists, nil
}

// Update replaces all mutable fields of the given contact. The ownership
// check and the write run in one transaction so that a concurrent delete
// surfaces as ErrContactNotFound instead of a lost write. Row counts are not
// used for not-found detection because MySQL reports zero affected rows when
// an update rewrites identical values.
func (s *ContactStore) Update(ctx context.Context, contact model.Contact) (model.Contact, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Contact{}, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	var existing []model.Contact
	err = tx.SelectContext(ctx, &existing, `
		SELECT * FROM contacts WHERE id = ? AND user_id = ?
	`, contact.ID, contact.UserID)
	if err != nil {
		return model.Contact{}, errors.Wrap(err, "select contact for update")
	}
	if len(existing) == 0 {
		return model.Contact{}, ErrContactNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE contacts
		SET firstname = ?, lastname = ?, phone = ?, email = ?, birthdate = ?
		WHERE id = ? AND user_id = ?
	`, contact.FirstName, contact.LastName, contact.Phone, contact.Email,
		contact.Birthdate, contact.ID, contact.UserID)
	if err != nil {
		return model.Contact{}, errors.Wrap(err, "update contact")
	}
	if err := tx.Commit(); err != nil {
		return model.Contact{}, errors.Wrap(err, "commit update")
	}
	return contact, nil
}

// DeleteByOwnerAndID removes the contact with the given id if it belongs to
// the given owner. The existence check and the delete run in one
// transaction, and the delete predicate repeats the owner check so that a
// concurrent owner change cannot remove somebody else's contact.
func (s *ContactStore) DeleteByOwnerAndID(ctx context.Context, ownerID, contactID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM contacts WHERE id = ? AND user_id = ?)
	`, contactID, ownerID)
	if err != nil {
		return errors.Wrap(err, "contact existence check")
	}
	if !exists {
		return ErrContactNotFound
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM contacts WHERE id = ? AND user_id = ?
	`, contactID, ownerID)
	if err != nil {
		return errors.Wrap(err, "delete contact")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if rowsAffected == 0 {
		// Lost a race against a concurrent delete.
		return ErrContactNotFound
	}
	return errors.Wrap(tx.Commit(), "commit delete")
}
