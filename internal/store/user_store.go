package store

import (
	"context"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// UserStore reads and creates user rows.
type UserStore struct {
	db *sqlx.DB

	selectByUsername *sqlx.Stmt
	insert           *sqlx.NamedStmt
}

// NewUserStore prepares the user statements on the given database handle.
// Prepared statements offer a significant speed increase if executed many
// times.
func NewUserStore(db *sqlx.DB) (*UserStore, error) {
	s := &UserStore{db: db}
	var err error
	s.selectByUsername, err = db.Preparex(`
		SELECT * FROM users WHERE username = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select user by username")
	}
	s.insert, err = db.PrepareNamed(`
		INSERT INTO users (username, password_hash)
		VALUES (:username, :password_hash)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare insert user")
	}
	return s, nil
}

// FindByUsername returns the user with the given username or ErrUserNotFound.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var users []model.User
	if err := s.selectByUsername.SelectContext(ctx, &users, username); err != nil {
		return model.User{}, errors.Wrap(err, "select user by username")
	}
	if len(users) == 0 {
		return model.User{}, ErrUserNotFound
	}
	return users[0], nil
}

// Insert persists a new user and returns it with the assigned id. A username
// collision yields ErrUsernameTaken.
func (s *UserStore) Insert(ctx context.Context, user model.User) (model.User, error) {
	result, err := s.insert.ExecContext(ctx, &user)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, errors.Wrap(err, "insert user")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.User{}, errors.Wrap(err, "last insert id")
	}
	user.ID = id
	return user, nil
}
