// Package store contains the MySQL persistence layer. Every contact query
// that takes a contact id also takes the owner's user id in the same
// predicate, so a contact belonging to another user is indistinguishable
// from one that does not exist.
package store

import (
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Open connects to the MySQL database behind the given DSN and verifies the
// connection with a ping.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}
	return db, nil
}
