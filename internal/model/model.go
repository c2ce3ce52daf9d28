package model

import "time"

// User is an account that owns contacts. Users are created through the
// register endpoint and are otherwise read-only for this service.
type User struct {
	ID           int64     `json:"id"       db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-"        db:"password_hash"`
	CreatedAt    time.Time `json:"-"        db:"created_at"`
}

// Contact is the data structure for a person in a user's address book.
// Every contact belongs to exactly one user, fixed at creation.
// Email and Birthdate are optional.
type Contact struct {
	ID        int64      `json:"id"                  db:"id"`
	FirstName string     `json:"firstName"           db:"firstname"`
	LastName  string     `json:"lastName"            db:"lastname"`
	Phone     string     `json:"phoneNumber"         db:"phone"`
	Email     *string    `json:"email,omitempty"     db:"email"`
	Birthdate *time.Time `json:"birthdate,omitempty" db:"birthdate"`
	UserID    int64      `json:"-"                   db:"user_id"`
}

// ContactPage is one slice of an owner's contacts plus aggregate counts.
type ContactPage struct {
	Contacts      []Contact `json:"contacts"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalElements int64     `json:"totalElements"`
}
