// Package model defines the data structures used throughout the application.
//
// Each entity has two shapes: the stored row (User, Deck, Card), which is
// also what the API returns, and the insert shape (NewUser, NewDeck, NewCard)
// carrying every column except the storage-assigned id.
//
// The `db` tags name the columns so pgx can scan rows by name.
package model

// User is a registered learner.
type User struct {
	ID    int32  `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"`
	First string `json:"first" db:"first"`
	Last  string `json:"last"  db:"last"`
	Email string `json:"email" db:"email"`
}

// NewUser holds the columns supplied by the caller on create.
type NewUser struct {
	Name  string
	First string
	Last  string
	Email string
}
