// Package repository declares the storage contracts used by the service layer.
// Implementations live in the postgres and sqlite subpackages; both execute
// each operation as one statement on one pooled connection.
package repository

import (
	"context"

	"github.com/glencoden/cards-api/internal/model"
)

// UserRepository persists users.
//
// List returns every row ordered by id (no pagination). GetByID returns an
// apperror.ErrNotFound error when the id is absent. Create returns the stored
// row, including the generated id, from the INSERT itself.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id int32) (*model.User, error)
	Create(ctx context.Context, user model.NewUser) (*model.User, error)
}

// DeckRepository persists decks. Same contract as UserRepository.
type DeckRepository interface {
	List(ctx context.Context) ([]model.Deck, error)
	GetByID(ctx context.Context, id int32) (*model.Deck, error)
	Create(ctx context.Context, deck model.NewDeck) (*model.Deck, error)
}

// CardRepository persists cards. Same contract as UserRepository.
type CardRepository interface {
	List(ctx context.Context) ([]model.Card, error)
	GetByID(ctx context.Context, id int32) (*model.Card, error)
	Create(ctx context.Context, card model.NewCard) (*model.Card, error)
}

// Store owns one connection pool and exposes the per-entity repositories
// backed by it.
type Store interface {
	Users() UserRepository
	Decks() DeckRepository
	Cards() CardRepository
	// Ping checks that a connection can be acquired and used.
	Ping(ctx context.Context) error
	// Close releases every pooled connection.
	Close() error
}
