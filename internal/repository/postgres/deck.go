package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

var _ repository.DeckRepository = (*DeckDB)(nil)

const deckColumns = `id, user_id, "from", "to", seen_at`

type DeckDB struct {
	db *DB
}

func (d *DeckDB) List(ctx context.Context) ([]model.Deck, error) {
	var decks []model.Deck

	err := d.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, `SELECT `+deckColumns+` FROM decks ORDER BY id`)
		if err != nil {
			return err
		}
		decks, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Deck])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: listing decks: %w", err)
	}

	if decks == nil {
		decks = []model.Deck{}
	}
	return decks, nil
}

func (d *DeckDB) GetByID(ctx context.Context, id int32) (*model.Deck, error) {
	var deck *model.Deck

	err := d.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deck, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Deck])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("deck", id)
		}
		return nil, fmt.Errorf("postgres: getting deck %d: %w", id, err)
	}

	return deck, nil
}

// Create stores a deck. seen_at is a TIMESTAMP without zone, so the UTC wall
// clock is what gets written.
func (d *DeckDB) Create(ctx context.Context, nd model.NewDeck) (*model.Deck, error) {
	var deck *model.Deck

	err := d.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx,
			`INSERT INTO decks (user_id, "from", "to", seen_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+deckColumns,
			nd.UserID, nd.From, nd.To, model.NewTimestamp(nd.SeenAt.Time).Time,
		)
		if err != nil {
			return err
		}
		deck, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Deck])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: creating deck: %w", classify("deck", err))
	}

	return deck, nil
}
