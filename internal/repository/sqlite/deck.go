package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

var _ repository.DeckRepository = (*DeckDB)(nil)

const deckColumns = `id, user_id, "from", "to", seen_at`

// DeckDB runs deck queries on the pool owned by DB.
type DeckDB struct {
	db *DB
}

func (d *DeckDB) List(ctx context.Context) ([]model.Deck, error) {
	decks := []model.Deck{}

	err := d.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		rows, err := c.QueryContext(ctx, `SELECT `+deckColumns+` FROM decks ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			deck, err := scanDeck(rows)
			if err != nil {
				return err
			}
			decks = append(decks, *deck)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing decks: %w", err)
	}

	return decks, nil
}

func (d *DeckDB) GetByID(ctx context.Context, id int32) (*model.Deck, error) {
	var deck *model.Deck

	err := d.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		var err error
		deck, err = scanDeck(c.QueryRowContext(ctx,
			`SELECT `+deckColumns+` FROM decks WHERE id = ?`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("deck", id)
		}
		return nil, fmt.Errorf("sqlite: getting deck %d: %w", id, err)
	}

	return deck, nil
}

func (d *DeckDB) Create(ctx context.Context, nd model.NewDeck) (*model.Deck, error) {
	var deck *model.Deck

	err := d.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		var err error
		deck, err = scanDeck(c.QueryRowContext(ctx,
			`INSERT INTO decks (user_id, "from", "to", seen_at)
			 VALUES (?, ?, ?, ?)
			 RETURNING `+deckColumns,
			nd.UserID, nd.From, nd.To, formatTime(nd.SeenAt),
		))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating deck: %w", classify("deck", err))
	}

	return deck, nil
}

func scanDeck(row scanner) (*model.Deck, error) {
	var d model.Deck
	if err := row.Scan(&d.ID, &d.UserID, &d.From, &d.To, &d.SeenAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// formatTime renders timestamps as RFC 3339 text in UTC at microsecond
// precision, which sorts lexically in time order.
func formatTime(ts model.Timestamp) string {
	return model.NewTimestamp(ts.Time).Format(time.RFC3339Nano)
}
