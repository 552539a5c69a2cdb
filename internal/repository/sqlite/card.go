package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

var _ repository.CardRepository = (*CardDB)(nil)

const cardColumns = `id, user_id, deck_id, "from", "to", example, audio_url,
	seen_at, seen_for, rating, prev_rating, related`

// CardDB runs card queries on the pool owned by DB.
//
// SQLite has no array type, so related is stored as a JSON array in a TEXT
// column and decoded on the way out.
type CardDB struct {
	db *DB
}

func (cd *CardDB) List(ctx context.Context) ([]model.Card, error) {
	cards := []model.Card{}

	err := cd.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		rows, err := c.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			card, err := scanCard(rows)
			if err != nil {
				return err
			}
			cards = append(cards, *card)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cards: %w", err)
	}

	return cards, nil
}

func (cd *CardDB) GetByID(ctx context.Context, id int32) (*model.Card, error) {
	var card *model.Card

	err := cd.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		var err error
		card, err = scanCard(c.QueryRowContext(ctx,
			`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("card", id)
		}
		return nil, fmt.Errorf("sqlite: getting card %d: %w", id, err)
	}

	return card, nil
}

func (cd *CardDB) Create(ctx context.Context, nc model.NewCard) (*model.Card, error) {
	related := nc.Related
	if related == nil {
		related = []int32{}
	}
	relatedJSON, err := json.Marshal(related)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encoding related ids: %w", err)
	}

	var card *model.Card
	err = cd.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		var err error
		card, err = scanCard(c.QueryRowContext(ctx,
			`INSERT INTO cards (user_id, deck_id, "from", "to", example, audio_url,
			                    seen_at, seen_for, rating, prev_rating, related)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 RETURNING `+cardColumns,
			nc.UserID, nc.DeckID, nc.From, nc.To, nc.Example, nc.AudioURL,
			formatTime(nc.SeenAt), nc.SeenFor, nc.Rating, nc.PrevRating, string(relatedJSON),
		))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating card: %w", classify("card", err))
	}

	return card, nil
}

func scanCard(row scanner) (*model.Card, error) {
	var (
		c       model.Card
		related string
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.DeckID, &c.From, &c.To, &c.Example, &c.AudioURL,
		&c.SeenAt, &c.SeenFor, &c.Rating, &c.PrevRating, &related,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(related), &c.Related); err != nil {
		return nil, fmt.Errorf("decoding related ids of card %d: %w", c.ID, err)
	}
	if c.Related == nil {
		c.Related = []int32{}
	}

	return &c, nil
}
