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

var _ repository.CardRepository = (*CardDB)(nil)

const cardColumns = `id, user_id, deck_id, "from", "to", example, audio_url,
	seen_at, seen_for, rating, prev_rating, related`

// CardDB maps cards.related (INTEGER[]) straight onto []int32.
type CardDB struct {
	db *DB
}

func (cd *CardDB) List(ctx context.Context) ([]model.Card, error) {
	var cards []model.Card

	err := cd.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY id`)
		if err != nil {
			return err
		}
		cards, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Card])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: listing cards: %w", err)
	}

	if cards == nil {
		cards = []model.Card{}
	}
	return cards, nil
}

func (cd *CardDB) GetByID(ctx context.Context, id int32) (*model.Card, error) {
	var card *model.Card

	err := cd.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
		if err != nil {
			return err
		}
		card, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Card])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("card", id)
		}
		return nil, fmt.Errorf("postgres: getting card %d: %w", id, err)
	}

	return card, nil
}

func (cd *CardDB) Create(ctx context.Context, nc model.NewCard) (*model.Card, error) {
	// a nil slice would be sent as NULL
	related := nc.Related
	if related == nil {
		related = []int32{}
	}

	var card *model.Card
	err := cd.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx,
			`INSERT INTO cards (user_id, deck_id, "from", "to", example, audio_url,
			                    seen_at, seen_for, rating, prev_rating, related)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING `+cardColumns,
			nc.UserID, nc.DeckID, nc.From, nc.To, nc.Example, nc.AudioURL,
			model.NewTimestamp(nc.SeenAt.Time).Time, nc.SeenFor, nc.Rating, nc.PrevRating, related,
		)
		if err != nil {
			return err
		}
		card, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Card])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: creating card: %w", classify("card", err))
	}

	return card, nil
}
