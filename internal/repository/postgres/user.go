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

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, name, first, last, email`

type UserDB struct {
	db *DB
}

// List returns all users ordered by id.
func (u *UserDB) List(ctx context.Context) ([]model.User, error) {
	var users []model.User

	err := u.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
		if err != nil {
			return err
		}
		users, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}

	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (u *UserDB) GetByID(ctx context.Context, id int32) (*model.User, error) {
	var user *model.User

	err := u.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		user, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}

	return user, nil
}

func (u *UserDB) Create(ctx context.Context, nu model.NewUser) (*model.User, error) {
	var user *model.User

	err := u.db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		rows, err := c.Query(ctx,
			`INSERT INTO users (name, first, last, email)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+userColumns,
			nu.Name, nu.First, nu.Last, nu.Email,
		)
		if err != nil {
			return err
		}
		user, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: creating user: %w", classify("user", err))
	}

	return user, nil
}
