package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, name, first, last, email`

// UserDB runs user queries on the pool owned by DB.
type UserDB struct {
	db *DB
}

// List returns every user ordered by id.
func (u *UserDB) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}

	err := u.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		rows, err := c.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
		if err != nil {
			return err
		}
		// rows holds the connection until closed
		defer rows.Close()

		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, *user)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}

	return users, nil
}

// GetByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (u *UserDB) GetByID(ctx context.Context, id int32) (*model.User, error) {
	var user *model.User

	err := u.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		var err error
		user, err = scanUser(c.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	return user, nil
}

// Create inserts a user and returns the stored row. RETURNING reads the
// generated id from the same statement, so concurrent inserts never observe
// each other's rows.
func (u *UserDB) Create(ctx context.Context, nu model.NewUser) (*model.User, error) {
	var user *model.User

	err := u.db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		var err error
		user, err = scanUser(c.QueryRowContext(ctx,
			`INSERT INTO users (name, first, last, email)
			 VALUES (?, ?, ?, ?)
			 RETURNING `+userColumns,
			nu.Name, nu.First, nu.Last, nu.Email,
		))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating user: %w", classify("user", err))
	}

	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.First, &u.Last, &u.Email); err != nil {
		return nil, err
	}
	return &u, nil
}
