// Package service holds the business layer between the HTTP handlers and the
// repositories.
//
//	Handler    → parses requests, writes responses
//	Service    → checks ids, logs business events, wraps errors
//	Repository → one SQL statement per call on a pooled connection
//
// Services take repository interfaces, so tests inject mocks and main.go
// chooses between the postgres and sqlite stores without this package
// importing either.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

// UserService handles users.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// List returns every user ordered by id. The result is never nil.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// GetByID returns apperror.ErrNotFound when no user has the id.
func (s *UserService) GetByID(ctx context.Context, id int32) (*model.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// not-found is a normal outcome, so only the caller decides whether to log
		return nil, err
	}
	return user, nil
}

// Create stores the user as given. Fields are not trimmed or checked for
// format; empty strings are valid values.
func (s *UserService) Create(ctx context.Context, nu model.NewUser) (*model.User, error) {
	user, err := s.repo.Create(ctx, nu)
	if err != nil {
		s.logger.Error("failed to create user",
			slog.String("name", nu.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int("id", int(user.ID)),
		slog.String("name", user.Name),
	)
	return user, nil
}

// checkID rejects ids that can never exist. Storage ids start at 1.
func checkID(id int32) error {
	if id <= 0 {
		return apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return nil
}
