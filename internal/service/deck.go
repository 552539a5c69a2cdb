package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

type DeckService struct {
	repo   repository.DeckRepository
	logger *slog.Logger
}

func NewDeckService(repo repository.DeckRepository, logger *slog.Logger) *DeckService {
	return &DeckService{repo: repo, logger: logger}
}

func (s *DeckService) List(ctx context.Context) ([]model.Deck, error) {
	decks, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list decks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing decks: %w", err)
	}
	return decks, nil
}

func (s *DeckService) GetByID(ctx context.Context, id int32) (*model.Deck, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create stores a deck. A user_id that names no user is rejected by the
// storage foreign key and surfaces as a validation error.
func (s *DeckService) Create(ctx context.Context, nd model.NewDeck) (*model.Deck, error) {
	deck, err := s.repo.Create(ctx, nd)
	if err != nil {
		s.logger.Error("failed to create deck",
			slog.Int("user_id", int(nd.UserID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating deck: %w", err)
	}

	s.logger.Info("deck created",
		slog.Int("id", int(deck.ID)),
		slog.Int("user_id", int(deck.UserID)),
	)
	return deck, nil
}
