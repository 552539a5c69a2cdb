package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

// CardService handles cards. Related ids are stored as given: they are not
// checked against existing cards and keep their order and duplicates.
type CardService struct {
	repo   repository.CardRepository
	logger *slog.Logger
}

func NewCardService(repo repository.CardRepository, logger *slog.Logger) *CardService {
	return &CardService{repo: repo, logger: logger}
}

func (s *CardService) List(ctx context.Context) ([]model.Card, error) {
	cards, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list cards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	return cards, nil
}

func (s *CardService) GetByID(ctx context.Context, id int32) (*model.Card, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *CardService) Create(ctx context.Context, nc model.NewCard) (*model.Card, error) {
	card, err := s.repo.Create(ctx, nc)
	if err != nil {
		s.logger.Error("failed to create card",
			slog.Int("user_id", int(nc.UserID)),
			slog.Int("deck_id", int(nc.DeckID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating card: %w", err)
	}

	s.logger.Info("card created",
		slog.Int("id", int(card.ID)),
		slog.Int("deck_id", int(card.DeckID)),
	)
	return card, nil
}
