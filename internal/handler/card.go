package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/glencoden/cards-api/internal/model"
)

type CardService interface {
	List(ctx context.Context) ([]model.Card, error)
	GetByID(ctx context.Context, id int32) (*model.Card, error)
	Create(ctx context.Context, nc model.NewCard) (*model.Card, error)
}

// CardHandler serves /cards.
type CardHandler struct {
	svc    CardService
	logger *slog.Logger
}

func NewCardHandler(svc CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{svc: svc, logger: logger}
}

func (h *CardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []model.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	card, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleCreate requires every card field, related included ([] is fine).
func (h *CardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid card request", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	card, err := h.svc.Create(r.Context(), req.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
