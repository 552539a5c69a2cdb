package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/glencoden/cards-api/internal/model"
)

type DeckService interface {
	List(ctx context.Context) ([]model.Deck, error)
	GetByID(ctx context.Context, id int32) (*model.Deck, error)
	Create(ctx context.Context, nd model.NewDeck) (*model.Deck, error)
}

// DeckHandler serves /decks.
type DeckHandler struct {
	svc    DeckService
	logger *slog.Logger
}

func NewDeckHandler(svc DeckService, logger *slog.Logger) *DeckHandler {
	return &DeckHandler{svc: svc, logger: logger}
}

func (h *DeckHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	decks, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if decks == nil {
		decks = []model.Deck{}
	}
	writeJSON(w, http.StatusOK, decks)
}

func (h *DeckHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deck, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// HandleCreate expects {"user_id", "from", "to", "seen_at"}; seen_at is an
// ISO timestamp without zone, read as UTC.
func (h *DeckHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid deck request", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	deck, err := h.svc.Create(r.Context(), req.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}
