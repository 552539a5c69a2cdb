package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/model"
)

func newTestCard(userID, deckID int32) model.NewCard {
	return model.NewCard{
		UserID:     userID,
		DeckID:     deckID,
		From:       "dog",
		To:         "Hund",
		Example:    "the dog barks",
		AudioURL:   "https://cdn.example.com/hund.mp3",
		SeenAt:     testSeenAt,
		SeenFor:    1500,
		Rating:     3,
		PrevRating: 2,
		Related:    []int32{1, 2},
	}
}

// =========================================================================
// CARD TESTS
// =========================================================================

func TestCardCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ann")
	deck := createTestDeck(t, db, user.ID)
	in := newTestCard(user.ID, deck.ID)

	card, err := db.Cards().Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if card.ID != 1 {
		t.Errorf("ID = %d, want 1", card.ID)
	}
	if card.From != in.From || card.To != in.To || card.Example != in.Example || card.AudioURL != in.AudioURL {
		t.Errorf("text fields = %+v", *card)
	}
	if card.SeenFor != 1500 || card.Rating != 3 || card.PrevRating != 2 {
		t.Errorf("numeric fields = %+v", *card)
	}
	if !reflect.DeepEqual(card.Related, []int32{1, 2}) {
		t.Errorf("Related = %v, want [1 2]", card.Related)
	}
	if !card.SeenAt.Equal(testSeenAt.Time) {
		t.Errorf("SeenAt = %v, want %v", card.SeenAt, testSeenAt)
	}
}

func TestCardCreate_RelatedOrderKept(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ann")
	deck := createTestDeck(t, db, user.ID)
	in := newTestCard(user.ID, deck.ID)
	in.Related = []int32{9, 3, 9, 1}

	created, err := db.Cards().Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.Cards().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !reflect.DeepEqual(got.Related, []int32{9, 3, 9, 1}) {
		t.Errorf("Related = %v, want [9 3 9 1]", got.Related)
	}
}

func TestCardCreate_NilRelated(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ann")
	deck := createTestDeck(t, db, user.ID)
	in := newTestCard(user.ID, deck.ID)
	in.Related = nil

	card, err := db.Cards().Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if card.Related == nil || len(card.Related) != 0 {
		t.Errorf("Related = %#v, want empty non-nil slice", card.Related)
	}
}

func TestCardCreate_UnknownDeck(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ann")

	_, err := db.Cards().Create(context.Background(), newTestCard(user.ID, 99))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
}

func TestCardGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Cards().GetByID(context.Background(), 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestCardList(t *testing.T) {
	db := newTestDB(t)

	cards, err := db.Cards().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Fatalf("List() on empty table = %#v, want empty slice", cards)
	}

	user := createTestUser(t, db, "ann")
	deck := createTestDeck(t, db, user.ID)
	for i := 0; i < 3; i++ {
		if _, err := db.Cards().Create(context.Background(), newTestCard(user.ID, deck.ID)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	cards, err = db.Cards().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("List() returned %d cards, want 3", len(cards))
	}
}
