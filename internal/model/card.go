package model

// Card is a single flashcard together with its review state.
//
// Rating, PrevRating, SeenAt and SeenFor are stored exactly as the client
// sends them; nothing here computes a schedule.
type Card struct {
	ID         int32     `json:"id"          db:"id"`
	UserID     int32     `json:"user_id"     db:"user_id"`
	DeckID     int32     `json:"deck_id"     db:"deck_id"`
	From       string    `json:"from"        db:"from"`
	To         string    `json:"to"          db:"to"`
	Example    string    `json:"example"     db:"example"`
	AudioURL   string    `json:"audio_url"   db:"audio_url"`
	SeenAt     Timestamp `json:"seen_at"     db:"seen_at"`
	SeenFor    int32     `json:"seen_for"    db:"seen_for"` // milliseconds
	Rating     int32     `json:"rating"      db:"rating"`
	PrevRating int32     `json:"prev_rating" db:"prev_rating"`
	Related    []int32   `json:"related"     db:"related"` // ids of related cards, order preserved
}

type NewCard struct {
	UserID     int32
	DeckID     int32
	From       string
	To         string
	Example    string
	AudioURL   string
	SeenAt     Timestamp
	SeenFor    int32
	Rating     int32
	PrevRating int32
	Related    []int32
}
