package model

// Deck groups cards for one language pair.
type Deck struct {
	ID     int32     `json:"id"      db:"id"`
	UserID int32     `json:"user_id" db:"user_id"`
	From   string    `json:"from"    db:"from"`
	To     string    `json:"to"      db:"to"`
	SeenAt Timestamp `json:"seen_at" db:"seen_at"`
}

type NewDeck struct {
	UserID int32
	From   string
	To     string
	SeenAt Timestamp
}
