package model

// GameState is the authoritative snapshot of the shared counter.
// The client never writes it; it only previews optimistic deltas on top of it.
type GameState struct {
	GlobalClicks  int64   `json:"globalClicks"`
	Pot           float64 `json:"pot"`
	LastWinner    *string `json:"lastWinner"`
	LastClickUser *string `json:"lastClickUser"`
}

// MaxGlobalClicks is the ceiling used to scale the progress ring. It is a
// display bound only, the service does not stop counting there.
const MaxGlobalClicks int64 = 1_000_000

// Winner is the payload of a winner push event
type Winner struct {
	Username string  `json:"username"`
	Pot      float64 `json:"pot"`
}

// WinnerRecord is one entry of the public winners list
type WinnerRecord struct {
	Username string  `json:"username"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date,omitempty"`
}
