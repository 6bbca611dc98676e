package models

import "time"

// Phase is the top-level tournament stage, matching the ENUM in the DB.
type Phase string

const (
	PhaseGroup    Phase = "GROUP"
	PhaseKnockout Phase = "KNOCKOUT"
)

// Round is the knockout sub-stage. Group matches carry no round.
type Round string

const (
	RoundSemiFinal Round = "SEMI_FINAL"
	RoundFinal     Round = "FINAL"
)

type Match struct {
	ID           int       `json:"id"`
	Player1ID    int       `json:"player1Id"`
	Player2ID    int       `json:"player2Id"`
	Player1Score *int      `json:"player1Score"`
	Player2Score *int      `json:"player2Score"`
	WinnerID     *int      `json:"winnerId"`
	Phase        Phase     `json:"phase"`
	Round        *Round    `json:"round"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`

	// Linked player detail, populated by the repository on reads.
	Player1 *Player `json:"player1,omitempty"`
	Player2 *Player `json:"player2,omitempty"`
	Winner  *Player `json:"winner,omitempty"`
}
