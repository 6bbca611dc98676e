package models

// StatusSingletonID is the fixed key of the single tournament_status row.
const StatusSingletonID = "singleton"

// TournamentStatus tracks phase progression for the single running
// tournament. Exactly one row exists; ChampionID is set once, after the
// FINAL match completes.
type TournamentStatus struct {
	ID              string `json:"id"`
	CurrentPhase    Phase  `json:"currentPhase"`
	GroupCompleted  bool   `json:"groupCompleted"`
	KnockoutCreated bool   `json:"knockoutCreated"`
	ChampionID      *int   `json:"championId"`

	Champion *Player `json:"champion,omitempty"`
}
