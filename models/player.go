package models

import "time"

// Player is a tournament participant. Points mirror wins under the group
// scoring rule (1 point per win), matchesPlayed == wins + losses.
type Player struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Points        int       `json:"points"`
	MatchesPlayed int       `json:"matchesPlayed"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	CreatedAt     time.Time `json:"created_at"`

	AvatarKey *string `json:"-"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
