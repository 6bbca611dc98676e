// Package brackets holds the pure pairing logic for the two tournament
// stages: a single round-robin group phase and a four-player knockout.
package brackets

import (
	"fmt"

	"github.com/Dosada05/minicup/models"
)

// Pairing is one generated match-up, before persistence.
type Pairing struct {
	Player1ID int
	Player2ID int
}

// RoundRobin pairs every player against every other player exactly once:
// n players yield n*(n-1)/2 pairings. The outer/inner loop over the given
// slice makes the output deterministic for a stable player listing.
func RoundRobin(players []*models.Player) ([]Pairing, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("round robin requires at least 2 players, found %d", len(players))
	}

	pairings := make([]Pairing, 0, len(players)*(len(players)-1)/2)
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			pairings = append(pairings, Pairing{
				Player1ID: players[i].ID,
				Player2ID: players[j].ID,
			})
		}
	}
	return pairings, nil
}
