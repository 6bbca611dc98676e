package brackets

import (
	"fmt"
	"math/rand"

	"github.com/Dosada05/minicup/models"
)

// SemiFinalCount is the number of players advancing out of the group phase.
const SemiFinalCount = 4

// KnockoutPairer builds the semi-final draw. The random source is injected
// so callers (and tests) control the shuffle.
type KnockoutPairer struct {
	rnd *rand.Rand
}

func NewKnockoutPairer(rnd *rand.Rand) *KnockoutPairer {
	return &KnockoutPairer{rnd: rnd}
}

// PairSemiFinals shuffles the qualified four and pairs index 0-1 and 2-3.
// Seeding is intentionally not preserved: the draw is random, not by rank.
func (p *KnockoutPairer) PairSemiFinals(qualified []*models.Player) ([]Pairing, error) {
	if len(qualified) < SemiFinalCount {
		return nil, fmt.Errorf("semi-finals require %d players, found %d", SemiFinalCount, len(qualified))
	}

	drawn := make([]*models.Player, SemiFinalCount)
	copy(drawn, qualified[:SemiFinalCount])
	p.rnd.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})

	return []Pairing{
		{Player1ID: drawn[0].ID, Player2ID: drawn[1].ID},
		{Player1ID: drawn[2].ID, Player2ID: drawn[3].ID},
	}, nil
}
