package brackets

import (
	"fmt"
	"testing"

	"github.com/Dosada05/minicup/models"
)

func makePlayers(n int) []*models.Player {
	players := make([]*models.Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, &models.Player{ID: i, Name: fmt.Sprintf("Player %d", i)})
	}
	return players
}

func TestRoundRobinPairingCount(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8} {
		players := makePlayers(n)
		pairings, err := RoundRobin(players)
		if err != nil {
			t.Fatalf("RoundRobin(%d players) returned error: %v", n, err)
		}
		want := n * (n - 1) / 2
		if len(pairings) != want {
			t.Errorf("RoundRobin(%d players) produced %d pairings, want %d", n, len(pairings), want)
		}
	}
}

func TestRoundRobinEachPairOnce(t *testing.T) {
	players := makePlayers(5)
	pairings, err := RoundRobin(players)
	if err != nil {
		t.Fatalf("RoundRobin returned error: %v", err)
	}

	seen := make(map[[2]int]bool)
	for _, p := range pairings {
		if p.Player1ID == p.Player2ID {
			t.Errorf("pairing has identical players: %+v", p)
		}
		key := [2]int{p.Player1ID, p.Player2ID}
		if p.Player2ID < p.Player1ID {
			key = [2]int{p.Player2ID, p.Player1ID}
		}
		if seen[key] {
			t.Errorf("pair %v generated more than once", key)
		}
		seen[key] = true
	}
}

func TestRoundRobinDeterministicOrder(t *testing.T) {
	players := makePlayers(4)
	pairings, err := RoundRobin(players)
	if err != nil {
		t.Fatalf("RoundRobin returned error: %v", err)
	}

	want := []Pairing{
		{Player1ID: 1, Player2ID: 2},
		{Player1ID: 1, Player2ID: 3},
		{Player1ID: 1, Player2ID: 4},
		{Player1ID: 2, Player2ID: 3},
		{Player1ID: 2, Player2ID: 4},
		{Player1ID: 3, Player2ID: 4},
	}
	if len(pairings) != len(want) {
		t.Fatalf("got %d pairings, want %d", len(pairings), len(want))
	}
	for i := range want {
		if pairings[i] != want[i] {
			t.Errorf("pairing %d = %+v, want %+v", i, pairings[i], want[i])
		}
	}
}

func TestRoundRobinTooFewPlayers(t *testing.T) {
	if _, err := RoundRobin(nil); err == nil {
		t.Error("expected error for empty player list, got nil")
	}
	if _, err := RoundRobin(makePlayers(1)); err == nil {
		t.Error("expected error for a single player, got nil")
	}
}
