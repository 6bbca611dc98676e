package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/minicup/live"
	"github.com/Dosada05/minicup/models"
)

func TestCreateMatchValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerPlayers(ctx, "Alice", "Bob")

	semiFinal := models.RoundSemiFinal

	tests := []struct {
		name    string
		input   CreateMatchInput
		wantErr error
	}{
		{
			name:    "same player on both sides",
			input:   CreateMatchInput{Player1ID: 1, Player2ID: 1, Phase: models.PhaseGroup},
			wantErr: ErrMatchSamePlayer,
		},
		{
			name:    "group match with a round",
			input:   CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.PhaseGroup, Round: &semiFinal},
			wantErr: ErrMatchRoundForbidden,
		},
		{
			name:    "knockout match without a round",
			input:   CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.PhaseKnockout},
			wantErr: ErrMatchRoundRequired,
		},
		{
			name:    "unknown phase",
			input:   CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.Phase("PLAYOFF")},
			wantErr: ErrMatchInvalidPhase,
		},
		{
			name:    "unknown player",
			input:   CreateMatchInput{Player1ID: 1, Player2ID: 99, Phase: models.PhaseGroup},
			wantErr: ErrMatchPlayerNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.matches.Create(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMatchDuplicateGroupPairing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerPlayers(ctx, "Alice", "Bob")

	if _, err := env.matches.Create(ctx, CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.PhaseGroup}); err != nil {
		t.Fatalf("first create returned error: %v", err)
	}

	// The reversed pairing is the same unordered pair.
	_, err := env.matches.Create(ctx, CreateMatchInput{Player1ID: 2, Player2ID: 1, Phase: models.PhaseGroup})
	if !errors.Is(err, ErrMatchDuplicateGroupPairing) {
		t.Errorf("got error %v, want ErrMatchDuplicateGroupPairing", err)
	}
}

func TestRecordScoreUpdatesStats(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerPlayers(ctx, "Alice", "Bob", "Carol")

	match, err := env.matches.Create(ctx, CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.PhaseGroup})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := env.matches.RecordScore(ctx, match.ID, 3, 5)
	if err != nil {
		t.Fatalf("RecordScore returned error: %v", err)
	}
	if !updated.Completed {
		t.Error("match not marked completed")
	}
	if updated.WinnerID == nil || *updated.WinnerID != 2 {
		t.Fatalf("winner = %v, want player 2", updated.WinnerID)
	}
	if *updated.Player1Score != 3 || *updated.Player2Score != 5 {
		t.Errorf("scores = %d:%d, want 3:5", *updated.Player1Score, *updated.Player2Score)
	}

	winner, _ := env.players.GetByID(ctx, 2)
	if winner.Points != 1 || winner.Wins != 1 || winner.Losses != 0 || winner.MatchesPlayed != 1 {
		t.Errorf("winner stats = %+v, want 1 point, 1 win, 1 played", winner)
	}
	loser, _ := env.players.GetByID(ctx, 1)
	if loser.Points != 0 || loser.Wins != 0 || loser.Losses != 1 || loser.MatchesPlayed != 1 {
		t.Errorf("loser stats = %+v, want 1 loss, 1 played", loser)
	}
	bystander, _ := env.players.GetByID(ctx, 3)
	if bystander.MatchesPlayed != 0 {
		t.Errorf("uninvolved player gained stats: %+v", bystander)
	}

	if env.hub.count(live.EventMatchUpdated) != 1 {
		t.Errorf("expected one %s broadcast, got %d", live.EventMatchUpdated, env.hub.count(live.EventMatchUpdated))
	}
}

func TestRecordScoreRejectsInvalidScores(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerPlayers(ctx, "Alice", "Bob")

	match, err := env.matches.Create(ctx, CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.PhaseGroup})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := env.matches.RecordScore(ctx, match.ID, -1, 2); !errors.Is(err, ErrScoreNegative) {
		t.Errorf("negative score: got error %v, want ErrScoreNegative", err)
	}
	if _, err := env.matches.RecordScore(ctx, match.ID, 2, 2); !errors.Is(err, ErrScoresEqual) {
		t.Errorf("equal scores: got error %v, want ErrScoresEqual", err)
	}

	// Rejected submissions must leave the match and stats untouched.
	fresh, err := env.matches.GetByID(ctx, match.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if fresh.Completed {
		t.Error("match completed by a rejected submission")
	}
	for _, id := range []int{1, 2} {
		player, _ := env.players.GetByID(ctx, id)
		if player.MatchesPlayed != 0 {
			t.Errorf("player %d gained stats from a rejected submission: %+v", id, player)
		}
	}
}

func TestRecordScoreUnknownMatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.matches.RecordScore(ctx, 42, 1, 0); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("got error %v, want ErrMatchNotFound", err)
	}
}

func TestRecordScoreTwice(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerPlayers(ctx, "Alice", "Bob")

	match, err := env.matches.Create(ctx, CreateMatchInput{Player1ID: 1, Player2ID: 2, Phase: models.PhaseGroup})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := env.matches.RecordScore(ctx, match.ID, 2, 1); err != nil {
		t.Fatalf("first RecordScore returned error: %v", err)
	}

	if _, err := env.matches.RecordScore(ctx, match.ID, 0, 3); !errors.Is(err, ErrMatchAlreadyCompleted) {
		t.Errorf("got error %v, want ErrMatchAlreadyCompleted", err)
	}

	// The first result stands and stats are counted once.
	winner, _ := env.players.GetByID(ctx, 1)
	if winner.Points != 1 || winner.MatchesPlayed != 1 {
		t.Errorf("winner stats double counted: %+v", winner)
	}
}

func TestRecordScoreCompletesGroupPhase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.registerPlayers(ctx, "Alice", "Bob", "Carol")

	matches, err := env.tournament.GenerateGroupMatches(ctx)
	if err != nil {
		t.Fatalf("GenerateGroupMatches returned error: %v", err)
	}

	for i, match := range matches {
		status, err := env.tournament.Status(ctx)
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.GroupCompleted {
			t.Fatalf("group phase completed before match %d of %d", i, len(matches))
		}
		if _, err := env.matches.RecordScore(ctx, match.ID, 1, 0); err != nil {
			t.Fatalf("RecordScore returned error: %v", err)
		}
	}

	status, err := env.tournament.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.GroupCompleted {
		t.Error("group phase not completed after the last match")
	}
	if status.CurrentPhase != models.PhaseKnockout {
		t.Errorf("current phase = %s, want %s", status.CurrentPhase, models.PhaseKnockout)
	}
	if env.hub.count(live.EventStatusUpdated) != 1 {
		t.Errorf("expected one %s broadcast, got %d", live.EventStatusUpdated, env.hub.count(live.EventStatusUpdated))
	}
}
