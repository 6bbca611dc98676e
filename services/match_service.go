package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/minicup/live"
	"github.com/Dosada05/minicup/models"
	"github.com/Dosada05/minicup/repositories"
)

type CreateMatchInput struct {
	Player1ID int           `json:"player1Id"`
	Player2ID int           `json:"player2Id"`
	Phase     models.Phase  `json:"phase"`
	Round     *models.Round `json:"round"`
}

type MatchService interface {
	Create(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error)
	// RecordScore completes a match and applies both players' stat updates
	// in one transaction, then runs the follow-on phase checks (group
	// completion, champion) inside the same transaction.
	RecordScore(ctx context.Context, matchID, score1, score2 int) (*models.Match, error)
}

type matchService struct {
	txRunner   repositories.TxRunner
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	statusRepo repositories.StatusRepository
	hub        live.Broadcaster
	logger     *slog.Logger
}

func NewMatchService(
	txRunner repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	statusRepo repositories.StatusRepository,
	hub live.Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		txRunner:   txRunner,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		statusRepo: statusRepo,
		hub:        hub,
		logger:     logger,
	}
}

func (s *matchService) Create(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.Player1ID == input.Player2ID {
		return nil, ErrMatchSamePlayer
	}

	switch input.Phase {
	case models.PhaseGroup:
		if input.Round != nil {
			return nil, ErrMatchRoundForbidden
		}
	case models.PhaseKnockout:
		if input.Round == nil || (*input.Round != models.RoundSemiFinal && *input.Round != models.RoundFinal) {
			return nil, ErrMatchRoundRequired
		}
	default:
		return nil, ErrMatchInvalidPhase
	}

	match := &models.Match{
		Player1ID: input.Player1ID,
		Player2ID: input.Player2ID,
		Phase:     input.Phase,
		Round:     input.Round,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchGroupPairingConflict):
			return nil, ErrMatchDuplicateGroupPairing
		case errors.Is(err, repositories.ErrMatchPlayerInvalid):
			return nil, ErrMatchPlayerNotFound
		}
		return nil, err
	}

	return s.GetByID(ctx, match.ID)
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) List(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error) {
	return s.matchRepo.List(ctx, nil, filter)
}

func (s *matchService) RecordScore(ctx context.Context, matchID, score1, score2 int) (*models.Match, error) {
	if score1 < 0 || score2 < 0 {
		return nil, ErrScoreNegative
	}
	if score1 == score2 {
		return nil, ErrScoresEqual
	}

	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Completed {
		return nil, ErrMatchAlreadyCompleted
	}

	winnerID, loserID := match.Player1ID, match.Player2ID
	if score2 > score1 {
		winnerID, loserID = match.Player2ID, match.Player1ID
	}

	var groupCompleted, championDecided bool
	var championID int

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Completing first makes a concurrent double submission fail the
		// whole transaction before any stats change.
		txErr := s.matchRepo.CompleteWithScore(ctx, exec, matchID, score1, score2, winnerID)
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrMatchAlreadyCompletedInDB) {
				return ErrMatchAlreadyCompleted
			}
			return txErr
		}

		if txErr = s.playerRepo.ApplyMatchResult(ctx, exec, winnerID, true); txErr != nil {
			return txErr
		}
		if txErr = s.playerRepo.ApplyMatchResult(ctx, exec, loserID, false); txErr != nil {
			return txErr
		}

		if match.Phase == models.PhaseGroup {
			groupCompleted, txErr = checkAndCompleteGroupPhase(ctx, exec, s.matchRepo, s.statusRepo)
			return txErr
		}
		if match.Round != nil && *match.Round == models.RoundFinal {
			championDecided, championID, txErr = completeKnockoutPhase(ctx, exec, s.matchRepo, s.statusRepo)
			return txErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("match score recorded",
		slog.Int("match_id", matchID),
		slog.Int("winner_id", winnerID),
		slog.String("phase", string(match.Phase)),
	)

	s.hub.Broadcast(live.EventMatchUpdated, updated)
	if groupCompleted {
		s.hub.Broadcast(live.EventStatusUpdated, map[string]interface{}{
			"currentPhase":   models.PhaseKnockout,
			"groupCompleted": true,
		})
	}
	if championDecided {
		s.broadcastChampion(ctx, championID)
	}
	return updated, nil
}

func (s *matchService) broadcastChampion(ctx context.Context, championID int) {
	champion, err := s.playerRepo.GetByID(ctx, championID)
	if err != nil {
		s.hub.Broadcast(live.EventChampionDecided, map[string]interface{}{"championId": championID})
		return
	}
	s.hub.Broadcast(live.EventChampionDecided, champion)
}
