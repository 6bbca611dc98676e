package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/minicup/brackets"
	"github.com/Dosada05/minicup/live"
	"github.com/Dosada05/minicup/models"
	"github.com/Dosada05/minicup/repositories"
	"golang.org/x/sync/errgroup"
)

// Messages returned in structured failure results for the knockout
// generation operations. Callers check Success rather than an error.
const (
	msgGroupNotCompleted      = "Group phase is not completed yet"
	msgSemiFinalsExist        = "Semi-final matches have already been generated"
	msgNotEnoughPlayers       = "Not enough players to generate semi-finals"
	msgSemiFinalsNotCompleted = "Both semi-finals must be completed before generating the final"
	msgFinalExists            = "Final match has already been generated"
	msgNoSemiFinalWinners     = "Could not determine winners from semi-finals"
)

type SemiFinalsResult struct {
	Success bool            `json:"success"`
	Matches []*models.Match `json:"matches,omitempty"`
	Message string          `json:"message,omitempty"`
}

type FinalResult struct {
	Success bool          `json:"success"`
	Match   *models.Match `json:"match,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Overview aggregates everything the dashboard needs in one response.
type Overview struct {
	Status  *models.TournamentStatus `json:"status"`
	Players []*models.Player         `json:"players"`
	Matches []*models.Match          `json:"matches"`
}

// TournamentService is the progression engine: it owns every transition of
// the singleton tournament status and all match generation.
type TournamentService interface {
	Status(ctx context.Context) (*models.TournamentStatus, error)
	Overview(ctx context.Context) (*Overview, error)
	GenerateGroupMatches(ctx context.Context) ([]*models.Match, error)
	CheckAndCompleteGroupPhase(ctx context.Context) (bool, error)
	GenerateSemiFinals(ctx context.Context) (*SemiFinalsResult, error)
	GenerateFinal(ctx context.Context) (*FinalResult, error)
	CompleteKnockoutPhase(ctx context.Context) (bool, error)
	Reset(ctx context.Context) error
}

type tournamentService struct {
	txRunner   repositories.TxRunner
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	statusRepo repositories.StatusRepository
	pairer     *brackets.KnockoutPairer
	hub        live.Broadcaster
	logger     *slog.Logger
}

func NewTournamentService(
	txRunner repositories.TxRunner,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	statusRepo repositories.StatusRepository,
	pairer *brackets.KnockoutPairer,
	hub live.Broadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txRunner:   txRunner,
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		statusRepo: statusRepo,
		pairer:     pairer,
		hub:        hub,
		logger:     logger,
	}
}

func (s *tournamentService) Status(ctx context.Context) (*models.TournamentStatus, error) {
	status, err := s.statusRepo.Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	if status.ChampionID != nil {
		champion, err := s.playerRepo.GetByID(ctx, *status.ChampionID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve champion %d: %w", *status.ChampionID, err)
		}
		status.Champion = champion
	}
	return status, nil
}

func (s *tournamentService) Overview(ctx context.Context) (*Overview, error) {
	overview := &Overview{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := s.Status(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load tournament status: %w", err)
		}
		overview.Status = status
		return nil
	})
	g.Go(func() error {
		players, err := s.playerRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load players: %w", err)
		}
		overview.Players = players
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.List(gCtx, nil, repositories.MatchFilter{})
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		overview.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// GenerateGroupMatches creates one GROUP match per unordered pair of
// registered players. Generation runs under the status row lock so two
// concurrent calls cannot both pass the already-generated check.
func (s *tournamentService) GenerateGroupMatches(ctx context.Context) ([]*models.Match, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	pairings, err := brackets.RoundRobin(players)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, lockErr := s.statusRepo.GetForUpdate(ctx, exec); lockErr != nil {
			return lockErr
		}

		groupPhase := models.PhaseGroup
		existing, listErr := s.matchRepo.List(ctx, exec, repositories.MatchFilter{Phase: &groupPhase})
		if listErr != nil {
			return listErr
		}
		if len(existing) > 0 {
			return ErrGroupAlreadyGenerated
		}

		for _, pairing := range pairings {
			match := &models.Match{
				Player1ID: pairing.Player1ID,
				Player2ID: pairing.Player2ID,
				Phase:     models.PhaseGroup,
			}
			if createErr := s.matchRepo.Create(ctx, exec, match); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	groupPhase := models.PhaseGroup
	created, err := s.matchRepo.List(ctx, nil, repositories.MatchFilter{Phase: &groupPhase})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group matches generated",
		slog.Int("players", len(players)),
		slog.Int("matches", len(created)),
	)
	s.hub.Broadcast(live.EventBracketUpdated, created)
	return created, nil
}

func (s *tournamentService) CheckAndCompleteGroupPhase(ctx context.Context) (bool, error) {
	var completed bool
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		completed, txErr = checkAndCompleteGroupPhase(ctx, exec, s.matchRepo, s.statusRepo)
		return txErr
	})
	if err != nil {
		return false, err
	}
	if completed {
		s.hub.Broadcast(live.EventStatusUpdated, map[string]interface{}{
			"currentPhase":   models.PhaseKnockout,
			"groupCompleted": true,
		})
	}
	return completed, nil
}

func (s *tournamentService) GenerateSemiFinals(ctx context.Context) (*SemiFinalsResult, error) {
	result := &SemiFinalsResult{}

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		status, txErr := s.statusRepo.GetForUpdate(ctx, exec)
		if txErr != nil {
			return txErr
		}

		if !status.GroupCompleted {
			result.Message = msgGroupNotCompleted
			return nil
		}
		if status.KnockoutCreated {
			semiFinal := models.RoundSemiFinal
			existing, listErr := s.matchRepo.List(ctx, exec, repositories.MatchFilter{Round: &semiFinal})
			if listErr != nil {
				return listErr
			}
			result.Message = msgSemiFinalsExist
			result.Matches = existing
			return nil
		}

		top, txErr := s.playerRepo.ListTop(ctx, exec, brackets.SemiFinalCount)
		if txErr != nil {
			return txErr
		}
		if len(top) < brackets.SemiFinalCount {
			result.Message = msgNotEnoughPlayers
			return nil
		}

		pairings, txErr := s.pairer.PairSemiFinals(top)
		if txErr != nil {
			return txErr
		}

		semiFinal := models.RoundSemiFinal
		for _, pairing := range pairings {
			match := &models.Match{
				Player1ID: pairing.Player1ID,
				Player2ID: pairing.Player2ID,
				Phase:     models.PhaseKnockout,
				Round:     &semiFinal,
			}
			if createErr := s.matchRepo.Create(ctx, exec, match); createErr != nil {
				return createErr
			}
		}

		if txErr = s.statusRepo.MarkKnockoutCreated(ctx, exec); txErr != nil {
			return txErr
		}
		result.Success = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return result, nil
	}

	// Re-fetch so the response carries full player detail.
	semiFinal := models.RoundSemiFinal
	matches, err := s.matchRepo.List(ctx, nil, repositories.MatchFilter{Round: &semiFinal})
	if err != nil {
		return nil, err
	}
	result.Matches = matches

	s.logger.Info("semi-final matches generated", slog.Int("matches", len(matches)))
	s.hub.Broadcast(live.EventBracketUpdated, matches)
	return result, nil
}

func (s *tournamentService) GenerateFinal(ctx context.Context) (*FinalResult, error) {
	result := &FinalResult{}

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// The status lock serializes concurrent final generation; final
		// uniqueness has no index behind it, unlike the group pairing.
		if _, lockErr := s.statusRepo.GetForUpdate(ctx, exec); lockErr != nil {
			return lockErr
		}

		semiFinal := models.RoundSemiFinal
		semiFinals, txErr := s.matchRepo.List(ctx, exec, repositories.MatchFilter{Round: &semiFinal})
		if txErr != nil {
			return txErr
		}

		incomplete := 0
		for _, match := range semiFinals {
			if !match.Completed {
				incomplete++
			}
		}
		if len(semiFinals) < 2 || incomplete > 0 {
			result.Message = msgSemiFinalsNotCompleted
			return nil
		}

		finalRound := models.RoundFinal
		finals, txErr := s.matchRepo.List(ctx, exec, repositories.MatchFilter{Round: &finalRound})
		if txErr != nil {
			return txErr
		}
		if len(finals) > 0 {
			result.Message = msgFinalExists
			result.Match = finals[0]
			return nil
		}

		winner1 := semiFinals[0].WinnerID
		winner2 := semiFinals[1].WinnerID
		if winner1 == nil || winner2 == nil {
			result.Message = msgNoSemiFinalWinners
			return nil
		}

		match := &models.Match{
			Player1ID: *winner1,
			Player2ID: *winner2,
			Phase:     models.PhaseKnockout,
			Round:     &finalRound,
		}
		if createErr := s.matchRepo.Create(ctx, exec, match); createErr != nil {
			return createErr
		}
		result.Success = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return result, nil
	}

	finalRound := models.RoundFinal
	finals, err := s.matchRepo.List(ctx, nil, repositories.MatchFilter{Round: &finalRound})
	if err != nil {
		return nil, err
	}
	if len(finals) > 0 {
		result.Match = finals[0]
	}

	s.logger.Info("final match generated")
	s.hub.Broadcast(live.EventBracketUpdated, result.Match)
	return result, nil
}

func (s *tournamentService) CompleteKnockoutPhase(ctx context.Context) (bool, error) {
	var decided bool
	var championID int
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		decided, championID, txErr = completeKnockoutPhase(ctx, exec, s.matchRepo, s.statusRepo)
		return txErr
	})
	if err != nil {
		return false, err
	}
	if decided {
		s.broadcastChampion(ctx, championID)
	}
	return decided, nil
}

func (s *tournamentService) Reset(ctx context.Context) error {
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.matchRepo.DeleteAll(ctx, exec); txErr != nil {
			return txErr
		}
		if txErr := s.playerRepo.ResetStats(ctx, exec); txErr != nil {
			return txErr
		}
		return s.statusRepo.Reset(ctx, exec)
	})
	if err != nil {
		return err
	}

	s.logger.Info("tournament reset")
	s.hub.Broadcast(live.EventStatusUpdated, map[string]interface{}{
		"currentPhase":   models.PhaseGroup,
		"groupCompleted": false,
	})
	return nil
}

func (s *tournamentService) broadcastChampion(ctx context.Context, championID int) {
	champion, err := s.playerRepo.GetByID(ctx, championID)
	if err != nil {
		s.logger.Warn("failed to load champion for broadcast", slog.Int("champion_id", championID), slog.Any("error", err))
		s.hub.Broadcast(live.EventChampionDecided, map[string]interface{}{"championId": championID})
		return
	}
	s.hub.Broadcast(live.EventChampionDecided, champion)
}

// checkAndCompleteGroupPhase flips the status to KNOCKOUT once no GROUP
// match remains incomplete. Safe to re-invoke: once the flag is set it
// reports true without touching the row again. Must run inside exec's
// transaction together with whatever made the last match complete.
func checkAndCompleteGroupPhase(
	ctx context.Context,
	exec repositories.SQLExecutor,
	matchRepo repositories.MatchRepository,
	statusRepo repositories.StatusRepository,
) (bool, error) {
	status, err := statusRepo.GetForUpdate(ctx, exec)
	if err != nil {
		return false, err
	}
	if status.GroupCompleted {
		return true, nil
	}

	remaining, err := matchRepo.CountIncomplete(ctx, exec, models.PhaseGroup)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	if err := statusRepo.CompleteGroupPhase(ctx, exec); err != nil {
		return false, err
	}
	return true, nil
}

// completeKnockoutPhase records the FINAL winner as champion, exactly once.
// Returns (false, 0, nil) when there is no completed final yet or the
// champion is already set.
func completeKnockoutPhase(
	ctx context.Context,
	exec repositories.SQLExecutor,
	matchRepo repositories.MatchRepository,
	statusRepo repositories.StatusRepository,
) (bool, int, error) {
	finalRound := models.RoundFinal
	completed := true
	finals, err := matchRepo.List(ctx, exec, repositories.MatchFilter{Round: &finalRound, Completed: &completed})
	if err != nil {
		return false, 0, err
	}
	if len(finals) == 0 || finals[0].WinnerID == nil {
		return false, 0, nil
	}

	status, err := statusRepo.GetForUpdate(ctx, exec)
	if err != nil {
		return false, 0, err
	}
	if status.ChampionID != nil {
		return false, 0, nil
	}

	championID := *finals[0].WinnerID
	if err := statusRepo.SetChampion(ctx, exec, championID); err != nil {
		return false, 0, err
	}
	return true, championID, nil
}
