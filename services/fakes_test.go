package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/Dosada05/minicup/brackets"
	"github.com/Dosada05/minicup/models"
	"github.com/Dosada05/minicup/repositories"
)

// In-memory doubles for the repository layer. They ignore the exec argument
// because there is no real transaction to thread through.

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeBroadcaster struct {
	events []string
}

func (b *fakeBroadcaster) Broadcast(eventType string, payload interface{}) {
	b.events = append(b.events, eventType)
}

func (b *fakeBroadcaster) count(eventType string) int {
	n := 0
	for _, e := range b.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type fakePlayerRepo struct {
	players map[int]*models.Player
	nextID  int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player), nextID: 1}
}

func (r *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	player.ID = r.nextID
	player.CreatedAt = time.Now()
	r.nextID++
	stored := *player
	r.players[stored.ID] = &stored
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (r *fakePlayerRepo) sorted() []*models.Player {
	players := make([]*models.Player, 0, len(r.players))
	for _, p := range r.players {
		copied := *p
		players = append(players, &copied)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Points != players[j].Points {
			return players[i].Points > players[j].Points
		}
		return players[i].ID < players[j].ID
	})
	return players
}

func (r *fakePlayerRepo) List(ctx context.Context) ([]*models.Player, error) {
	return r.sorted(), nil
}

func (r *fakePlayerRepo) ListTop(ctx context.Context, exec repositories.SQLExecutor, limit int) ([]*models.Player, error) {
	players := r.sorted()
	if len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

func (r *fakePlayerRepo) ApplyMatchResult(ctx context.Context, exec repositories.SQLExecutor, playerID int, won bool) error {
	player, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.MatchesPlayed++
	if won {
		player.Points++
		player.Wins++
	} else {
		player.Losses++
	}
	return nil
}

func (r *fakePlayerRepo) ResetStats(ctx context.Context, exec repositories.SQLExecutor) error {
	for _, player := range r.players {
		player.Points = 0
		player.MatchesPlayed = 0
		player.Wins = 0
		player.Losses = 0
	}
	return nil
}

func (r *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, id int, key *string) error {
	player, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.AvatarKey = key
	return nil
}

type fakeMatchRepo struct {
	playerRepo *fakePlayerRepo
	matches    map[int]*models.Match
	nextID     int
}

func newFakeMatchRepo(playerRepo *fakePlayerRepo) *fakeMatchRepo {
	return &fakeMatchRepo{playerRepo: playerRepo, matches: make(map[int]*models.Match), nextID: 1}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	for _, id := range []int{match.Player1ID, match.Player2ID} {
		if _, ok := r.playerRepo.players[id]; !ok {
			return repositories.ErrMatchPlayerInvalid
		}
	}
	if match.Phase == models.PhaseGroup {
		for _, existing := range r.matches {
			if existing.Phase != models.PhaseGroup {
				continue
			}
			samePair := (existing.Player1ID == match.Player1ID && existing.Player2ID == match.Player2ID) ||
				(existing.Player1ID == match.Player2ID && existing.Player2ID == match.Player1ID)
			if samePair {
				return repositories.ErrMatchGroupPairingConflict
			}
		}
	}

	match.ID = r.nextID
	match.Completed = false
	match.CreatedAt = time.Now()
	r.nextID++
	stored := *match
	r.matches[stored.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) withDetail(match *models.Match) *models.Match {
	copied := *match
	copied.Player1, _ = r.playerRepo.GetByID(context.Background(), copied.Player1ID)
	copied.Player2, _ = r.playerRepo.GetByID(context.Background(), copied.Player2ID)
	if copied.WinnerID != nil {
		copied.Winner, _ = r.playerRepo.GetByID(context.Background(), *copied.WinnerID)
	}
	return &copied
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return r.withDetail(match), nil
}

func (r *fakeMatchRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) ([]*models.Match, error) {
	matches := make([]*models.Match, 0, len(r.matches))
	for _, match := range r.matches {
		if filter.Phase != nil && match.Phase != *filter.Phase {
			continue
		}
		if filter.Completed != nil && match.Completed != *filter.Completed {
			continue
		}
		if filter.Round != nil && (match.Round == nil || *match.Round != *filter.Round) {
			continue
		}
		matches = append(matches, r.withDetail(match))
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Completed != matches[j].Completed {
			return !matches[i].Completed
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *fakeMatchRepo) CountIncomplete(ctx context.Context, exec repositories.SQLExecutor, phase models.Phase) (int, error) {
	count := 0
	for _, match := range r.matches {
		if match.Phase == phase && !match.Completed {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) CompleteWithScore(ctx context.Context, exec repositories.SQLExecutor, id, score1, score2, winnerID int) error {
	match, ok := r.matches[id]
	if !ok || match.Completed {
		return repositories.ErrMatchAlreadyCompletedInDB
	}
	match.Player1Score = &score1
	match.Player2Score = &score2
	match.WinnerID = &winnerID
	match.Completed = true
	return nil
}

func (r *fakeMatchRepo) DeleteAll(ctx context.Context, exec repositories.SQLExecutor) error {
	r.matches = make(map[int]*models.Match)
	return nil
}

type fakeStatusRepo struct {
	status *models.TournamentStatus
}

func (r *fakeStatusRepo) ensure() *models.TournamentStatus {
	if r.status == nil {
		r.status = &models.TournamentStatus{
			ID:           models.StatusSingletonID,
			CurrentPhase: models.PhaseGroup,
		}
	}
	return r.status
}

func (r *fakeStatusRepo) Get(ctx context.Context, exec repositories.SQLExecutor) (*models.TournamentStatus, error) {
	copied := *r.ensure()
	return &copied, nil
}

func (r *fakeStatusRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor) (*models.TournamentStatus, error) {
	return r.Get(ctx, exec)
}

func (r *fakeStatusRepo) CompleteGroupPhase(ctx context.Context, exec repositories.SQLExecutor) error {
	status := r.ensure()
	status.GroupCompleted = true
	status.CurrentPhase = models.PhaseKnockout
	return nil
}

func (r *fakeStatusRepo) MarkKnockoutCreated(ctx context.Context, exec repositories.SQLExecutor) error {
	r.ensure().KnockoutCreated = true
	return nil
}

func (r *fakeStatusRepo) SetChampion(ctx context.Context, exec repositories.SQLExecutor, championID int) error {
	status := r.ensure()
	if status.ChampionID == nil {
		status.ChampionID = &championID
	}
	return nil
}

func (r *fakeStatusRepo) Reset(ctx context.Context, exec repositories.SQLExecutor) error {
	r.status = &models.TournamentStatus{
		ID:           models.StatusSingletonID,
		CurrentPhase: models.PhaseGroup,
	}
	return nil
}

// testEnv wires the services over the in-memory fakes with a fixed shuffle
// seed so knockout draws are reproducible.
type testEnv struct {
	playerRepo *fakePlayerRepo
	matchRepo  *fakeMatchRepo
	statusRepo *fakeStatusRepo
	hub        *fakeBroadcaster

	players    PlayerService
	matches    MatchService
	tournament TournamentService
}

func newTestEnv() *testEnv {
	playerRepo := newFakePlayerRepo()
	matchRepo := newFakeMatchRepo(playerRepo)
	statusRepo := &fakeStatusRepo{}
	hub := &fakeBroadcaster{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pairer := brackets.NewKnockoutPairer(rand.New(rand.NewSource(1)))

	return &testEnv{
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		statusRepo: statusRepo,
		hub:        hub,
		players:    NewPlayerService(playerRepo, nil, logger),
		matches:    NewMatchService(fakeTxRunner{}, matchRepo, playerRepo, statusRepo, hub, logger),
		tournament: NewTournamentService(fakeTxRunner{}, playerRepo, matchRepo, statusRepo, pairer, hub, logger),
	}
}

func (e *testEnv) registerPlayers(ctx context.Context, names ...string) []*models.Player {
	players := make([]*models.Player, 0, len(names))
	for _, name := range names {
		player, err := e.players.Register(ctx, name)
		if err != nil {
			panic(err)
		}
		players = append(players, player)
	}
	return players
}
