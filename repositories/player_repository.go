package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/minicup/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	// List returns every player ordered by points descending. Ties break on
	// registration order (id ascending) so the ordering is stable.
	List(ctx context.Context) ([]*models.Player, error)
	ListTop(ctx context.Context, exec SQLExecutor, limit int) ([]*models.Player, error)
	// ApplyMatchResult folds one completed match into a player's aggregates:
	// winners gain a point and a win, losers a loss, both a played match.
	ApplyMatchResult(ctx context.Context, exec SQLExecutor, playerID int, won bool) error
	ResetStats(ctx context.Context, exec SQLExecutor) error
	UpdateAvatarKey(ctx context.Context, id int, key *string) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, name, points, matches_played, wins, losses, avatar_key, created_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	var p models.Player
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Points,
		&p.MatchesPlayed,
		&p.Wins,
		&p.Losses,
		&p.AvatarKey,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (name)
		VALUES ($1)
		RETURNING id, points, matches_played, wins, losses, created_at`

	err := r.db.QueryRowContext(ctx, query, player.Name).Scan(
		&player.ID,
		&player.Points,
		&player.MatchesPlayed,
		&player.Wins,
		&player.Losses,
		&player.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY points DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

func (r *postgresPlayerRepository) ListTop(ctx context.Context, exec SQLExecutor, limit int) ([]*models.Player, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY points DESC, id ASC LIMIT $1`

	rows, err := exec.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top %d players: %w", limit, err)
	}
	defer rows.Close()

	return collectPlayers(rows)
}

func collectPlayers(rows *sql.Rows) ([]*models.Player, error) {
	players := make([]*models.Player, 0)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) ApplyMatchResult(ctx context.Context, exec SQLExecutor, playerID int, won bool) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE players
		SET points = points + $1,
		    wins = wins + $1,
		    losses = losses + $2,
		    matches_played = matches_played + 1
		WHERE id = $3`

	winInc, lossInc := 0, 1
	if won {
		winInc, lossInc = 1, 0
	}

	result, err := exec.ExecContext(ctx, query, winInc, lossInc, playerID)
	if err != nil {
		return fmt.Errorf("failed to apply match result for player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ResetStats(ctx context.Context, exec SQLExecutor) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE players SET points = 0, matches_played = 0, wins = 0, losses = 0`
	if _, err := exec.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset player stats: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE players SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar key for player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
