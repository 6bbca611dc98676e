package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/minicup/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound             = errors.New("match not found")
	ErrMatchPlayerInvalid        = errors.New("match references an unknown player")
	ErrMatchGroupPairingConflict = errors.New("a group match between these players already exists")
	ErrMatchAlreadyCompletedInDB = errors.New("match is already completed")
)

// MatchFilter narrows List results. Nil fields are not filtered on.
type MatchFilter struct {
	Phase     *models.Phase
	Completed *bool
	Round     *models.Round
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// List returns matches with player detail, pending matches first.
	List(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error)
	CountIncomplete(ctx context.Context, exec SQLExecutor, phase models.Phase) (int, error)
	// CompleteWithScore persists scores and the winner and flips the
	// completed flag. It only touches rows that are still incomplete, so a
	// second submission for the same match affects zero rows.
	CompleteWithScore(ctx context.Context, exec SQLExecutor, id, score1, score2, winnerID int) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchSelect = `
	SELECT
		m.id, m.player1_id, m.player2_id, m.player1_score, m.player2_score,
		m.winner_id, m.phase, m.round, m.completed, m.created_at,
		p1.id, p1.name, p1.points, p1.matches_played, p1.wins, p1.losses,
		p2.id, p2.name, p2.points, p2.matches_played, p2.wins, p2.losses,
		w.id, w.name, w.points, w.matches_played, w.wins, w.losses
	FROM matches m
	JOIN players p1 ON m.player1_id = p1.id
	JOIN players p2 ON m.player2_id = p2.id
	LEFT JOIN players w ON m.winner_id = w.id`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO matches (player1_id, player2_id, phase, round)
		VALUES ($1, $2, $3, $4)
		RETURNING id, completed, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.Player1ID,
		match.Player2ID,
		match.Phase,
		match.Round,
	).Scan(&match.ID, &match.Completed, &match.CreatedAt)

	return handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := matchSelect + ` WHERE m.id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error) {
	if exec == nil {
		exec = r.db
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(matchSelect)

	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.Phase != nil {
		args = append(args, *filter.Phase)
		conditions = append(conditions, "m.phase = $"+strconv.Itoa(len(args)))
	}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conditions = append(conditions, "m.completed = $"+strconv.Itoa(len(args)))
	}
	if filter.Round != nil {
		args = append(args, *filter.Round)
		conditions = append(conditions, "m.round = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	// Pending matches surface first; id keeps ordering stable within a group.
	queryBuilder.WriteString(" ORDER BY m.completed ASC, m.id ASC")

	rows, err := exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountIncomplete(ctx context.Context, exec SQLExecutor, phase models.Phase) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT COUNT(*) FROM matches WHERE phase = $1 AND completed = FALSE`

	var count int
	if err := exec.QueryRowContext(ctx, query, phase).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incomplete %s matches: %w", phase, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) CompleteWithScore(ctx context.Context, exec SQLExecutor, id, score1, score2, winnerID int) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE matches
		SET player1_score = $1, player2_score = $2, winner_id = $3, completed = TRUE
		WHERE id = $4 AND completed = FALSE`

	result, err := exec.ExecContext(ctx, query, score1, score2, winnerID, id)
	if err != nil {
		return handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyCompletedInDB)
}

func (r *postgresMatchRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var (
		m      models.Match
		p1, p2 models.Player
		wID    sql.NullInt64
		wName  sql.NullString
		wStats [4]sql.NullInt64
	)

	err := row.Scan(
		&m.ID, &m.Player1ID, &m.Player2ID, &m.Player1Score, &m.Player2Score,
		&m.WinnerID, &m.Phase, &m.Round, &m.Completed, &m.CreatedAt,
		&p1.ID, &p1.Name, &p1.Points, &p1.MatchesPlayed, &p1.Wins, &p1.Losses,
		&p2.ID, &p2.Name, &p2.Points, &p2.MatchesPlayed, &p2.Wins, &p2.Losses,
		&wID, &wName, &wStats[0], &wStats[1], &wStats[2], &wStats[3],
	)
	if err != nil {
		return nil, err
	}

	m.Player1 = &p1
	m.Player2 = &p2
	if wID.Valid {
		m.Winner = &models.Player{
			ID:            int(wID.Int64),
			Name:          wName.String,
			Points:        int(wStats[0].Int64),
			MatchesPlayed: int(wStats[1].Int64),
			Wins:          int(wStats[2].Int64),
			Losses:        int(wStats[3].Int64),
		}
	}
	return &m, nil
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "matches_group_pairing_key" {
				return ErrMatchGroupPairingConflict
			}
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_player1_id_fkey", "matches_player2_id_fkey", "matches_winner_id_fkey":
				return ErrMatchPlayerInvalid
			}
		}
	}
	return err
}
