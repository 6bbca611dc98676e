package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/minicup/models"
)

type StatusRepository interface {
	// Get returns the singleton status row, creating it with defaults on
	// first read. The INSERT is guarded by the primary key, so concurrent
	// first readers cannot create a second row.
	Get(ctx context.Context, exec SQLExecutor) (*models.TournamentStatus, error)
	// GetForUpdate locks the singleton row for the duration of the caller's
	// transaction. Phase transitions go through this to serialize their
	// read-check-write sequence.
	GetForUpdate(ctx context.Context, exec SQLExecutor) (*models.TournamentStatus, error)
	CompleteGroupPhase(ctx context.Context, exec SQLExecutor) error
	MarkKnockoutCreated(ctx context.Context, exec SQLExecutor) error
	SetChampion(ctx context.Context, exec SQLExecutor, championID int) error
	Reset(ctx context.Context, exec SQLExecutor) error
}

type postgresStatusRepository struct {
	db *sql.DB
}

func NewPostgresStatusRepository(db *sql.DB) StatusRepository {
	return &postgresStatusRepository{db: db}
}

const statusColumns = `id, current_phase, group_completed, knockout_created, champion_id`

func (r *postgresStatusRepository) Get(ctx context.Context, exec SQLExecutor) (*models.TournamentStatus, error) {
	if exec == nil {
		exec = r.db
	}

	insert := `
		INSERT INTO tournament_status (id, current_phase, group_completed, knockout_created)
		VALUES ($1, $2, FALSE, FALSE)
		ON CONFLICT (id) DO NOTHING`
	if _, err := exec.ExecContext(ctx, insert, models.StatusSingletonID, models.PhaseGroup); err != nil {
		return nil, fmt.Errorf("failed to initialize tournament status: %w", err)
	}

	query := `SELECT ` + statusColumns + ` FROM tournament_status WHERE id = $1`
	return r.scanStatus(exec.QueryRowContext(ctx, query, models.StatusSingletonID))
}

func (r *postgresStatusRepository) GetForUpdate(ctx context.Context, exec SQLExecutor) (*models.TournamentStatus, error) {
	if exec == nil {
		exec = r.db
	}
	if _, err := r.Get(ctx, exec); err != nil {
		return nil, err
	}

	query := `SELECT ` + statusColumns + ` FROM tournament_status WHERE id = $1 FOR UPDATE`
	return r.scanStatus(exec.QueryRowContext(ctx, query, models.StatusSingletonID))
}

func (r *postgresStatusRepository) scanStatus(row *sql.Row) (*models.TournamentStatus, error) {
	var status models.TournamentStatus
	err := row.Scan(
		&status.ID,
		&status.CurrentPhase,
		&status.GroupCompleted,
		&status.KnockoutCreated,
		&status.ChampionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tournament status: %w", err)
	}
	return &status, nil
}

func (r *postgresStatusRepository) CompleteGroupPhase(ctx context.Context, exec SQLExecutor) error {
	return r.exec(ctx, exec, `
		UPDATE tournament_status
		SET group_completed = TRUE, current_phase = $2
		WHERE id = $1`, models.StatusSingletonID, models.PhaseKnockout)
}

func (r *postgresStatusRepository) MarkKnockoutCreated(ctx context.Context, exec SQLExecutor) error {
	return r.exec(ctx, exec, `
		UPDATE tournament_status
		SET knockout_created = TRUE
		WHERE id = $1`, models.StatusSingletonID)
}

func (r *postgresStatusRepository) SetChampion(ctx context.Context, exec SQLExecutor, championID int) error {
	return r.exec(ctx, exec, `
		UPDATE tournament_status
		SET champion_id = $2
		WHERE id = $1 AND champion_id IS NULL`, models.StatusSingletonID, championID)
}

func (r *postgresStatusRepository) Reset(ctx context.Context, exec SQLExecutor) error {
	return r.exec(ctx, exec, `
		UPDATE tournament_status
		SET current_phase = $2, group_completed = FALSE, knockout_created = FALSE, champion_id = NULL
		WHERE id = $1`, models.StatusSingletonID, models.PhaseGroup)
}

func (r *postgresStatusRepository) exec(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return nil
}
