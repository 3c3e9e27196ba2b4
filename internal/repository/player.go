package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elo-ledger/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{db: tx, logger: r.logger}
}

func (r *PlayerRepository) Create(ctx context.Context, name string, elo int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO players (name, current_elo) VALUES (?, ?)`, name, elo)
	if err != nil {
		return 0, fmt.Errorf("failed to create player %q: %w", name, err)
	}
	return res.LastInsertId()
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	var p domain.Player
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, current_elo, created_at, updated_at
		FROM players WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CurrentElo, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return &p, nil
}

// CurrentElo reads the running rating. During a replay this reflects every
// event already applied in the same transaction.
func (r *PlayerRepository) CurrentElo(ctx context.Context, id int64) (int, error) {
	var elo int
	err := r.db.QueryRowContext(ctx, `SELECT current_elo FROM players WHERE id = ?`, id).Scan(&elo)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("player %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read rating for player %d: %w", id, err)
	}
	return elo, nil
}

func (r *PlayerRepository) UpdateElo(ctx context.Context, id int64, elo int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET current_elo = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, elo, id)
	if err != nil {
		return fmt.Errorf("failed to update rating for player %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("player %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ResetAllElo puts every player back to the baseline. Identity rows survive a
// replay; only the derived rating is rebuilt.
func (r *PlayerRepository) ResetAllElo(ctx context.Context, baseline int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET current_elo = ?, updated_at = CURRENT_TIMESTAMP`, baseline)
	if err != nil {
		return 0, fmt.Errorf("failed to reset ratings: %w", err)
	}
	return res.RowsAffected()
}

func (r *PlayerRepository) Leaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, current_elo, created_at, updated_at
		FROM players
		ORDER BY current_elo DESC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

func (r *PlayerRepository) Search(ctx context.Context, query string, limit int) ([]domain.Player, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, current_elo, created_at, updated_at
		FROM players
		WHERE name LIKE ?
		ORDER BY current_elo DESC, id ASC
		LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

func scanPlayers(rows *sql.Rows) ([]domain.Player, error) {
	var out []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.CurrentElo, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
