package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elo-ledger/internal/domain"

	"github.com/rs/zerolog"
)

type EloHistoryRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewEloHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *EloHistoryRepository {
	return &EloHistoryRepository{db: sqlDB, logger: logger}
}

func (r *EloHistoryRepository) WithTx(tx *sql.Tx) *EloHistoryRepository {
	return &EloHistoryRepository{db: tx, logger: r.logger}
}

func (r *EloHistoryRepository) Insert(ctx context.Context, e *domain.EloHistoryEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO elo_history (player_id, match_id, old_elo, new_elo, change_val, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.PlayerID, e.MatchID, e.OldElo, e.NewElo, e.Change, e.Date,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history entry for player %d: %w", e.PlayerID, err)
	}
	return res.LastInsertId()
}

func (r *EloHistoryRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM elo_history`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history: %w", err)
	}
	return res.RowsAffected()
}

func (r *EloHistoryRepository) DeleteByMatchIDs(ctx context.Context, matchIDs []int64) (int64, error) {
	if len(matchIDs) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM elo_history WHERE match_id IN (%s)`, placeholders(len(matchIDs)))
	res, err := r.db.ExecContext(ctx, query, int64Args(matchIDs)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history for matches: %w", err)
	}
	return res.RowsAffected()
}

// LatestForPlayer returns the entry with the greatest id, the player's most
// recent ledger line. ErrNotFound when no history remains.
func (r *EloHistoryRepository) LatestForPlayer(ctx context.Context, playerID int64) (*domain.EloHistoryEntry, error) {
	var e domain.EloHistoryEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT id, player_id, match_id, old_elo, new_elo, change_val, date
		FROM elo_history
		WHERE player_id = ?
		ORDER BY id DESC
		LIMIT 1`, playerID).
		Scan(&e.ID, &e.PlayerID, &e.MatchID, &e.OldElo, &e.NewElo, &e.Change, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history for player %d: %w", playerID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest history for player %d: %w", playerID, err)
	}
	return &e, nil
}

func (r *EloHistoryRepository) ListForPlayer(ctx context.Context, playerID int64, limit int) ([]domain.EloHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, player_id, match_id, old_elo, new_elo, change_val, date
		FROM elo_history
		WHERE player_id = ?
		ORDER BY id DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for player %d: %w", playerID, err)
	}
	defer rows.Close()

	var out []domain.EloHistoryEntry
	for rows.Next() {
		var e domain.EloHistoryEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.MatchID, &e.OldElo, &e.NewElo, &e.Change, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListForMatch returns both ledger lines of a match, insertion order.
func (r *EloHistoryRepository) ListForMatch(ctx context.Context, matchID int64) ([]domain.EloHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, player_id, match_id, old_elo, new_elo, change_val, date
		FROM elo_history
		WHERE match_id = ?
		ORDER BY id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var out []domain.EloHistoryEntry
	for rows.Next() {
		var e domain.EloHistoryEntry
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.MatchID, &e.OldElo, &e.NewElo, &e.Change, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
