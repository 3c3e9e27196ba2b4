package repository

import (
	"context"
	"database/sql"
	"fmt"

	"elo-ledger/internal/domain"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: sqlDB, logger: logger}
}

func (r *MatchRepository) WithTx(tx *sql.Tx) *MatchRepository {
	return &MatchRepository{db: tx, logger: r.logger}
}

func (r *MatchRepository) Insert(ctx context.Context, m *domain.Match) (int64, error) {
	params, err := marshalParams(m.RuleParams)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (tournament_id, winner_id, loser_id, score_winner, score_loser, rule_type, rule_params, is_calculated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.TournamentID, m.WinnerID, m.LoserID, m.ScoreWinner, m.ScoreLoser,
		m.RuleType, params, m.IsCalculated,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert match: %w", err)
	}
	return res.LastInsertId()
}

func (r *MatchRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", err)
	}
	return res.RowsAffected()
}

func (r *MatchRepository) ListByTournament(ctx context.Context, tournamentID int64) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, winner_id, loser_id, score_winner, score_loser, rule_type, rule_params, is_calculated
		FROM matches
		WHERE tournament_id = ?
		ORDER BY id ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var out []domain.Match
	for rows.Next() {
		var m domain.Match
		var params string
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.WinnerID, &m.LoserID,
			&m.ScoreWinner, &m.ScoreLoser, &m.RuleType, &params, &m.IsCalculated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		parsed, err := unmarshalParams(params)
		if err != nil {
			return nil, err
		}
		m.RuleParams = parsed
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkUncalculated flips matches back to not-completed during a rollback so
// a later pass can rescore them.
func (r *MatchRepository) MarkUncalculated(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`UPDATE matches SET is_calculated = 0 WHERE id IN (%s)`, placeholders(len(ids)))
	res, err := r.db.ExecContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark matches uncalculated: %w", err)
	}
	return res.RowsAffected()
}

// CountAll reports the number of derived match rows.
func (r *MatchRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}
