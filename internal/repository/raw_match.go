package repository

import (
	"context"
	"database/sql"
	"fmt"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"

	"github.com/rs/zerolog"
)

type RawMatchRepository struct {
	db     DBTX
	sqlDB  *sql.DB
	logger zerolog.Logger
}

func NewRawMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *RawMatchRepository {
	return &RawMatchRepository{db: sqlDB, sqlDB: sqlDB, logger: logger}
}

// WithTx returns a copy bound to tx. Transaction-bound copies must not
// outlive the transaction.
func (r *RawMatchRepository) WithTx(tx *sql.Tx) *RawMatchRepository {
	return &RawMatchRepository{db: tx, logger: r.logger}
}

func (r *RawMatchRepository) Insert(ctx context.Context, rm *domain.RawMatch) (int64, error) {
	params, err := marshalParams(rm.RuleParams)
	if err != nil {
		return 0, err
	}

	var id int64
	err = WithRetry(ctx, r.logger, "insert raw match", func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO raw_matches (tournament_name, date, player_a_name, player_b_name, score_a, score_b, rule_type, rule_params)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rm.TournamentName, rm.Date, rm.PlayerAName, rm.PlayerBName,
			rm.ScoreA, rm.ScoreB, rm.RuleType, params,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// InsertBatch writes records in one transaction so a partially-ingested feed
// pull never leaks into a replay.
func (r *RawMatchRepository) InsertBatch(ctx context.Context, records []domain.RawMatch) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if r.sqlDB == nil {
		return 0, fmt.Errorf("insert batch requires a non-transactional repository")
	}

	tx, err := BeginTx(ctx, r.sqlDB, r.logger)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	qtx := r.WithTx(tx)
	inserted := 0
	for i := 0; i < len(records); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(records))
		for j := range records[i:end] {
			if _, err := qtx.Insert(ctx, &records[i+j]); err != nil {
				return 0, fmt.Errorf("failed to insert raw match %d: %w", i+j, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit raw match batch: %w", err)
	}
	return inserted, nil
}

// ListOrdered returns every raw match in replay order: date ascending, ties
// broken by insertion id. This ordering is the determinism contract; do not
// change it without replaying everything.
func (r *RawMatchRepository) ListOrdered(ctx context.Context) ([]domain.RawMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_name, date, player_a_name, player_b_name, score_a, score_b, rule_type, rule_params, created_at
		FROM raw_matches
		ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw matches: %w", err)
	}
	defer rows.Close()

	return scanRawMatches(rows)
}

func (r *RawMatchRepository) ListByTournamentName(ctx context.Context, name string) ([]domain.RawMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_name, date, player_a_name, player_b_name, score_a, score_b, rule_type, rule_params, created_at
		FROM raw_matches
		WHERE tournament_name = ?
		ORDER BY date ASC, id ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw matches for tournament: %w", err)
	}
	defer rows.Close()

	return scanRawMatches(rows)
}

func (r *RawMatchRepository) DeleteByTournamentName(ctx context.Context, name string) (int64, error) {
	var deleted int64
	err := WithRetry(ctx, r.logger, "delete raw matches", func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM raw_matches WHERE tournament_name = ?`, name)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func scanRawMatches(rows *sql.Rows) ([]domain.RawMatch, error) {
	var out []domain.RawMatch
	for rows.Next() {
		var rm domain.RawMatch
		var params string
		if err := rows.Scan(
			&rm.ID, &rm.TournamentName, &rm.Date, &rm.PlayerAName, &rm.PlayerBName,
			&rm.ScoreA, &rm.ScoreB, &rm.RuleType, &params, &rm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan raw match: %w", err)
		}
		parsed, err := unmarshalParams(params)
		if err != nil {
			return nil, err
		}
		rm.RuleParams = parsed
		out = append(out, rm)
	}
	return out, rows.Err()
}
