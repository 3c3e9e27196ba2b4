package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elo-ledger/internal/domain"

	"github.com/rs/zerolog"
)

type TournamentRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewTournamentRepository(sqlDB *sql.DB, logger zerolog.Logger) *TournamentRepository {
	return &TournamentRepository{db: sqlDB, logger: logger}
}

func (r *TournamentRepository) WithTx(tx *sql.Tx) *TournamentRepository {
	return &TournamentRepository{db: tx, logger: r.logger}
}

// IDsByName returns all tournament ids carrying the name, oldest first.
func (r *TournamentRepository) IDsByName(ctx context.Context, name string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM tournaments WHERE name = ? ORDER BY id ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tournament %q: %w", name, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tournament id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TournamentRepository) Create(ctx context.Context, name, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO tournaments (name, date) VALUES (?, ?)`, name, date)
	if err != nil {
		return 0, fmt.Errorf("failed to create tournament %q: %w", name, err)
	}
	return res.LastInsertId()
}

func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (*domain.Tournament, error) {
	var t domain.Tournament
	err := r.db.QueryRowContext(ctx, `SELECT id, name, date FROM tournaments WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tournament %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return &t, nil
}
