package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

type MappingRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewMappingRepository(sqlDB *sql.DB, logger zerolog.Logger) *MappingRepository {
	return &MappingRepository{db: sqlDB, logger: logger}
}

func (r *MappingRepository) WithTx(tx *sql.Tx) *MappingRepository {
	return &MappingRepository{db: tx, logger: r.logger}
}

// TargetsFor returns every canonical player id the alias maps to. A healthy
// store yields zero or one; more than one distinct id means the mapping table
// was edited into an ambiguous state.
func (r *MappingRepository) TargetsFor(ctx context.Context, alias string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT target_player_id FROM player_mappings WHERE alias_name = ? ORDER BY id ASC`, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to look up alias %q: %w", alias, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MappingRepository) Create(ctx context.Context, alias string, playerID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO player_mappings (alias_name, target_player_id) VALUES (?, ?)`, alias, playerID); err != nil {
		return fmt.Errorf("failed to create mapping %q -> %d: %w", alias, playerID, err)
	}
	return nil
}
