// Package undo implements the two recovery procedures: removing raw results
// at the source (followed by a full replay), and the legacy point-in-time
// rollback that restores only the affected derived rows.
package undo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/repository"

	"github.com/rs/zerolog"
)

type Manager struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewManager(db *sql.DB, logger zerolog.Logger) *Manager {
	return &Manager{db: db, logger: logger}
}

// RollbackResult reports what a point-in-time rollback touched.
type RollbackResult struct {
	TournamentID    int64 `json:"tournament_id"`
	MatchesReset    int64 `json:"matches_reset"`
	HistoryDeleted  int64 `json:"history_deleted"`
	PlayersRestored int   `json:"players_restored"`
}

// DeleteTournamentRaw removes every raw result for a tournament name. This
// never touches derived rows; the caller must run a full replay afterwards,
// which is the only correction path compatible with the derived-state
// invariants.
func (m *Manager) DeleteTournamentRaw(ctx context.Context, name string) (int64, error) {
	raws := repository.NewRawMatchRepository(m.db, m.logger)

	rows, err := raws.ListByTournamentName(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no raw results for tournament %q: %w", name, domain.ErrNotFound)
	}

	m.logger.Info().Str("tournament", name).Int("raw_results", len(rows)).Msg("deleting raw results")
	deleted, err := raws.DeleteByTournamentName(ctx, name)
	if err != nil {
		return 0, err
	}

	m.logger.Info().
		Str("tournament", name).
		Int64("deleted", deleted).
		Msg("raw results deleted; run a full replay to refresh derived state")
	return deleted, nil
}

// RollbackTournament restores affected players and matches to their state
// before the tournament, without touching the raw result log. Retained for
// matches that predate the raw-result model; deletions and restores run in
// one transaction so an interrupted rollback changes nothing.
func (m *Manager) RollbackTournament(ctx context.Context, tournamentID int64) (*RollbackResult, error) {
	tx, err := repository.BeginTx(ctx, m.db, m.logger)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	matches := repository.NewMatchRepository(m.db, m.logger).WithTx(tx)
	history := repository.NewEloHistoryRepository(m.db, m.logger).WithTx(tx)
	players := repository.NewPlayerRepository(m.db, m.logger).WithTx(tx)

	affected, err := matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(affected) == 0 {
		return nil, fmt.Errorf("tournament %d has no matches: %w", tournamentID, domain.ErrNotFound)
	}

	matchIDs := make([]int64, 0, len(affected))
	playerSet := make(map[int64]struct{})
	for _, match := range affected {
		matchIDs = append(matchIDs, match.ID)
		playerSet[match.WinnerID] = struct{}{}
		playerSet[match.LoserID] = struct{}{}
	}

	m.logger.Info().
		Int64("tournament_id", tournamentID).
		Int("matches", len(matchIDs)).
		Int("players", len(playerSet)).
		Msg("rolling back tournament")

	histDeleted, err := history.DeleteByMatchIDs(ctx, matchIDs)
	if err != nil {
		return nil, err
	}
	matchesReset, err := matches.MarkUncalculated(ctx, matchIDs)
	if err != nil {
		return nil, err
	}

	// Affected players are independent once their history is gone; sorted
	// iteration just keeps the logs stable.
	playerIDs := make([]int64, 0, len(playerSet))
	for id := range playerSet {
		playerIDs = append(playerIDs, id)
	}
	sort.Slice(playerIDs, func(i, j int) bool { return playerIDs[i] < playerIDs[j] })

	for _, playerID := range playerIDs {
		restore := constants.BaselineElo
		latest, err := history.LatestForPlayer(ctx, playerID)
		switch {
		case err == nil:
			restore = latest.NewElo
		case errors.Is(err, domain.ErrNotFound):
			// First recorded play was in this tournament; back to baseline.
		default:
			return nil, err
		}
		if err := players.UpdateElo(ctx, playerID, restore); err != nil {
			return nil, err
		}
		m.logger.Debug().Int64("player_id", playerID).Int("restored_elo", restore).Msg("player restored")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rollback: %w", err)
	}

	result := &RollbackResult{
		TournamentID:    tournamentID,
		MatchesReset:    matchesReset,
		HistoryDeleted:  histDeleted,
		PlayersRestored: len(playerIDs),
	}
	m.logger.Info().
		Int64("tournament_id", tournamentID).
		Int64("matches_reset", result.MatchesReset).
		Int64("history_deleted", result.HistoryDeleted).
		Int("players_restored", result.PlayersRestored).
		Msg("rollback complete")
	return result, nil
}
