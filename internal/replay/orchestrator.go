// Package replay rebuilds all derived ranking state from the raw result log.
// A run deletes every match and history row, resets ratings to the baseline
// and re-applies raw results in a fixed order, so the derived tables are
// always a deterministic function of the raw set.
package replay

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/identity"
	"elo-ledger/internal/repository"
	"elo-ledger/internal/rules"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Summary reports what one full replay rebuilt.
type Summary struct {
	RunID              string        `json:"run_id"`
	Events             int           `json:"events"`
	Matches            int           `json:"matches"`
	PlayersCreated     int           `json:"players_created"`
	TournamentsCreated int           `json:"tournaments_created"`
	Duration           time.Duration `json:"duration"`
}

type Orchestrator struct {
	db     *sql.DB
	logger zerolog.Logger

	// mu is the run gate: concurrent replays would race on entity creation
	// and rating read-after-write, so a second caller is rejected outright.
	mu sync.Mutex
}

func NewOrchestrator(db *sql.DB, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{db: db, logger: logger}
}

// Run executes one full replay inside a single transaction. Either every raw
// result is applied and committed, or the database keeps its previous derived
// state; there is no partially-replayed visible state. Cancellation is
// cooperative and checked between events.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if !o.mu.TryLock() {
		return nil, domain.ErrReplayInProgress
	}
	defer o.mu.Unlock()

	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	logger := o.logger.With().Str("run_id", runID).Logger()
	start := time.Now()

	tx, err := repository.BeginTx(ctx, o.db, logger)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	players := repository.NewPlayerRepository(o.db, logger).WithTx(tx)
	mappings := repository.NewMappingRepository(o.db, logger).WithTx(tx)
	tournaments := repository.NewTournamentRepository(o.db, logger).WithTx(tx)
	matches := repository.NewMatchRepository(o.db, logger).WithTx(tx)
	history := repository.NewEloHistoryRepository(o.db, logger).WithTx(tx)
	rawMatches := repository.NewRawMatchRepository(o.db, logger).WithTx(tx)

	resolver := identity.NewResolver(players, mappings, tournaments, logger)

	logger.Info().Msg("resetting derived tables")
	histDeleted, err := history.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	matchesDeleted, err := matches.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	playersReset, err := players.ResetAllElo(ctx, constants.BaselineElo)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int64("history_deleted", histDeleted).
		Int64("matches_deleted", matchesDeleted).
		Int64("players_reset", playersReset).
		Msg("derived tables reset")

	raws, err := rawMatches.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("events", len(raws)).Msg("streaming raw results")

	applied := 0
	for i := range raws {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay cancelled after %d events: %w", applied, err)
		}
		if err := o.apply(ctx, &raws[i], resolver, players, matches, history); err != nil {
			// Correctness over partial progress: the deferred rollback
			// discards everything this run did.
			logger.Error().Err(err).Int64("raw_match_id", raws[i].ID).Msg("replay aborted")
			return nil, fmt.Errorf("raw match %d (%s vs %s): %w",
				raws[i].ID, raws[i].PlayerAName, raws[i].PlayerBName, err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit replay: %w", err)
	}

	summary := &Summary{
		RunID:              runID,
		Events:             applied,
		Matches:            applied,
		PlayersCreated:     resolver.PlayersCreated(),
		TournamentsCreated: resolver.TournamentsCreated(),
		Duration:           time.Since(start),
	}
	logger.Info().
		Int("events", summary.Events).
		Int("players_created", summary.PlayersCreated).
		Int("tournaments_created", summary.TournamentsCreated).
		Dur("duration", summary.Duration).
		Msg("replay complete")
	return summary, nil
}

// apply processes one raw result: resolve identities, read current ratings,
// compute the symmetric transfer, persist one match row, two ledger lines
// and both new ratings. The next event sees the updated ratings.
func (o *Orchestrator) apply(
	ctx context.Context,
	raw *domain.RawMatch,
	resolver *identity.Resolver,
	players *repository.PlayerRepository,
	matches *repository.MatchRepository,
	history *repository.EloHistoryRepository,
) error {
	if err := raw.Validate(); err != nil {
		return err
	}
	rule, err := domain.ParseRule(raw.RuleType, raw.RuleParams)
	if err != nil {
		return err
	}

	tournamentID, err := resolver.ResolveTournament(ctx, raw.TournamentName, raw.Date)
	if err != nil {
		return err
	}
	playerA, err := resolver.ResolvePlayer(ctx, raw.PlayerAName)
	if err != nil {
		return err
	}
	playerB, err := resolver.ResolvePlayer(ctx, raw.PlayerBName)
	if err != nil {
		return err
	}
	if playerA == playerB {
		return domain.Validation("both sides resolve to player %d", playerA)
	}

	eloA, err := players.CurrentElo(ctx, playerA)
	if err != nil {
		return err
	}
	eloB, err := players.CurrentElo(ctx, playerB)
	if err != nil {
		return err
	}

	// S, E and the delta are all from player A's perspective; B's delta is
	// the exact negation, which is what keeps the ledger zero-sum.
	s := rules.ScoreFactor(raw.ScoreA, raw.ScoreB, rule)
	e := rules.Expectancy(float64(eloA), float64(eloB))
	k := rules.KFactor(rule)
	deltaA := rules.Delta(k, s, e)
	deltaB := -deltaA

	newA := eloA + deltaA
	newB := eloB + deltaB
	if deltaA+deltaB != 0 || newA+newB != eloA+eloB {
		return fmt.Errorf("%w: deltas %d/%d do not cancel", domain.ErrConsistency, deltaA, deltaB)
	}

	// Tie goes to player A. Deterministic and matches the source system.
	winnerID, loserID := playerA, playerB
	if raw.ScoreB > raw.ScoreA {
		winnerID, loserID = playerB, playerA
	}

	matchID, err := matches.Insert(ctx, &domain.Match{
		TournamentID: tournamentID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		ScoreWinner:  max(raw.ScoreA, raw.ScoreB),
		ScoreLoser:   min(raw.ScoreA, raw.ScoreB),
		RuleType:     raw.RuleType,
		RuleParams:   raw.RuleParams,
		IsCalculated: true,
	})
	if err != nil {
		return err
	}

	for _, entry := range []domain.EloHistoryEntry{
		{PlayerID: playerA, MatchID: &matchID, OldElo: eloA, NewElo: newA, Change: deltaA, Date: raw.Date},
		{PlayerID: playerB, MatchID: &matchID, OldElo: eloB, NewElo: newB, Change: deltaB, Date: raw.Date},
	} {
		if _, err := history.Insert(ctx, &entry); err != nil {
			return err
		}
	}

	if err := players.UpdateElo(ctx, playerA, newA); err != nil {
		return err
	}
	if err := players.UpdateElo(ctx, playerB, newB); err != nil {
		return err
	}

	o.logger.Debug().
		Int64("match_id", matchID).
		Str("player_a", raw.PlayerAName).
		Str("player_b", raw.PlayerBName).
		Int("delta", deltaA).
		Int("new_elo_a", newA).
		Int("new_elo_b", newB).
		Msg("result applied")
	return nil
}
