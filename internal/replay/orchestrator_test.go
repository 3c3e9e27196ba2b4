package replay_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/database"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/repository"
	"elo-ledger/internal/replay"
	"elo-ledger/internal/undo"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertRaw(t *testing.T, db *sql.DB, rm domain.RawMatch) int64 {
	t.Helper()
	id, err := repository.NewRawMatchRepository(db, zerolog.Nop()).Insert(context.Background(), &rm)
	require.NoError(t, err)
	return id
}

func playerByName(t *testing.T, db *sql.DB, name string) domain.Player {
	t.Helper()
	players, err := repository.NewPlayerRepository(db, zerolog.Nop()).Search(context.Background(), name, 10)
	require.NoError(t, err)
	require.Len(t, players, 1, "expected exactly one player named %q", name)
	return players[0]
}

func roundRaw(tournament, date, a, b string, scoreA, scoreB int) domain.RawMatch {
	return domain.RawMatch{
		TournamentName: tournament,
		Date:           date,
		PlayerAName:    a,
		PlayerBName:    b,
		ScoreA:         scoreA,
		ScoreB:         scoreB,
		RuleType:       domain.RuleTypeRound,
		RuleParams:     map[string]float64{"C": 7, "G": 7},
	}
}

func TestReplaySingleMatch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	insertRaw(t, db, roundRaw("Spring Invitational", "2025-02-15", "A", "B", 7, 3))

	summary, err := replay.NewOrchestrator(db, log).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Events)
	assert.Equal(t, 1, summary.Matches)
	assert.Equal(t, 2, summary.PlayersCreated)
	assert.Equal(t, 1, summary.TournamentsCreated)
	assert.NotEmpty(t, summary.RunID)

	// E = 0.5, S = (7/10)*(7/7) = 0.7, K = 32, delta = round(32*0.2) = 6.
	playerA := playerByName(t, db, "A")
	playerB := playerByName(t, db, "B")
	assert.Equal(t, 456, playerA.CurrentElo)
	assert.Equal(t, 444, playerB.CurrentElo)

	tournaments := repository.NewTournamentRepository(db, log)
	ids, err := tournaments.IDsByName(ctx, "Spring Invitational")
	require.NoError(t, err)
	require.Len(t, ids, 1)

	matches, err := repository.NewMatchRepository(db, log).ListByTournament(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, playerA.ID, matches[0].WinnerID)
	assert.Equal(t, playerB.ID, matches[0].LoserID)
	assert.Equal(t, 7, matches[0].ScoreWinner)
	assert.Equal(t, 3, matches[0].ScoreLoser)
	assert.True(t, matches[0].IsCalculated)

	history := repository.NewEloHistoryRepository(db, log)
	entries, err := history.ListForMatch(ctx, matches[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 6, entries[0].Change)
	assert.Equal(t, -6, entries[1].Change)
	assert.Equal(t, 450, entries[0].OldElo)
	assert.Equal(t, 456, entries[0].NewElo)
	assert.Equal(t, 444, entries[1].NewElo)
}

func TestReplayZeroSumAndRatingMatchesLatestHistory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 7, 3))
	insertRaw(t, db, roundRaw("T", "2025-02-15", "B", "C", 6, 7))
	insertRaw(t, db, domain.RawMatch{
		TournamentName: "T2", Date: "2025-03-01",
		PlayerAName: "A", PlayerBName: "C", ScoreA: 11, ScoreB: 9,
		RuleType: domain.RuleTypeCap, RuleParams: map[string]float64{"Q": 11},
	})

	_, err := replay.NewOrchestrator(db, log).Run(ctx)
	require.NoError(t, err)

	history := repository.NewEloHistoryRepository(db, log)
	players := repository.NewPlayerRepository(db, log)

	total := 0
	for _, name := range []string{"A", "B", "C"} {
		p := playerByName(t, db, name)
		total += p.CurrentElo - constants.BaselineElo

		latest, err := history.LatestForPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.CurrentElo, latest.NewElo, "player %s rating must match latest ledger line", name)

		elo, err := players.CurrentElo(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.CurrentElo, elo)
	}
	// All transfers cancel across the whole ledger.
	assert.Zero(t, total)
}

func TestReplayIsDeterministic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 7, 3))
	insertRaw(t, db, roundRaw("T", "2025-02-15", "C", "A", 2, 7))
	insertRaw(t, db, roundRaw("T2", "2025-06-20", "B", "C", 7, 6))

	orchestrator := replay.NewOrchestrator(db, log)

	snapshot := func() map[string]int {
		out := map[string]int{}
		players, err := repository.NewPlayerRepository(db, log).Leaderboard(ctx, 100)
		require.NoError(t, err)
		for _, p := range players {
			out[p.Name] = p.CurrentElo
		}
		return out
	}

	_, err := orchestrator.Run(ctx)
	require.NoError(t, err)
	first := snapshot()

	_, err = orchestrator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot())
}

func TestReplaySameDateEventsApplyInInsertionOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	// Same date; the second row must see ratings produced by the first.
	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 7, 0))
	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 7, 0))

	_, err := replay.NewOrchestrator(db, log).Run(ctx)
	require.NoError(t, err)

	playerA := playerByName(t, db, "A")
	history := repository.NewEloHistoryRepository(db, log)
	entries, err := history.ListForPlayer(ctx, playerA.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first: its old rating is the first event's new rating.
	assert.Equal(t, entries[1].NewElo, entries[0].OldElo)
	assert.Equal(t, playerA.CurrentElo, entries[0].NewElo)
	// Second transfer is smaller: A was already favored.
	assert.Less(t, entries[0].Change, entries[1].Change)
}

func TestReplayTieGoesToPlayerA(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 5, 5))

	_, err := replay.NewOrchestrator(db, log).Run(ctx)
	require.NoError(t, err)

	playerA := playerByName(t, db, "A")
	ids, err := repository.NewTournamentRepository(db, log).IDsByName(ctx, "T")
	require.NoError(t, err)
	matches, err := repository.NewMatchRepository(db, log).ListByTournament(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, playerA.ID, matches[0].WinnerID)

	// Even ratings, even score: no transfer.
	assert.Equal(t, constants.BaselineElo, playerA.CurrentElo)
}

func TestReplayEmptyLog(t *testing.T) {
	db := testDB(t)

	summary, err := replay.NewOrchestrator(db, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Events)
}

func TestReplayAbortsOnInvalidEventAndKeepsPriorState(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 7, 3))

	orchestrator := replay.NewOrchestrator(db, log)
	_, err := orchestrator.Run(ctx)
	require.NoError(t, err)

	// A malformed row (broken date) makes the next replay fail...
	insertRaw(t, db, domain.RawMatch{
		TournamentName: "T", Date: "not-a-date",
		PlayerAName: "A", PlayerBName: "C", ScoreA: 7, ScoreB: 0,
		RuleType: domain.RuleTypeRound,
	})
	_, err = orchestrator.Run(ctx)
	require.ErrorIs(t, err, domain.ErrValidation)

	// ...and the transaction rollback keeps the previous derived state.
	assert.Equal(t, 456, playerByName(t, db, "A").CurrentElo)
	assert.Equal(t, 444, playerByName(t, db, "B").CurrentElo)

	count, err := repository.NewMatchRepository(db, log).CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestReplayAbortsWhenBothSidesResolveToOnePlayer(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "A", 7, 3))

	_, err := replay.NewOrchestrator(db, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReplayCancelledBetweenEvents(t *testing.T) {
	db := testDB(t)

	insertRaw(t, db, roundRaw("T", "2025-02-15", "A", "B", 7, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := replay.NewOrchestrator(db, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUndoThenReplayRestoresBaseline(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	insertRaw(t, db, roundRaw("Spring Invitational", "2025-02-15", "A", "B", 7, 3))

	orchestrator := replay.NewOrchestrator(db, log)
	_, err := orchestrator.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 456, playerByName(t, db, "A").CurrentElo)

	deleted, err := undo.NewManager(db, log).DeleteTournamentRaw(ctx, "Spring Invitational")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	summary, err := orchestrator.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Events)

	// Identity survives; derived state is gone.
	assert.Equal(t, constants.BaselineElo, playerByName(t, db, "A").CurrentElo)
	assert.Equal(t, constants.BaselineElo, playerByName(t, db, "B").CurrentElo)

	count, err := repository.NewMatchRepository(db, log).CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	playerA := playerByName(t, db, "A")
	_, err = repository.NewEloHistoryRepository(db, log).LatestForPlayer(ctx, playerA.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
