package identity_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/database"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/identity"
	"elo-ledger/internal/repository"

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

func newResolver(t *testing.T, db *sql.DB) *identity.Resolver {
	t.Helper()
	log := zerolog.Nop()
	return identity.NewResolver(
		repository.NewPlayerRepository(db, log),
		repository.NewMappingRepository(db, log),
		repository.NewTournamentRepository(db, log),
		log,
	)
}

func TestResolvePlayerCreatesOnFirstSight(t *testing.T) {
	db := testDB(t)
	resolver := newResolver(t, db)
	ctx := context.Background()

	id, err := resolver.ResolvePlayer(ctx, "Ada")
	require.NoError(t, err)
	require.NotZero(t, id)

	player, err := repository.NewPlayerRepository(db, zerolog.Nop()).GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", player.Name)
	assert.Equal(t, constants.BaselineElo, player.CurrentElo)

	assert.Equal(t, 1, resolver.PlayersCreated())
}

func TestResolvePlayerIsStableWithinARun(t *testing.T) {
	db := testDB(t)
	resolver := newResolver(t, db)
	ctx := context.Background()

	first, err := resolver.ResolvePlayer(ctx, "Ada")
	require.NoError(t, err)

	for range 5 {
		again, err := resolver.ResolvePlayer(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, resolver.PlayersCreated())
}

func TestResolvePlayerIsStableAcrossRuns(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first, err := newResolver(t, db).ResolvePlayer(ctx, "Ada")
	require.NoError(t, err)

	// A fresh resolver (fresh caches) finds the alias mapping, not a new row.
	second, err := newResolver(t, db).ResolvePlayer(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolvePlayerTrimsAndRejectsEmpty(t *testing.T) {
	db := testDB(t)
	resolver := newResolver(t, db)
	ctx := context.Background()

	id1, err := resolver.ResolvePlayer(ctx, "  Ada ")
	require.NoError(t, err)
	id2, err := resolver.ResolvePlayer(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = resolver.ResolvePlayer(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolvePlayerAmbiguousAlias(t *testing.T) {
	db := testDB(t)
	log := zerolog.Nop()
	players := repository.NewPlayerRepository(db, log)
	mappings := repository.NewMappingRepository(db, log)
	ctx := context.Background()

	// Two conflicting mapping rows, as a botched manual merge would leave.
	p1, err := players.Create(ctx, "Ada", constants.BaselineElo)
	require.NoError(t, err)
	p2, err := players.Create(ctx, "Ada L.", constants.BaselineElo)
	require.NoError(t, err)
	require.NoError(t, mappings.Create(ctx, "Ada", p1))
	require.NoError(t, mappings.Create(ctx, "Ada", p2))

	_, err = newResolver(t, db).ResolvePlayer(ctx, "Ada")
	assert.ErrorIs(t, err, domain.ErrAmbiguousIdentity)
}

func TestResolvePlayerDuplicateRowsSameTargetAreFine(t *testing.T) {
	db := testDB(t)
	log := zerolog.Nop()
	players := repository.NewPlayerRepository(db, log)
	mappings := repository.NewMappingRepository(db, log)
	ctx := context.Background()

	p1, err := players.Create(ctx, "Ada", constants.BaselineElo)
	require.NoError(t, err)
	require.NoError(t, mappings.Create(ctx, "Ada", p1))
	require.NoError(t, mappings.Create(ctx, "Ada", p1))

	id, err := newResolver(t, db).ResolvePlayer(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, p1, id)
}

func TestResolveTournament(t *testing.T) {
	db := testDB(t)
	resolver := newResolver(t, db)
	ctx := context.Background()

	id, err := resolver.ResolveTournament(ctx, "Spring Invitational", "2025-02-15")
	require.NoError(t, err)

	// The date only matters at creation; later calls reuse the cached id.
	again, err := resolver.ResolveTournament(ctx, "Spring Invitational", "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, resolver.TournamentsCreated())

	tournament, err := repository.NewTournamentRepository(db, zerolog.Nop()).GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-15", tournament.Date)
}

func TestResolveAliasesCanShareACanonicalPlayer(t *testing.T) {
	db := testDB(t)
	log := zerolog.Nop()
	players := repository.NewPlayerRepository(db, log)
	mappings := repository.NewMappingRepository(db, log)
	ctx := context.Background()

	canonical, err := players.Create(ctx, "Ada Lovelace", constants.BaselineElo)
	require.NoError(t, err)
	require.NoError(t, mappings.Create(ctx, "Ada Lovelace", canonical))
	require.NoError(t, mappings.Create(ctx, "A. Lovelace", canonical))

	resolver := newResolver(t, db)
	id1, err := resolver.ResolvePlayer(ctx, "Ada Lovelace")
	require.NoError(t, err)
	id2, err := resolver.ResolvePlayer(ctx, "A. Lovelace")
	require.NoError(t, err)
	assert.Equal(t, canonical, id1)
	assert.Equal(t, canonical, id2)
	assert.Zero(t, resolver.PlayersCreated())
}
