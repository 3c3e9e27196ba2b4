// Package identity maps free-text player and tournament names to stable ids,
// creating canonical entities on first sight.
package identity

import (
	"context"
	"fmt"
	"strings"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/repository"

	"github.com/rs/zerolog"
)

// Resolver carries the name caches for exactly one replay run. It is owned
// by the orchestrator invocation that created it and must not be shared
// across runs or goroutines; the single-writer model depends on that.
type Resolver struct {
	players     *repository.PlayerRepository
	mappings    *repository.MappingRepository
	tournaments *repository.TournamentRepository
	logger      zerolog.Logger

	playerIDs     map[string]int64
	tournamentIDs map[string]int64

	playersCreated     int
	tournamentsCreated int
}

func NewResolver(
	players *repository.PlayerRepository,
	mappings *repository.MappingRepository,
	tournaments *repository.TournamentRepository,
	logger zerolog.Logger,
) *Resolver {
	return &Resolver{
		players:       players,
		mappings:      mappings,
		tournaments:   tournaments,
		logger:        logger,
		playerIDs:     make(map[string]int64),
		tournamentIDs: make(map[string]int64),
	}
}

// ResolvePlayer returns the canonical player id for a free-text name. The
// alias table is consulted on cache miss; an unseen name registers a new
// player at the baseline rating plus its alias mapping.
func (r *Resolver) ResolvePlayer(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.Validation("player name must be non-empty")
	}

	if id, ok := r.playerIDs[name]; ok {
		return id, nil
	}

	targets, err := r.mappings.TargetsFor(ctx, name)
	if err != nil {
		return 0, err
	}

	switch {
	case len(targets) == 1:
		r.playerIDs[name] = targets[0]
		return targets[0], nil
	case len(targets) > 1:
		if allEqual(targets) {
			// Duplicate rows pointing at the same player are harmless noise.
			r.playerIDs[name] = targets[0]
			return targets[0], nil
		}
		return 0, fmt.Errorf("%w: alias %q maps to players %v", domain.ErrAmbiguousIdentity, name, targets)
	}

	id, err := r.players.Create(ctx, name, constants.BaselineElo)
	if err != nil {
		return 0, err
	}
	if err := r.mappings.Create(ctx, name, id); err != nil {
		return 0, err
	}

	r.logger.Info().Str("name", name).Int64("player_id", id).Msg("registered new player")
	r.playerIDs[name] = id
	r.playersCreated++
	return id, nil
}

// ResolveTournament returns the tournament id for a name, creating the row
// with the given date on first encounter. The date only matters at creation.
func (r *Resolver) ResolveTournament(ctx context.Context, name, date string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.Validation("tournament name must be non-empty")
	}

	if id, ok := r.tournamentIDs[name]; ok {
		return id, nil
	}

	ids, err := r.tournaments.IDsByName(ctx, name)
	if err != nil {
		return 0, err
	}

	switch {
	case len(ids) == 1:
		r.tournamentIDs[name] = ids[0]
		return ids[0], nil
	case len(ids) > 1:
		return 0, fmt.Errorf("%w: tournament name %q has %d rows", domain.ErrAmbiguousIdentity, name, len(ids))
	}

	id, err := r.tournaments.Create(ctx, name, date)
	if err != nil {
		return 0, err
	}

	r.logger.Info().Str("name", name).Int64("tournament_id", id).Msg("registered new tournament")
	r.tournamentIDs[name] = id
	r.tournamentsCreated++
	return id, nil
}

// PlayersCreated reports how many players this run registered.
func (r *Resolver) PlayersCreated() int { return r.playersCreated }

// TournamentsCreated reports how many tournaments this run registered.
func (r *Resolver) TournamentsCreated() int { return r.tournamentsCreated }

func allEqual(ids []int64) bool {
	for _, id := range ids[1:] {
		if id != ids[0] {
			return false
		}
	}
	return true
}
