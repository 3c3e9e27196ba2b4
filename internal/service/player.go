package service

import (
	"context"
	"strings"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type PlayerService struct {
	players *repository.PlayerRepository
	history *repository.EloHistoryRepository
	logger  zerolog.Logger
}

func NewPlayerService(players *repository.PlayerRepository, history *repository.EloHistoryRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{players: players, history: history, logger: logger}
}

// PlayerDetail is one player with their full derivation trail.
type PlayerDetail struct {
	Player  domain.Player            `json:"player"`
	History []domain.EloHistoryEntry `json:"history"`
}

// GetPlayer loads the player row and their rating history concurrently; the
// two reads are independent.
func (s *PlayerService) GetPlayer(ctx context.Context, id int64) (*PlayerDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var (
		player  *domain.Player
		entries []domain.EloHistoryEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		player, err = s.players.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.history.ListForPlayer(gctx, id, constants.HistoryLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &PlayerDetail{Player: *player, History: entries}, nil
}

func (s *PlayerService) Leaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.LeaderboardLimit {
		limit = constants.LeaderboardLimit
	}
	return s.players.Leaderboard(ctx, limit)
}

func (s *PlayerService) Search(ctx context.Context, query string) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validation("search query must be non-empty")
	}

	players, err := s.players.Search(ctx, query, constants.SearchLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("query", query).Int("count", len(players)).Msg("player search completed")
	return players, nil
}
