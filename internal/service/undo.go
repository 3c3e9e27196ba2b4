package service

import (
	"context"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/undo"

	"github.com/rs/zerolog"
)

type UndoService struct {
	manager *undo.Manager
	logger  zerolog.Logger
}

func NewUndoService(manager *undo.Manager, logger zerolog.Logger) *UndoService {
	return &UndoService{manager: manager, logger: logger}
}

// UndoResult is the source-level undo outcome. ReplayRequired is always true:
// deleting raw results leaves derived tables stale until the next replay.
type UndoResult struct {
	TournamentName string `json:"tournament_name"`
	Deleted        int64  `json:"deleted"`
	ReplayRequired bool   `json:"replay_required"`
}

func (s *UndoService) UndoTournamentByName(ctx context.Context, name string) (*UndoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.UndoTimeout)
	defer cancel()

	deleted, err := s.manager.DeleteTournamentRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	return &UndoResult{TournamentName: name, Deleted: deleted, ReplayRequired: true}, nil
}

func (s *UndoService) RollbackTournamentByID(ctx context.Context, tournamentID int64) (*undo.RollbackResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.UndoTimeout)
	defer cancel()

	return s.manager.RollbackTournament(ctx, tournamentID)
}
