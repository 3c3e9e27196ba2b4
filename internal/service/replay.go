package service

import (
	"context"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/replay"

	"github.com/rs/zerolog"
)

type ReplayService struct {
	orchestrator *replay.Orchestrator
	logger       zerolog.Logger
}

func NewReplayService(orchestrator *replay.Orchestrator, logger zerolog.Logger) *ReplayService {
	return &ReplayService{orchestrator: orchestrator, logger: logger}
}

// RunFullReplay rebuilds all derived state from the raw result log.
func (s *ReplayService) RunFullReplay(ctx context.Context) (*replay.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ReplayTimeout)
	defer cancel()

	s.logger.Info().Msg("full replay requested")
	summary, err := s.orchestrator.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("full replay failed; derived state unchanged, re-run after fixing the cause")
		return nil, err
	}
	return summary, nil
}
