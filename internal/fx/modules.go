package fx

import (
	"elo-ledger/internal/config"
	"elo-ledger/internal/database"
	"elo-ledger/internal/ingest"
	"elo-ledger/internal/logger"
	"elo-ledger/internal/repository"
	"elo-ledger/internal/replay"
	"elo-ledger/internal/server"
	"elo-ledger/internal/service"
	"elo-ledger/internal/undo"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewRawMatchRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMappingRepository),
	fx.Provide(repository.NewTournamentRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewEloHistoryRepository),
	// core
	fx.Provide(replay.NewOrchestrator),
	fx.Provide(undo.NewManager),
	fx.Provide(ingest.NewFeedClient),
	// svc
	fx.Provide(service.NewReplayService),
	fx.Provide(service.NewUndoService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewIngestService),
	// server
	fx.Provide(server.NewRankingsServer),
)
