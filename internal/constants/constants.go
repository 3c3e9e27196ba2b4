package constants

import "time"

// BaselineElo is the rating every new player starts at and the rating a
// player falls back to once all of their history is gone.
const BaselineElo = 450

const (
	DatabaseTimeout = 5 * time.Second
	ReplayTimeout   = 5 * time.Minute
	UndoTimeout     = 30 * time.Second
	FeedTimeout     = 10 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	RetryMaxAttempts = 4
	RetryBaseDelay   = 100 * time.Millisecond
)

const (
	ShutdownTimeout  = 5 * time.Second
	LeaderboardLimit = 100
	SearchLimit      = 10
	HistoryLimit     = 200
)
