package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// WithRetry runs fn, retrying transient store failures with exponential
// backoff up to a bounded attempt count. Structural errors pass through
// untouched; only availability problems are worth a second try.
func WithRetry(ctx context.Context, logger zerolog.Logger, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(constants.RetryMaxAttempts, retry.NewExponential(constants.RetryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			logger.Warn().Err(err).Str("op", op).Msg("transient store failure, retrying")
			return retry.RetryableError(fmt.Errorf("%w: %s: %v", domain.ErrTransientStore, op, err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isTransient(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// BeginTx acquires a write transaction, retrying if another writer holds the
// database.
func BeginTx(ctx context.Context, db *sql.DB, logger zerolog.Logger) (*sql.Tx, error) {
	var tx *sql.Tx
	err := WithRetry(ctx, logger, "begin transaction", func(ctx context.Context) error {
		var err error
		tx, err = db.BeginTx(ctx, nil)
		return err
	})
	return tx, err
}
