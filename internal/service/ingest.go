package service

import (
	"context"
	"fmt"

	"elo-ledger/internal/constants"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/ingest"
	"elo-ledger/internal/repository"

	"github.com/rs/zerolog"
)

type IngestService struct {
	rawMatches *repository.RawMatchRepository
	feed       *ingest.FeedClient
	logger     zerolog.Logger
}

func NewIngestService(rawMatches *repository.RawMatchRepository, feed *ingest.FeedClient, logger zerolog.Logger) *IngestService {
	return &IngestService{rawMatches: rawMatches, feed: feed, logger: logger}
}

type RejectedRecord struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type IngestResult struct {
	Inserted int              `json:"inserted"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

// IngestRecords validates and stores raw results. Invalid records are
// reported per index rather than failing the batch: raw ingestion is the one
// place where skip-and-report is safe, because nothing is derived until the
// next replay.
func (s *IngestService) IngestRecords(ctx context.Context, records []ingest.RawMatchInput) (*IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	result := &IngestResult{}
	valid := make([]domain.RawMatch, 0, len(records))
	for i := range records {
		rm, err := records[i].ToDomain()
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedRecord{Index: i, Reason: err.Error()})
			continue
		}
		valid = append(valid, *rm)
	}

	inserted, err := s.rawMatches.InsertBatch(ctx, valid)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted

	s.logger.Info().
		Int("inserted", result.Inserted).
		Int("rejected", len(result.Rejected)).
		Msg("raw results ingested")
	return result, nil
}

// PullFeed fetches the external producer's payload and ingests it.
func (s *IngestService) PullFeed(ctx context.Context) (*IngestResult, error) {
	if s.feed == nil {
		return nil, fmt.Errorf("no feed configured: %w", domain.ErrNotFound)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.FeedTimeout)
	defer cancel()

	records, err := s.feed.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("records", len(records)).Msg("feed payload fetched")

	return s.IngestRecords(ctx, records)
}
