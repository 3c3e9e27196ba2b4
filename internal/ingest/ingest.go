// Package ingest turns external raw-result records into validated rows ready
// for the raw_matches table. Validation happens once here; the replay can
// still re-check, but a record that passes ingestion will replay cleanly.
package ingest

import (
	"bytes"
	"encoding/json"
	"strings"

	"elo-ledger/internal/domain"
)

// RawMatchInput is the wire format of one raw result, as produced by manual
// entry, migrations or the external feed.
type RawMatchInput struct {
	TournamentName string             `json:"tournament_name"`
	Date           string             `json:"date"`
	PlayerAName    string             `json:"player_a_name"`
	PlayerBName    string             `json:"player_b_name"`
	ScoreA         int                `json:"score_a"`
	ScoreB         int                `json:"score_b"`
	RuleType       string             `json:"rule_type"`
	RuleParams     map[string]float64 `json:"rule_params"`
}

// ToDomain validates the record and converts it. Names are trimmed; rule
// parameters are checked against the rule's typed form.
func (in *RawMatchInput) ToDomain() (*domain.RawMatch, error) {
	rm := &domain.RawMatch{
		TournamentName: strings.TrimSpace(in.TournamentName),
		Date:           strings.TrimSpace(in.Date),
		PlayerAName:    strings.TrimSpace(in.PlayerAName),
		PlayerBName:    strings.TrimSpace(in.PlayerBName),
		ScoreA:         in.ScoreA,
		ScoreB:         in.ScoreB,
		RuleType:       strings.TrimSpace(in.RuleType),
		RuleParams:     in.RuleParams,
	}
	if err := rm.Validate(); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRule(rm.RuleType, rm.RuleParams); err != nil {
		return nil, err
	}
	return rm, nil
}

// Decode accepts either a single JSON record or an array of them.
func Decode(data []byte) ([]RawMatchInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, domain.Validation("empty ingest payload")
	}

	if trimmed[0] == '[' {
		var records []RawMatchInput
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, domain.Validation("malformed ingest payload: %v", err)
		}
		return records, nil
	}

	var record RawMatchInput
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, domain.Validation("malformed ingest payload: %v", err)
	}
	return []RawMatchInput{record}, nil
}
