package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used across raw results, history
// entries and tournaments. ISO dates sort chronologically as text, which the
// replay ordering relies on.
const DateLayout = "2006-01-02"

// RawMatch is one source-of-truth result as ingested. It is never mutated;
// removing rows (and replaying) is the only supported correction.
type RawMatch struct {
	ID             int64
	TournamentName string
	Date           string
	PlayerAName    string
	PlayerBName    string
	ScoreA         int
	ScoreB         int
	RuleType       string
	RuleParams     map[string]float64
	CreatedAt      time.Time
}

// Validate checks the structural fields shared by ingestion and replay.
// Rule parameters are validated separately by ParseRule.
func (rm *RawMatch) Validate() error {
	if strings.TrimSpace(rm.PlayerAName) == "" || strings.TrimSpace(rm.PlayerBName) == "" {
		return Validation("player names must be non-empty")
	}
	if strings.TrimSpace(rm.TournamentName) == "" {
		return Validation("tournament name must be non-empty")
	}
	if _, err := time.Parse(DateLayout, rm.Date); err != nil {
		return Validation("date must be YYYY-MM-DD, got %q", rm.Date)
	}
	if rm.ScoreA < 0 || rm.ScoreB < 0 {
		return Validation("scores must be non-negative, got %d:%d", rm.ScoreA, rm.ScoreB)
	}
	return nil
}

// Player is a canonical rated entity. CurrentElo is derived state: it always
// mirrors the newest history entry, or the baseline when no history exists.
type Player struct {
	ID         int64
	Name       string
	CurrentElo int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PlayerMapping links one free-text alias to its canonical player.
type PlayerMapping struct {
	ID             int64
	AliasName      string
	TargetPlayerID int64
}

type Tournament struct {
	ID   int64
	Name string
	Date string
}

// Match is fully derived from one RawMatch during a replay. The rule fields
// are a frozen copy so later rule edits never change an already-scored match.
type Match struct {
	ID           int64
	TournamentID int64
	WinnerID     int64
	LoserID      int64
	ScoreWinner  int
	ScoreLoser   int
	RuleType     string
	RuleParams   map[string]float64
	IsCalculated bool
}

// EloHistoryEntry is one ledger line per player per match. MatchID is nil for
// legacy entries migrated from before results were modeled as raw matches.
type EloHistoryEntry struct {
	ID       int64
	PlayerID int64
	MatchID  *int64
	OldElo   int
	NewElo   int
	Change   int
	Date     string
}
