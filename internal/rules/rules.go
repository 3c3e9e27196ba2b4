// Package rules is the rating formula engine: pure functions from a result's
// scores and rule configuration to an integer rating transfer. No I/O, no
// state; every output is a deterministic function of the inputs, which is
// what makes full replays reproducible.
package rules

import (
	"math"

	"elo-ledger/internal/domain"
)

// Legacy cap constants from the pre-replay scoring path. The canonical values
// are Q=11 (domain.DefaultCap) and K=20; these stay named until the product
// decision on migrating old cap results is made.
const (
	legacyCapQ = 20
	legacyCapK = 32
)

const defaultK = 32

// Expectancy is the classic logistic Elo curve: the probability that a player
// rated ra beats one rated rb.
func Expectancy(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// ScoreFactor measures how decisively player A won, in [0,1] for sane scores.
// It replaces the win/draw/loss score of classic Elo with a margin-aware
// value derived from the rule the match was played under.
func ScoreFactor(scoreA, scoreB int, rule domain.RuleConfig) float64 {
	switch r := rule.(type) {
	case domain.RoundRule:
		c := float64(r.Rounds)
		g := float64(r.WinTarget)
		total := float64(scoreA + scoreB)
		var term1, term2 float64
		if total > 0 && c > 0 {
			term1 = (float64(scoreA) / total) * (g / c)
		}
		if c > 0 {
			term2 = (c - g) / (c * 2)
		}
		return term1 + term2
	case domain.CapRule:
		q := float64(r.Cap)
		return (float64(scoreA) + q - float64(scoreB)) / (2 * q)
	default:
		// Unknown rules score neutrally rather than failing the replay.
		return 0.5
	}
}

// KFactor returns the update sensitivity for a rule. Short round series move
// ratings less; everything else uses the standard 32, except cap play which
// the canonical scoring path pins at 20.
func KFactor(rule domain.RuleConfig) int {
	switch r := rule.(type) {
	case domain.RoundRule:
		switch r.Rounds {
		case 1:
			return 8
		case 3:
			return 16
		case 5:
			return 24
		default:
			return defaultK
		}
	case domain.CapRule:
		return 20
	default:
		return defaultK
	}
}

// Delta is the integer rating transfer for the player whose S and E are
// given. Ordinary rounding (half away from zero), matching the source
// system's arithmetic. The opponent's delta is the exact negation; callers
// must apply both sides from one Delta call to keep the ledger zero-sum.
func Delta(k int, s, e float64) int {
	return int(math.Round(float64(k) * (s - e)))
}
