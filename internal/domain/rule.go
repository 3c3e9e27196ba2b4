package domain

import "math"

// Rule type tags as they appear in raw results and match rows.
const (
	RuleTypeRound = "round"
	RuleTypeCap   = "cap"
)

// RuleConfig is the validated, typed form of a raw result's rule parameters.
// Raw rows carry a loose name→number map; parsing happens exactly once, at
// ingestion or at the top of an apply step, never per access.
type RuleConfig interface {
	ruleConfig()
}

// RoundRule scores a best-of series: Rounds (C) played in total, WinTarget
// (G) needed to take the series.
type RoundRule struct {
	Rounds    int
	WinTarget int
}

// CapRule scores a race to a fixed point cap (Q).
type CapRule struct {
	Cap int
}

// UnknownRule preserves an unrecognized tag. It is not an error: the engine
// scores it neutrally so one odd historical row cannot wedge a whole replay.
type UnknownRule struct {
	Type string
}

func (RoundRule) ruleConfig()   {}
func (CapRule) ruleConfig()     {}
func (UnknownRule) ruleConfig() {}

const (
	DefaultRounds    = 7
	DefaultWinTarget = 7
	DefaultCap       = 11
)

// ParseRule validates rule parameters into a RuleConfig. Missing parameters
// take the documented defaults; present-but-broken ones fail validation.
func ParseRule(ruleType string, params map[string]float64) (RuleConfig, error) {
	switch ruleType {
	case RuleTypeRound:
		c, err := intParam(params, "C", DefaultRounds)
		if err != nil {
			return nil, err
		}
		g, err := intParam(params, "G", DefaultWinTarget)
		if err != nil {
			return nil, err
		}
		return RoundRule{Rounds: c, WinTarget: g}, nil
	case RuleTypeCap:
		q, err := intParam(params, "Q", DefaultCap)
		if err != nil {
			return nil, err
		}
		if q < 1 {
			return nil, Validation("cap rule parameter Q must be positive, got %d", q)
		}
		return CapRule{Cap: q}, nil
	default:
		return UnknownRule{Type: ruleType}, nil
	}
}

func intParam(params map[string]float64, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	if v != math.Trunc(v) {
		return 0, Validation("rule parameter %s must be an integer, got %v", key, v)
	}
	if v < 0 {
		return 0, Validation("rule parameter %s must be non-negative, got %v", key, v)
	}
	return int(v), nil
}
