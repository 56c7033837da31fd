// Package extract recovers typed results from free-form model output.
//
// Every extraction tries tiers in a fixed order: strict parsing of embedded
// JSON objects, then text-pattern heuristics, then a synthesized default.
// Extraction never fails; the returned Tier records which strategy produced
// the result so callers can treat heuristic and default output as degraded.
package extract

// Tier identifies the strategy that produced an extraction result.
type Tier int

// Tiers, in the order they are attempted.
const (
	TierStrict Tier = iota
	TierHeuristic
	TierDefault
)

// String returns the tier label used in logs and stored runs.
func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierHeuristic:
		return "heuristic"
	case TierDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Degraded reports whether the result needs human review. Anything the
// strict tier did not fully produce counts as degraded.
func (t Tier) Degraded() bool {
	return t != TierStrict
}

// ParseTier maps a stored label back to its Tier. Unknown labels come back
// as TierDefault so archived data always reads as reviewable.
func ParseTier(label string) Tier {
	switch label {
	case "strict":
		return TierStrict
	case "heuristic":
		return TierHeuristic
	default:
		return TierDefault
	}
}

// worse returns the lower-confidence of two tiers.
func worse(a, b Tier) Tier {
	if b > a {
		return b
	}
	return a
}
