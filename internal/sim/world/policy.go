package world

type Policy string

const (
	PolicyNeutral     Policy = "neutral"
	PolicyCooperative Policy = "cooperative"
	PolicyAggressive  Policy = "aggressive"
)

func Policies() []Policy {
	return []Policy{PolicyNeutral, PolicyCooperative, PolicyAggressive}
}

func KnownPolicy(p Policy) bool {
	return p == PolicyNeutral || p == PolicyCooperative || p == PolicyAggressive
}

// PickPolicy recomputes the active policy from the vote tallies. Ties keep the
// incumbent: only a strictly higher count displaces the current policy.
func PickPolicy(votes map[Policy]int, current Policy) Policy {
	best := current
	for _, p := range Policies() {
		if votes[p] > votes[best] {
			best = p
		}
	}
	return best
}

// PolicyMultiplier scales claim payouts and market sell prices: the
// cooperative stance pays a premium, the aggressive one a discount.
func PolicyMultiplier(p Policy) float64 {
	switch p {
	case PolicyCooperative:
		return 1.2
	case PolicyAggressive:
		return 0.8
	default:
		return 1
	}
}
