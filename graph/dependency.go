package graph

// DependencyType is a pair of independent flags marking whether an edge
// blocks scheduling (Immediate) and whether it tolerates the upstream node
// failing (Tolerant). The four combinations are named; SOFT is defined for
// completeness but never produced by the builder in this implementation.
// The engine's scheduler reads only Tolerant: every edge, immediate or
// not, holds its dependent back until the upstream node has succeeded (or
// has failed, for a tolerant edge).
type DependencyType struct {
	Immediate bool
	Tolerant  bool
}

var (
	// DepHard blocks scheduling and fails the dependent if the upstream
	// node fails. The overwhelming majority of edges are HARD.
	DepHard = DependencyType{Immediate: true, Tolerant: false}
	// DepTolerant blocks scheduling but allows the dependent to proceed
	// if the upstream node fails.
	DepTolerant = DependencyType{Immediate: true, Tolerant: true}
	// DepSoft is marked non-immediate and tolerant; the scheduler treats
	// it like DepTolerant. Reserved: no builder path currently emits it.
	DepSoft = DependencyType{Immediate: false, Tolerant: true}
	// DepDelayed is marked non-immediate and non-tolerant; the scheduler
	// treats it like DepHard: the dependent waits for the upstream node to
	// succeed and fails without running if the upstream node fails.
	DepDelayed = DependencyType{Immediate: false, Tolerant: false}
)

func (d DependencyType) String() string {
	switch d {
	case DepHard:
		return "HARD"
	case DepTolerant:
		return "TOLERANT"
	case DepSoft:
		return "SOFT"
	case DepDelayed:
		return "DELAYED"
	default:
		return "UNKNOWN"
	}
}
