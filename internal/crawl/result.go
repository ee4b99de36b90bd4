package crawl

import "fmt"

// Outcome is the decision the engine reached for one candidate.
type Outcome int

const (
	OutcomeCopied Outcome = iota
	OutcomeReplaced
	OutcomeSkippedDuplicate
	OutcomeSkippedInferior
	OutcomeSkippedDerived
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCopied:
		return "copied"
	case OutcomeReplaced:
		return "replaced"
	case OutcomeSkippedDuplicate:
		return "skipped-duplicate"
	case OutcomeSkippedInferior:
		return "skipped-inferior"
	case OutcomeSkippedDerived:
		return "skipped-derived"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what happened to one candidate.
type Result struct {
	Outcome     Outcome
	Destination string // Placement of the file, when one is known
	Reason      error  // Set for OutcomeFailed
}
