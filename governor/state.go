package governor

// ProposalState is the lifecycle state of a proposal, derived from the
// stored flags and the current time.
type ProposalState uint8

const (
	StatePending ProposalState = iota
	StateActive
	StateCanceled
	StateDefeated
	StateSucceeded
	StateQueued
	StateExpired
	StateExecuted
)

func (st ProposalState) String() string {
	switch st {
	case StatePending:
		return "PENDING"
	case StateActive:
		return "ACTIVE"
	case StateCanceled:
		return "CANCELED"
	case StateDefeated:
		return "DEFEATED"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateQueued:
		return "QUEUED"
	case StateExpired:
		return "EXPIRED"
	case StateExecuted:
		return "EXECUTED"
	default:
		return "<unknown proposal state>"
	}
}

func (st ProposalState) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}
