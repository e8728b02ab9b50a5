package base

import (
	"strings"

	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/isvalid"
)

// VoteOption is the vote support of one voter.
type VoteOption uint8

const (
	VoteAgainst VoteOption = iota
	VoteFor
	VoteAbstain
)

func (vo VoteOption) IsValid([]byte) error {
	switch vo {
	case VoteAgainst, VoteFor, VoteAbstain:
		return nil
	default:
		return isvalid.InvalidError.Errorf("unknown vote option, %d", vo)
	}
}

func (vo VoteOption) String() string {
	switch vo {
	case VoteAgainst:
		return "AGAINST"
	case VoteFor:
		return "FOR"
	case VoteAbstain:
		return "ABSTAIN"
	default:
		return "<unknown vote option>"
	}
}

func (vo VoteOption) Bytes() []byte {
	return util.Uint8ToBytes(uint8(vo))
}

func ParseVoteOption(s string) (VoteOption, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AGAINST", "0":
		return VoteAgainst, nil
	case "FOR", "1":
		return VoteFor, nil
	case "ABSTAIN", "2":
		return VoteAbstain, nil
	default:
		return 0, isvalid.InvalidError.Errorf("unknown vote option, %q", s)
	}
}

// Tally is the accumulated vote weights of one proposal. Abstain counts
// toward quorum, never toward the for/against comparison.
type Tally struct {
	For     Power `json:"for"`
	Against Power `json:"against"`
	Abstain Power `json:"abstain"`
}

func NewTally() Tally {
	return Tally{For: ZeroPower, Against: ZeroPower, Abstain: ZeroPower}
}

func (t Tally) Append(vo VoteOption, weight Power) Tally {
	switch vo {
	case VoteAgainst:
		t.Against = t.Against.Add(weight)
	case VoteFor:
		t.For = t.For.Add(weight)
	case VoteAbstain:
		t.Abstain = t.Abstain.Add(weight)
	}

	return t
}

// QuorumWeight is the weight compared against the quorum threshold.
func (t Tally) QuorumWeight() Power {
	return t.For.Add(t.Abstain)
}

// Passed means the for weight strictly exceeds the against weight.
func (t Tally) Passed() bool {
	return t.For.Cmp(t.Against) > 0
}
