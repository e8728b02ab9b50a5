package governor

import (
	"time"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/isvalid"
)

var (
	DefaultVotingDelay       = time.Minute
	DefaultVotingPeriod      = time.Hour * 24 * 7
	DefaultGracePeriod       = time.Hour * 24 * 14
	DefaultQuorumNumerator   = uint64(4)
	DefaultQuorumDenominator = uint64(100)
)

// Policy is the per-deployment governance parameters; fixed per deployment,
// not per proposal.
type Policy struct {
	votingDelay       time.Duration
	votingPeriod      time.Duration
	gracePeriod       time.Duration
	proposalThreshold base.Power
	quorumNumerator   uint64
	quorumDenominator uint64
}

func NewPolicy() *Policy {
	return &Policy{
		votingDelay:       DefaultVotingDelay,
		votingPeriod:      DefaultVotingPeriod,
		gracePeriod:       DefaultGracePeriod,
		proposalThreshold: base.ZeroPower,
		quorumNumerator:   DefaultQuorumNumerator,
		quorumDenominator: DefaultQuorumDenominator,
	}
}

func (po *Policy) VotingDelay() time.Duration {
	return po.votingDelay
}

func (po *Policy) SetVotingDelay(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return isvalid.InvalidError.Errorf("invalid voting delay, %q: %v", s, err)
	}
	if d < 0 {
		return isvalid.InvalidError.Errorf("negative voting delay, %q", s)
	}

	po.votingDelay = d

	return nil
}

func (po *Policy) VotingPeriod() time.Duration {
	return po.votingPeriod
}

func (po *Policy) SetVotingPeriod(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return isvalid.InvalidError.Errorf("invalid voting period, %q: %v", s, err)
	}
	if d < 1 {
		return isvalid.InvalidError.Errorf("voting period must be positive, %q", s)
	}

	po.votingPeriod = d

	return nil
}

func (po *Policy) GracePeriod() time.Duration {
	return po.gracePeriod
}

func (po *Policy) SetGracePeriod(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return isvalid.InvalidError.Errorf("invalid grace period, %q: %v", s, err)
	}
	if d < 1 {
		return isvalid.InvalidError.Errorf("grace period must be positive, %q", s)
	}

	po.gracePeriod = d

	return nil
}

func (po *Policy) ProposalThreshold() base.Power {
	return po.proposalThreshold
}

func (po *Policy) SetProposalThreshold(s string) error {
	p, err := base.NewPowerFromString(s)
	if err != nil {
		return err
	}

	po.proposalThreshold = p

	return nil
}

func (po *Policy) QuorumFraction() (uint64, uint64) {
	return po.quorumNumerator, po.quorumDenominator
}

func (po *Policy) SetQuorumFraction(num, den uint64) error {
	if den < 1 {
		return isvalid.InvalidError.Errorf("zero quorum denominator")
	}
	if num > den {
		return isvalid.InvalidError.Errorf("quorum fraction over 1: %d/%d", num, den)
	}

	po.quorumNumerator = num
	po.quorumDenominator = den

	return nil
}

func (po *Policy) IsValid([]byte) error {
	if po.votingPeriod < 1 {
		return isvalid.InvalidError.Errorf("empty voting period")
	}
	if po.gracePeriod < 1 {
		return isvalid.InvalidError.Errorf("empty grace period")
	}
	if po.quorumDenominator < 1 || po.quorumNumerator > po.quorumDenominator {
		return isvalid.InvalidError.Errorf(
			"invalid quorum fraction: %d/%d", po.quorumNumerator, po.quorumDenominator)
	}

	return nil
}
