package launch

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/governor"
	"github.com/agora-gov/agora/util/isvalid"
)

var (
	DefaultTokenSymbol = "AGORA"
	DefaultBind        = "localhost:54320"
	DefaultCacheURI    = "gcache:?type=lru&size=500&expire=3s"
	DefaultMinDelay    = time.Hour * 48
	DefaultRateLimit   = int64(300)
	DefaultRatePeriod  = time.Minute
)

type MintDesign struct {
	Account string
	Amount  string
}

type DelegationDesign struct {
	From string
	To   string
}

type TokenDesign struct {
	Symbol      string
	Mints       []MintDesign
	Delegations []DelegationDesign
}

func (td *TokenDesign) IsValid([]byte) error {
	if len(strings.TrimSpace(td.Symbol)) < 1 {
		td.Symbol = DefaultTokenSymbol
	}

	for i := range td.Mints {
		m := td.Mints[i]
		if _, err := base.NewStringAddress(m.Account); err != nil {
			return err
		}
		if _, err := base.NewPowerFromString(m.Amount); err != nil {
			return err
		}
	}

	for i := range td.Delegations {
		d := td.Delegations[i]
		if _, err := base.NewStringAddress(d.From); err != nil {
			return err
		}
		if _, err := base.NewStringAddress(d.To); err != nil {
			return err
		}
	}

	return nil
}

type PolicyDesign struct {
	VotingDelay       string `yaml:"voting-delay,omitempty"`
	VotingPeriod      string `yaml:"voting-period,omitempty"`
	GracePeriod       string `yaml:"grace-period,omitempty"`
	ProposalThreshold string `yaml:"proposal-threshold,omitempty"`
	Quorum            *struct {
		Numerator   uint64
		Denominator uint64
	} `yaml:"quorum,omitempty"`

	policy *governor.Policy
}

func (pd *PolicyDesign) Policy() *governor.Policy {
	return pd.policy
}

func (pd *PolicyDesign) IsValid([]byte) error {
	po := governor.NewPolicy()

	if len(pd.VotingDelay) > 0 {
		if err := po.SetVotingDelay(pd.VotingDelay); err != nil {
			return err
		}
	}
	if len(pd.VotingPeriod) > 0 {
		if err := po.SetVotingPeriod(pd.VotingPeriod); err != nil {
			return err
		}
	}
	if len(pd.GracePeriod) > 0 {
		if err := po.SetGracePeriod(pd.GracePeriod); err != nil {
			return err
		}
	}
	if len(pd.ProposalThreshold) > 0 {
		if err := po.SetProposalThreshold(pd.ProposalThreshold); err != nil {
			return err
		}
	}
	if pd.Quorum != nil {
		if err := po.SetQuorumFraction(pd.Quorum.Numerator, pd.Quorum.Denominator); err != nil {
			return err
		}
	}

	pd.policy = po

	return po.IsValid(nil)
}

type TimelockDesign struct {
	MinDelayString string   `yaml:"min-delay,omitempty"`
	Proposers      []string `yaml:"proposers,omitempty"`
	Executors      []string `yaml:"executors,omitempty"`
	Cancellers     []string `yaml:"cancellers,omitempty"`
	Admin          string   `yaml:"admin,omitempty"`
	SealAdmin      bool     `yaml:"seal-admin,omitempty"`

	minDelay time.Duration
}

func (td *TimelockDesign) MinDelay() time.Duration {
	return td.minDelay
}

func (td *TimelockDesign) IsValid([]byte) error {
	switch {
	case len(td.MinDelayString) < 1:
		td.minDelay = DefaultMinDelay
	default:
		d, err := time.ParseDuration(td.MinDelayString)
		if err != nil {
			return isvalid.InvalidError.Errorf("invalid min-delay, %q: %v", td.MinDelayString, err)
		}
		if d < 0 {
			return isvalid.InvalidError.Errorf("min-delay must not be negative")
		}
		td.minDelay = d
	}

	for _, as := range [][]string{td.Proposers, td.Executors, td.Cancellers} {
		for i := range as {
			if _, err := base.NewStringAddress(as[i]); err != nil {
				return err
			}
		}
	}
	if len(td.Admin) > 0 {
		if _, err := base.NewStringAddress(td.Admin); err != nil {
			return err
		}
	}

	return nil
}

type RateLimitDesign struct {
	PeriodString string `yaml:"period,omitempty"`
	Limit        int64  `yaml:"limit,omitempty"`

	period time.Duration
}

func (rd *RateLimitDesign) Period() time.Duration {
	return rd.period
}

func (rd *RateLimitDesign) IsValid([]byte) error {
	switch {
	case len(rd.PeriodString) < 1:
		rd.period = DefaultRatePeriod
	default:
		d, err := time.ParseDuration(rd.PeriodString)
		if err != nil {
			return isvalid.InvalidError.Errorf("invalid rate-limit period, %q: %v", rd.PeriodString, err)
		}
		if d <= 0 {
			return isvalid.InvalidError.Errorf("rate-limit period must be positive")
		}
		rd.period = d
	}

	if rd.Limit < 1 {
		rd.Limit = DefaultRateLimit
	}

	return nil
}

type NetworkDesign struct {
	Bind      string           `yaml:"bind,omitempty"`
	Cache     string           `yaml:"cache,omitempty"`
	RateLimit *RateLimitDesign `yaml:"rate-limit,omitempty"`
}

func (nd *NetworkDesign) IsValid([]byte) error {
	if len(strings.TrimSpace(nd.Bind)) < 1 {
		nd.Bind = DefaultBind
	}
	if len(strings.TrimSpace(nd.Cache)) < 1 {
		nd.Cache = DefaultCacheURI
	}
	if nd.RateLimit != nil {
		if err := nd.RateLimit.IsValid(nil); err != nil {
			return err
		}
	}

	return nil
}

type BoxDesign struct {
	Address string
	Value   uint64
}

func (bd *BoxDesign) IsValid([]byte) error {
	_, err := base.NewStringAddress(bd.Address)

	return err
}

type Design struct {
	Token    *TokenDesign    `yaml:"token,omitempty"`
	Policy   *PolicyDesign   `yaml:"policy,omitempty"`
	Timelock *TimelockDesign `yaml:"timelock,omitempty"`
	Network  *NetworkDesign  `yaml:"network,omitempty"`
	Boxes    []*BoxDesign    `yaml:"boxes,omitempty"`
}

func LoadDesign(r io.Reader) (*Design, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var design Design
	if err := yaml.Unmarshal(b, &design); err != nil {
		return nil, isvalid.InvalidError.Errorf("failed to load design: %v", err)
	}

	if err := design.IsValid(nil); err != nil {
		return nil, err
	}

	return &design, nil
}

func LoadDesignFromFile(f string) (*Design, error) {
	fp, err := os.Open(filepath.Clean(f))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = fp.Close()
	}()

	return LoadDesign(fp)
}

func (de *Design) IsValid([]byte) error {
	if de.Token == nil {
		de.Token = &TokenDesign{}
	}
	if de.Policy == nil {
		de.Policy = &PolicyDesign{}
	}
	if de.Timelock == nil {
		de.Timelock = &TimelockDesign{}
	}
	if de.Network == nil {
		de.Network = &NetworkDesign{}
	}

	vs := []isvalid.IsValider{de.Token, de.Policy, de.Timelock, de.Network}
	for i := range de.Boxes {
		vs = append(vs, de.Boxes[i])
	}

	return isvalid.Check(nil, false, vs...)
}
