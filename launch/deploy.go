package launch

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/contract"
	"github.com/agora-gov/agora/governor"
	"github.com/agora-gov/agora/ledger"
	"github.com/agora-gov/agora/network"
	"github.com/agora-gov/agora/timelock"
	"github.com/agora-gov/agora/token"
	"github.com/agora-gov/agora/util/cache"
	"github.com/agora-gov/agora/util/logging"
)

var (
	GovernorAddress = base.StringAddress("governor")
	GateAddress     = base.StringAddress("timelock")
	DeployerAddress = base.StringAddress("deployer")
)

// Deployment holds the wired system; the governor proposes into the gate
// and the gate owns the protected targets.
type Deployment struct {
	*logging.Logging
	design   *Design
	ledger   *ledger.Ledger
	token    *token.Token
	registry *contract.Registry
	acl      *base.ACL
	gate     *timelock.Gate
	governor *governor.Governor
	boxes    map[string]*contract.Box
	server   *network.Server
}

func NewDeployment(design *Design, nowFunc func() time.Time) (*Deployment, error) {
	if err := design.IsValid(nil); err != nil {
		return nil, err
	}

	dp := &Deployment{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "deployment")
		}),
		design: design,
		boxes:  map[string]*contract.Box{},
	}

	if err := dp.deploy(nowFunc); err != nil {
		return nil, err
	}

	return dp, nil
}

func (dp *Deployment) Ledger() *ledger.Ledger {
	return dp.ledger
}

func (dp *Deployment) Token() *token.Token {
	return dp.token
}

func (dp *Deployment) Registry() *contract.Registry {
	return dp.registry
}

func (dp *Deployment) Gate() *timelock.Gate {
	return dp.gate
}

func (dp *Deployment) Governor() *governor.Governor {
	return dp.governor
}

func (dp *Deployment) Box(address string) (*contract.Box, bool) {
	bx, found := dp.boxes[address]

	return bx, found
}

func (dp *Deployment) Server() (*network.Server, error) {
	if dp.server != nil {
		return dp.server, nil
	}

	nd := dp.design.Network

	ca, err := cache.NewCacheFromURI(nd.Cache)
	if err != nil {
		return nil, err
	}

	var mw *network.RateLimitMiddleware
	if rd := nd.RateLimit; rd != nil {
		mw = network.NewRateLimitMiddleware(
			limiter.Rate{Period: rd.Period(), Limit: rd.Limit},
			memory.NewStore(),
		)
	}

	dp.server = network.NewServer(nd.Bind, dp.governor, dp.ledger, dp.token, ca, mw)
	_ = dp.server.SetLogging(dp.Logging)

	return dp.server, nil
}

func (dp *Deployment) deploy(nowFunc func() time.Time) error {
	dp.ledger = ledger.NewLedger(nowFunc)
	dp.token = token.NewToken(dp.design.Token.Symbol, dp.ledger)
	dp.registry = contract.NewRegistry()

	if err := dp.seedToken(); err != nil {
		return err
	}

	if err := dp.deployGate(nowFunc); err != nil {
		return err
	}
	if err := dp.deployBoxes(); err != nil {
		return err
	}

	return dp.deployGovernor(nowFunc)
}

func (dp *Deployment) seedToken() error {
	td := dp.design.Token

	for i := range td.Mints {
		m := td.Mints[i]
		account, _ := base.NewStringAddress(m.Account)
		amount, _ := base.NewPowerFromString(m.Amount)

		if err := dp.token.Mint(account, amount); err != nil {
			return err
		}
	}

	for i := range td.Delegations {
		d := td.Delegations[i]
		from, _ := base.NewStringAddress(d.From)
		to, _ := base.NewStringAddress(d.To)

		if err := dp.token.Delegate(from, to); err != nil {
			return err
		}
	}

	return nil
}

func (dp *Deployment) deployGate(nowFunc func() time.Time) error {
	td := dp.design.Timelock

	admin := base.Address(DeployerAddress)
	if len(td.Admin) > 0 {
		a, _ := base.NewStringAddress(td.Admin)
		admin = a
	}

	acl := base.NewACL(admin)

	grants := []struct {
		role     base.Role
		accounts []string
	}{
		{base.RoleProposer, td.Proposers},
		{base.RoleExecutor, td.Executors},
		{base.RoleCanceller, td.Cancellers},
	}
	for _, g := range grants {
		for i := range g.accounts {
			a, _ := base.NewStringAddress(g.accounts[i])
			if err := acl.Grant(admin, g.role, a); err != nil {
				return err
			}
		}
	}

	// the governor drives the gate end to end
	for _, r := range []base.Role{base.RoleProposer, base.RoleExecutor, base.RoleCanceller} {
		if err := acl.Grant(admin, r, GovernorAddress); err != nil {
			return err
		}
	}

	dp.acl = acl
	dp.gate = timelock.NewGate(GateAddress, td.MinDelay(), acl, dp.registry.Resolve, nowFunc)
	_ = dp.gate.SetLogging(dp.Logging)

	if td.SealAdmin {
		if err := acl.Seal(admin); err != nil {
			return err
		}
	}

	dp.Log().Debug().
		Interface("proposers", acl.Members(base.RoleProposer)).
		Interface("executors", acl.Members(base.RoleExecutor)).
		Interface("cancellers", acl.Members(base.RoleCanceller)).
		Msg("gate deployed")

	return nil
}

func (dp *Deployment) deployBoxes() error {
	for i := range dp.design.Boxes {
		bd := dp.design.Boxes[i]
		a, _ := base.NewStringAddress(bd.Address)

		bx := contract.NewBox(dp.gate.Address())
		if bd.Value > 0 {
			if err := bx.Invoke(dp.gate.Address(), base.NewCall(
				a, 0, contract.NewBoxCalldata(contract.BoxMethodStore, bd.Value),
			)); err != nil {
				return err
			}
		}

		if err := dp.registry.Register(a, bx); err != nil {
			return err
		}

		dp.boxes[bd.Address] = bx
	}

	return nil
}

func (dp *Deployment) deployGovernor(nowFunc func() time.Time) error {
	// the gate's table is shared; designed cancellers may also cancel
	// proposals, not only raw gate operations.
	gv, err := governor.NewGovernor(
		GovernorAddress,
		dp.design.Policy.Policy(),
		dp.ledger,
		nil,
		dp.acl,
		dp.gate,
		dp.registry.Resolve,
		nowFunc,
	)
	if err != nil {
		return err
	}

	_ = gv.SetLogging(dp.Logging)
	dp.governor = gv

	return nil
}
