package governor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/key"
	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/isvalid"
	"github.com/agora-gov/agora/util/localtime"
	"github.com/agora-gov/agora/util/logging"
	"github.com/agora-gov/agora/util/valuehash"
)

// Governor is the proposal store and vote counter: it owns the proposals,
// derives their lifecycle state from time and tally, and drives the
// timelock gate as its sole proposer/executor. Without a gate, queue and
// execute collapse to a single succeeded-to-executed edge.
type Governor struct {
	sync.RWMutex
	*logging.Logging
	address   base.Address
	policy    *Policy
	source    base.VotingPowerSource
	quorum    base.QuorumPolicy
	acl       *base.ACL
	gate      base.OperationGate
	resolver  base.Resolver
	proposals map[valuehash.L32]*Proposal
	nowFunc   func() time.Time
}

func NewGovernor(
	address base.Address,
	policy *Policy,
	source base.VotingPowerSource,
	quorum base.QuorumPolicy,
	acl *base.ACL,
	gate base.OperationGate,
	resolver base.Resolver,
	nowFunc func() time.Time,
) (*Governor, error) {
	if err := isvalid.CheckFunc([]func() error{
		func() error { return address.IsValid(nil) },
		func() error { return policy.IsValid(nil) },
	}); err != nil {
		return nil, err
	}
	if nowFunc == nil {
		nowFunc = localtime.UTCNow
	}
	if quorum == nil {
		quorum = NewFractionQuorum(source, policy)
	}

	return &Governor{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "governor").Stringer("address", address)
		}),
		address:   address,
		policy:    policy,
		source:    source,
		quorum:    quorum,
		acl:       acl,
		gate:      gate,
		resolver:  resolver,
		proposals: map[valuehash.L32]*Proposal{},
		nowFunc:   nowFunc,
	}, nil
}

// Address is the identity the governor queues and executes with.
func (gv *Governor) Address() base.Address {
	return gv.address
}

func (gv *Governor) Policy() *Policy {
	return gv.policy
}

func (gv *Governor) ProposalThreshold() base.Power {
	return gv.policy.ProposalThreshold()
}

// Quorum is the minimum combined for+abstain weight at the snapshot.
func (gv *Governor) Quorum(snapshot time.Time) (base.Power, error) {
	return gv.quorum.Quorum(snapshot)
}

// Propose creates a new proposal; the voting window opens after the voting
// delay and stays open for the voting period.
func (gv *Governor) Propose(
	proposer base.Address,
	calls []base.Call,
	description string,
) (valuehash.L32, error) {
	if err := base.IsValidCalls(calls); err != nil {
		return valuehash.L32{}, base.ValidationError.Wrap(err)
	}
	if err := proposer.IsValid(nil); err != nil {
		return valuehash.L32{}, base.ValidationError.Wrap(err)
	}

	if th := gv.policy.ProposalThreshold(); !th.IsZero() {
		if gv.source.Votes(proposer).Cmp(th) < 0 {
			return valuehash.L32{}, base.AuthorizationError.Errorf(
				"proposer %v below proposal threshold %v", proposer, th)
		}
	}

	gv.Lock()
	defer gv.Unlock()

	dd := base.DescriptionDigest(description)
	id := ProposalID(calls, dd)
	if _, found := gv.proposals[id]; found {
		return valuehash.L32{}, base.ValidationError.Errorf("proposal %v already exists", id)
	}

	now := localtime.Normalize(gv.nowFunc())
	snapshot := now.Add(gv.policy.VotingDelay())
	deadline := snapshot.Add(gv.policy.VotingPeriod())

	gv.proposals[id] = newProposal(id, proposer, calls, dd, snapshot, deadline)

	gv.Log().Debug().
		Stringer("proposal", id).
		Stringer("proposer", proposer).
		Time("snapshot", snapshot).
		Time("deadline", deadline).
		Msg("proposal created")

	return id, nil
}

// State derives the lifecycle state; canceled and executed are absorbing.
func (gv *Governor) State(id valuehash.L32) (ProposalState, error) {
	gv.RLock()
	defer gv.RUnlock()

	pr, found := gv.proposals[id]
	if !found {
		return 0, base.ValidationError.Errorf("unknown proposal, %v", id)
	}

	return gv.state(pr)
}

func (gv *Governor) state(pr *Proposal) (ProposalState, error) {
	switch {
	case pr.canceled:
		return StateCanceled, nil
	case pr.executed:
		return StateExecuted, nil
	}

	now := localtime.Normalize(gv.nowFunc())
	switch {
	case now.Before(pr.snapshot):
		return StatePending, nil
	case !now.After(pr.deadline):
		return StateActive, nil
	}

	q, err := gv.quorum.Quorum(pr.snapshot)
	if err != nil {
		return 0, err
	}

	if pr.tally.QuorumWeight().Cmp(q) < 0 || !pr.tally.Passed() {
		return StateDefeated, nil
	}

	if gv.gate == nil {
		return StateSucceeded, nil
	}

	if pr.queued {
		if now.After(pr.readyAt.Add(gv.policy.GracePeriod())) {
			return StateExpired, nil
		}

		return StateQueued, nil
	}

	if now.After(pr.deadline.Add(gv.policy.GracePeriod())) {
		return StateExpired, nil
	}

	return StateSucceeded, nil
}

// CastVote records one vote; one vote per (proposal, voter), weighted at
// the proposal snapshot.
func (gv *Governor) CastVote(
	voter base.Address,
	id valuehash.L32,
	option base.VoteOption,
) (base.Power, error) {
	return gv.castVote(voter, id, option, "")
}

// CastVoteWithReason is CastVote with a human-readable reason attached to
// the receipt.
func (gv *Governor) CastVoteWithReason(
	voter base.Address,
	id valuehash.L32,
	option base.VoteOption,
	reason string,
) (base.Power, error) {
	return gv.castVote(voter, id, option, reason)
}

// VoteDigest is the message signed for an off-chain vote authorization.
func VoteDigest(id valuehash.L32, option base.VoteOption) []byte {
	return valuehash.NewSHA256(util.ConcatBytesSlice(id.Bytes(), option.Bytes())).Bytes()
}

// CastVoteBySig counts a vote authorized by signature; the voter identity
// is derived from the publickey.
func (gv *Governor) CastVoteBySig(
	id valuehash.L32,
	option base.VoteOption,
	pub key.Publickey,
	sig key.Signature,
) (base.Power, error) {
	if err := sig.IsValid(nil); err != nil {
		return base.Power{}, base.ValidationError.Wrap(err)
	}

	if err := pub.Verify(VoteDigest(id, option), sig); err != nil {
		return base.Power{}, base.AuthorizationError.Wrap(err)
	}

	voter, err := base.NewAddressFromPublickey(pub)
	if err != nil {
		return base.Power{}, base.ValidationError.Wrap(err)
	}

	return gv.castVote(voter, id, option, "")
}

func (gv *Governor) castVote(
	voter base.Address,
	id valuehash.L32,
	option base.VoteOption,
	reason string,
) (base.Power, error) {
	if err := option.IsValid(nil); err != nil {
		return base.Power{}, base.ValidationError.Wrap(err)
	}
	if err := voter.IsValid(nil); err != nil {
		return base.Power{}, base.ValidationError.Wrap(err)
	}

	gv.Lock()
	defer gv.Unlock()

	pr, found := gv.proposals[id]
	if !found {
		return base.Power{}, base.ValidationError.Errorf("unknown proposal, %v", id)
	}

	st, err := gv.state(pr)
	if err != nil {
		return base.Power{}, err
	}
	if st != StateActive {
		return base.Power{}, base.StateError.Errorf("proposal %v not active, but %v", id, st)
	}

	if pr.HasVoted(voter) {
		return base.Power{}, base.StateError.Errorf("%v already voted on %v", voter, id)
	}

	weight, err := gv.source.GetPastVotes(voter, pr.snapshot)
	if err != nil {
		return base.Power{}, err
	}

	pr.tally = pr.tally.Append(option, weight)
	pr.receipts[voter.Raw()] = VoteReceipt{
		Voter:  voter,
		Option: option,
		Weight: weight,
		Reason: reason,
	}

	gv.Log().Debug().
		Stringer("proposal", id).
		Stringer("voter", voter).
		Stringer("option", option).
		Stringer("weight", weight).
		Msg("vote counted")

	return weight, nil
}

// Queue hands the succeeded proposal's batch to the timelock gate.
func (gv *Governor) Queue(
	calls []base.Call,
	descriptionDigest valuehash.L32,
) (valuehash.L32, error) {
	if gv.gate == nil {
		return valuehash.L32{}, base.StateError.Errorf("no timelock gate configured")
	}

	gv.Lock()
	defer gv.Unlock()

	id := ProposalID(calls, descriptionDigest)
	pr, found := gv.proposals[id]
	if !found {
		return valuehash.L32{}, base.ValidationError.Errorf("unknown proposal, %v", id)
	}

	st, err := gv.state(pr)
	if err != nil {
		return valuehash.L32{}, err
	}
	if st != StateSucceeded {
		return valuehash.L32{}, base.StateError.Errorf(
			"proposal %v not succeeded, but %v", id, st)
	}

	opID, err := gv.gate.Queue(gv.address, calls, nil, descriptionDigest.Bytes())
	if err != nil {
		return valuehash.L32{}, err
	}

	readyAt, err := gv.gate.ReadyAt(opID)
	if err != nil {
		return valuehash.L32{}, err
	}

	pr.queued = true
	pr.operationID = opID
	pr.readyAt = readyAt

	gv.Log().Debug().
		Stringer("proposal", id).
		Stringer("operation", opID).
		Time("ready_at", readyAt).
		Msg("proposal queued")

	return opID, nil
}

// Execute runs the proposal batch through the gate exactly once. The
// executed flag is set before the external calls; a failing batch rolls the
// flag back and stays retryable.
func (gv *Governor) Execute(
	calls []base.Call,
	descriptionDigest valuehash.L32,
) error {
	gv.Lock()
	defer gv.Unlock()

	id := ProposalID(calls, descriptionDigest)
	pr, found := gv.proposals[id]
	if !found {
		return base.ValidationError.Errorf("unknown proposal, %v", id)
	}

	st, err := gv.state(pr)
	if err != nil {
		return err
	}

	switch {
	case gv.gate != nil:
		if st != StateQueued {
			return base.StateError.Errorf("proposal %v not queued, but %v", id, st)
		}
		if !gv.gate.IsReady(pr.operationID) {
			return base.StateError.Errorf("operation %v not ready", pr.operationID)
		}

		pr.executed = true
		if _, err := gv.gate.Execute(gv.address, calls, nil, descriptionDigest.Bytes()); err != nil {
			pr.executed = false

			return err
		}
	default:
		if st != StateSucceeded {
			return base.StateError.Errorf("proposal %v not succeeded, but %v", id, st)
		}

		pr.executed = true
		if err := gv.invoke(calls); err != nil {
			pr.executed = false

			return err
		}
	}

	gv.Log().Debug().Stringer("proposal", id).Msg("proposal executed")

	return nil
}

// Cancel marks the proposal canceled; the proposer may cancel while
// pending, a canceller at any not-yet-final stage. A queued timelock
// operation is canceled along.
func (gv *Governor) Cancel(
	caller base.Address,
	calls []base.Call,
	descriptionDigest valuehash.L32,
) error {
	gv.Lock()
	defer gv.Unlock()

	id := ProposalID(calls, descriptionDigest)
	pr, found := gv.proposals[id]
	if !found {
		return base.ValidationError.Errorf("unknown proposal, %v", id)
	}

	st, err := gv.state(pr)
	if err != nil {
		return err
	}

	switch st {
	case StatePending:
		if !pr.proposer.Equal(caller) && !gv.acl.Has(base.RoleCanceller, caller) {
			return base.AuthorizationError.Errorf("%v can not cancel %v", caller, id)
		}
	case StateActive, StateSucceeded, StateQueued:
		if !gv.acl.Has(base.RoleCanceller, caller) {
			return base.AuthorizationError.Errorf("%v can not cancel %v", caller, id)
		}
	default:
		return base.StateError.Errorf("proposal %v not cancelable, but %v", id, st)
	}

	if pr.queued && gv.gate != nil {
		if err := gv.gate.Cancel(gv.address, pr.operationID); err != nil {
			return err
		}
	}

	pr.canceled = true

	gv.Log().Debug().
		Stringer("proposal", id).
		Stringer("caller", caller).
		Msg("proposal canceled")

	return nil
}

// Proposal returns the stored proposal record.
func (gv *Governor) Proposal(id valuehash.L32) (*Proposal, bool) {
	gv.RLock()
	defer gv.RUnlock()

	pr, found := gv.proposals[id]

	return pr, found
}

func (gv *Governor) HasVoted(id valuehash.L32, voter base.Address) bool {
	gv.RLock()
	defer gv.RUnlock()

	pr, found := gv.proposals[id]
	if !found {
		return false
	}

	return pr.HasVoted(voter)
}

// invoke dispatches the batch directly for gateless deployments, with the
// same all-or-nothing snapshot semantics as the gate.
func (gv *Governor) invoke(calls []base.Call) error {
	if gv.resolver == nil {
		return base.ExternalCallError.Errorf("no call resolver configured")
	}

	targets := make([]base.Invokable, len(calls))
	for i := range calls {
		c, found := gv.resolver(calls[i].Target)
		if !found {
			return base.ExternalCallError.Errorf("unknown target, %v", calls[i].Target)
		}

		targets[i] = c
	}

	var restores []func()
	for i := range calls {
		if sn, ok := targets[i].(base.Snapshotter); ok {
			restores = append(restores, sn.Snapshot())
		}

		if err := targets[i].Invoke(gv.address, calls[i]); err != nil {
			for j := len(restores) - 1; j >= 0; j-- {
				restores[j]()
			}

			return base.ExternalCallError.Errorf("%dth call: %v", i, err)
		}
	}

	return nil
}

// FractionQuorum is the quorum policy: a fixed fraction of the past total
// supply at the snapshot.
type FractionQuorum struct {
	source base.VotingPowerSource
	policy *Policy
}

func NewFractionQuorum(source base.VotingPowerSource, policy *Policy) FractionQuorum {
	return FractionQuorum{source: source, policy: policy}
}

func (fq FractionQuorum) Quorum(snapshot time.Time) (base.Power, error) {
	total, err := fq.source.GetPastTotalSupply(snapshot)
	if err != nil {
		return base.Power{}, err
	}

	num, den := fq.policy.QuorumFraction()

	return total.MulDiv(num, den), nil
}
