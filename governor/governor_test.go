package governor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/contract"
	"github.com/agora-gov/agora/key"
	"github.com/agora-gov/agora/ledger"
	"github.com/agora-gov/agora/timelock"
	"github.com/agora-gov/agora/token"
	"github.com/agora-gov/agora/util/localtime"
	"github.com/agora-gov/agora/util/valuehash"
)

type testGovernor struct {
	suite.Suite

	now     time.Time
	alice   base.StringAddress
	bob     base.StringAddress
	carol   base.StringAddress
	boxAddr base.StringAddress
}

func (t *testGovernor) SetupSuite() {
	t.alice, _ = base.NewStringAddress("alice")
	t.bob, _ = base.NewStringAddress("bob")
	t.carol, _ = base.NewStringAddress("carol")
	t.boxAddr, _ = base.NewStringAddress("box")
}

func (t *testGovernor) SetupTest() {
	t.now = localtime.Normalize(time.Date(2022, 10, 3, 0, 0, 0, 0, time.UTC))
}

func (t *testGovernor) nowFunc() func() time.Time {
	return func() time.Time { return t.now }
}

func (t *testGovernor) tick(d time.Duration) {
	t.now = t.now.Add(d)
}

func (t *testGovernor) newPolicy() *Policy {
	po := NewPolicy()
	t.NoError(po.SetVotingDelay("1m"))
	t.NoError(po.SetVotingPeriod("1h"))
	t.NoError(po.SetGracePeriod("24h"))
	t.NoError(po.SetQuorumFraction(4, 100))

	return po
}

type governed struct {
	gv  *Governor
	tk  *token.Token
	lg  *ledger.Ledger
	gt  *timelock.Gate
	bx  *contract.Box
	acl *base.ACL
}

// newGoverned wires ledger, token, gate and governor the way a deployment
// does: the governor holds all three gate roles, the box is owned by the
// gate.
func (t *testGovernor) newGoverned(po *Policy, withGate bool) *governed {
	lg := ledger.NewLedger(t.nowFunc())
	tk := token.NewToken("AGORA", lg)

	govAddr, _ := base.NewStringAddress("governor")
	gateAddr, _ := base.NewStringAddress("timelock")

	rg := contract.NewRegistry()
	bx := contract.NewBox(gateAddr)
	t.NoError(rg.Register(t.boxAddr, bx))

	acl := base.NewACL(govAddr)
	t.NoError(acl.Grant(govAddr, base.RoleCanceller, t.carol))

	var gt *timelock.Gate
	var gate base.OperationGate
	if withGate {
		gacl := base.NewACL(govAddr)
		for _, r := range []base.Role{base.RoleProposer, base.RoleExecutor, base.RoleCanceller} {
			t.NoError(gacl.Grant(govAddr, r, govAddr))
		}

		gt = timelock.NewGate(gateAddr, time.Hour*48, gacl, rg.Resolve, t.nowFunc())
		gate = gt
	} else {
		bx = contract.NewBox(govAddr)
		rg = contract.NewRegistry()
		t.NoError(rg.Register(t.boxAddr, bx))
	}

	gv, err := NewGovernor(govAddr, po, lg, nil, acl, gate, rg.Resolve, t.nowFunc())
	t.NoError(err)

	return &governed{gv: gv, tk: tk, lg: lg, gt: gt, bx: bx, acl: acl}
}

func (t *testGovernor) seed(g *governed) {
	t.NoError(g.tk.Mint(t.alice, base.NewPower(600)))
	t.NoError(g.tk.Mint(t.bob, base.NewPower(400)))
	t.NoError(g.tk.Delegate(t.alice, t.alice))
	t.NoError(g.tk.Delegate(t.bob, t.bob))

	t.tick(time.Minute)
}

func (t *testGovernor) storeCalls(value uint64) []base.Call {
	return []base.Call{
		base.NewCall(t.boxAddr, 0, contract.NewBoxCalldata(contract.BoxMethodStore, value)),
	}
}

func (t *testGovernor) TestNewGovernorInvalidAddress() {
	lg := ledger.NewLedger(t.nowFunc())

	_, err := NewGovernor(
		base.StringAddress(""), t.newPolicy(), lg, nil,
		base.NewACL(nil), nil, nil, t.nowFunc(),
	)
	t.Error(err)
	t.Contains(err.Error(), "empty address")
}

func (t *testGovernor) TestProposalIDDeterministic() {
	calls := t.storeCalls(33)
	dd := base.DescriptionDigest("store 33 in the box")

	t.True(ProposalID(calls, dd).Equal(ProposalID(t.storeCalls(33), dd)))
	t.False(ProposalID(calls, dd).Equal(ProposalID(calls, base.DescriptionDigest("other"))))
}

func (t *testGovernor) TestProposeDuplicateRejected() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	_, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	_, err = g.gv.Propose(t.bob, calls, "store 33")
	t.True(xerrors.Is(err, base.ValidationError))

	// another description is another proposal
	_, err = g.gv.Propose(t.bob, calls, "store 33, again")
	t.NoError(err)
}

func (t *testGovernor) TestProposeBelowThreshold() {
	po := t.newPolicy()
	t.NoError(po.SetProposalThreshold("500"))

	g := t.newGoverned(po, true)
	t.seed(g)

	_, err := g.gv.Propose(t.bob, t.storeCalls(33), "store 33")
	t.True(xerrors.Is(err, base.AuthorizationError))

	_, err = g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)
}

func (t *testGovernor) TestStatePendingThenActive() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StatePending, st)

	t.tick(time.Minute + time.Second)
	st, err = g.gv.State(id)
	t.NoError(err)
	t.Equal(StateActive, st)
}

func (t *testGovernor) TestCastVote() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	// voting before the snapshot is rejected
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.True(xerrors.Is(err, base.StateError))

	t.tick(time.Minute + time.Second)

	w, err := g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)
	t.Equal(0, w.Cmp(base.NewPower(600)))
	t.True(g.gv.HasVoted(id, t.alice))

	// one vote per voter
	_, err = g.gv.CastVote(t.alice, id, base.VoteAgainst)
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testGovernor) TestCastVoteZeroWeightRecorded() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	w, err := g.gv.CastVoteWithReason(t.carol, id, base.VoteFor, "i agree anyway")
	t.NoError(err)
	t.True(w.IsZero())
	t.True(g.gv.HasVoted(id, t.carol))

	pr, found := g.gv.Proposal(id)
	t.True(found)
	r, found := pr.Receipt(t.carol)
	t.True(found)
	t.Equal("i agree anyway", r.Reason)
}

func (t *testGovernor) TestSnapshotWeightIgnoresLaterTransfers() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	// moving tokens after the snapshot must not change the counted weight
	t.NoError(g.tk.Transfer(t.alice, t.bob, base.NewPower(500)))

	w, err := g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)
	t.Equal(0, w.Cmp(base.NewPower(600)))

	w, err = g.gv.CastVote(t.bob, id, base.VoteAgainst)
	t.NoError(err)
	t.Equal(0, w.Cmp(base.NewPower(400)))
}

func (t *testGovernor) TestAbstainCountsForQuorumOnly() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	// quorum is 4% of 1000 = 40; abstain alone satisfies it but a proposal
	// with no for-majority is defeated
	_, err = g.gv.CastVote(t.alice, id, base.VoteAbstain)
	t.NoError(err)

	t.tick(time.Hour)
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateDefeated, st)
}

func (t *testGovernor) TestAbstainPlusForSucceeds() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	_, err = g.gv.CastVote(t.alice, id, base.VoteAbstain)
	t.NoError(err)
	_, err = g.gv.CastVote(t.bob, id, base.VoteFor)
	t.NoError(err)

	t.tick(time.Hour)
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateSucceeded, st)
}

func (t *testGovernor) TestDefeatedWithoutQuorum() {
	po := t.newPolicy()
	t.NoError(po.SetQuorumFraction(50, 100))

	g := t.newGoverned(po, true)
	t.seed(g)

	id, err := g.gv.Propose(t.alice, t.storeCalls(33), "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	// 400 for out of 1000 misses the 50% quorum even though unopposed
	_, err = g.gv.CastVote(t.bob, id, base.VoteFor)
	t.NoError(err)

	t.tick(time.Hour)
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateDefeated, st)
}

func (t *testGovernor) TestLifecycleQueueExecute() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(666)
	id, err := g.gv.Propose(t.alice, calls, "store 666")
	t.NoError(err)

	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)
	_, err = g.gv.CastVote(t.bob, id, base.VoteAgainst)
	t.NoError(err)

	t.tick(time.Hour)
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateSucceeded, st)

	dd := base.DescriptionDigest("store 666")
	opID, err := g.gv.Queue(calls, dd)
	t.NoError(err)
	t.False(opID.IsEmpty())

	st, err = g.gv.State(id)
	t.NoError(err)
	t.Equal(StateQueued, st)

	// not ready before the gate delay
	err = g.gv.Execute(calls, dd)
	t.True(xerrors.Is(err, base.StateError))

	t.tick(time.Hour * 48)
	t.NoError(g.gv.Execute(calls, dd))
	t.Equal(uint64(666), g.bx.Value())

	st, err = g.gv.State(id)
	t.NoError(err)
	t.Equal(StateExecuted, st)

	// executed is absorbing
	err = g.gv.Execute(calls, dd)
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testGovernor) TestQueueNotSucceeded() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	_, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	_, err = g.gv.Queue(calls, base.DescriptionDigest("store 33"))
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testGovernor) TestGatelessExecute() {
	g := t.newGoverned(t.newPolicy(), false)
	t.seed(g)

	calls := t.storeCalls(33)
	id, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)

	t.tick(time.Hour)

	dd := base.DescriptionDigest("store 33")
	_, err = g.gv.Queue(calls, dd)
	t.True(xerrors.Is(err, base.StateError))

	t.NoError(g.gv.Execute(calls, dd))
	t.Equal(uint64(33), g.bx.Value())

	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateExecuted, st)
}

func (t *testGovernor) TestGatelessExecuteRollback() {
	g := t.newGoverned(t.newPolicy(), false)
	t.seed(g)

	missing, _ := base.NewStringAddress("missing")
	calls := []base.Call{
		base.NewCall(t.boxAddr, 0, contract.NewBoxCalldata(contract.BoxMethodStore, 99)),
		base.NewCall(missing, 0, nil),
	}

	id, err := g.gv.Propose(t.alice, calls, "bad batch")
	t.NoError(err)

	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)

	t.tick(time.Hour)

	dd := base.DescriptionDigest("bad batch")
	err = g.gv.Execute(calls, dd)
	t.True(xerrors.Is(err, base.ExternalCallError))

	t.Equal(uint64(0), g.bx.Value())

	// the failure leaves the proposal succeeded and retryable
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateSucceeded, st)
}

func (t *testGovernor) TestCancelByProposerOnlyPending() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	id, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	dd := base.DescriptionDigest("store 33")
	t.NoError(g.gv.Cancel(t.alice, calls, dd))

	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateCanceled, st)

	// canceled is absorbing
	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testGovernor) TestCancelActiveNeedsCanceller() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	_, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	dd := base.DescriptionDigest("store 33")
	err = g.gv.Cancel(t.alice, calls, dd)
	t.True(xerrors.Is(err, base.AuthorizationError))

	t.NoError(g.gv.Cancel(t.carol, calls, dd))
}

func (t *testGovernor) TestCancelQueuedCancelsOperation() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	id, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)

	t.tick(time.Hour)

	dd := base.DescriptionDigest("store 33")
	opID, err := g.gv.Queue(calls, dd)
	t.NoError(err)

	t.NoError(g.gv.Cancel(t.carol, calls, dd))
	t.Equal(timelock.StateUnset, g.gt.State(opID))
}

func (t *testGovernor) TestExpiredAfterGrace() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	id, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)

	// never queued: grace runs from the deadline
	t.tick(time.Hour + time.Hour*24 + time.Second)
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateExpired, st)

	_, err = g.gv.Queue(calls, base.DescriptionDigest("store 33"))
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testGovernor) TestExpiredAfterQueueGrace() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	calls := t.storeCalls(33)
	id, err := g.gv.Propose(t.alice, calls, "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)
	_, err = g.gv.CastVote(t.alice, id, base.VoteFor)
	t.NoError(err)

	t.tick(time.Hour)
	dd := base.DescriptionDigest("store 33")
	_, err = g.gv.Queue(calls, dd)
	t.NoError(err)

	// queued: grace runs from the ready time
	t.tick(time.Hour*48 + time.Hour*24 + time.Second)
	st, err := g.gv.State(id)
	t.NoError(err)
	t.Equal(StateExpired, st)

	err = g.gv.Execute(calls, dd)
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testGovernor) TestCastVoteBySig() {
	g := t.newGoverned(t.newPolicy(), true)

	pk, err := key.NewBTCPrivatekey()
	t.NoError(err)
	voter, err := base.NewAddressFromPublickey(pk.Publickey())
	t.NoError(err)

	t.NoError(g.tk.Mint(voter, base.NewPower(100)))
	t.NoError(g.tk.Delegate(voter, voter))
	t.tick(time.Minute)

	id, err := g.gv.Propose(voter, t.storeCalls(33), "store 33")
	t.NoError(err)

	t.tick(time.Minute + time.Second)

	sig, err := pk.Sign(VoteDigest(id, base.VoteFor))
	t.NoError(err)

	w, err := g.gv.CastVoteBySig(id, base.VoteFor, pk.Publickey(), sig)
	t.NoError(err)
	t.Equal(0, w.Cmp(base.NewPower(100)))
	t.True(g.gv.HasVoted(id, voter))

	// a signature over another option does not verify
	_, err = g.gv.CastVoteBySig(id, base.VoteAgainst, pk.Publickey(), sig)
	t.True(xerrors.Is(err, base.AuthorizationError))
}

func (t *testGovernor) TestFractionQuorum() {
	g := t.newGoverned(t.newPolicy(), true)
	t.seed(g)

	q, err := g.gv.Quorum(t.now.Add(-time.Second))
	t.NoError(err)
	t.Equal(0, q.Cmp(base.NewPower(40)))

	// querying the future is rejected
	_, err = g.gv.Quorum(t.now.Add(time.Hour))
	t.True(xerrors.Is(err, base.ValidationError))
}

func (t *testGovernor) TestUnknownProposal() {
	g := t.newGoverned(t.newPolicy(), true)

	unknown := valuehash.NewSHA256([]byte("findme"))

	_, err := g.gv.State(unknown)
	t.True(xerrors.Is(err, base.ValidationError))

	_, err = g.gv.CastVote(t.alice, unknown, base.VoteFor)
	t.True(xerrors.Is(err, base.ValidationError))
}

func TestGovernor(t *testing.T) {
	suite.Run(t, new(testGovernor))
}
