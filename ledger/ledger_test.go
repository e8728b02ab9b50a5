package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/localtime"
)

type testHistory struct {
	suite.Suite
}

func (t *testHistory) TestEmpty() {
	h := NewHistory()
	t.Equal(0, h.Len())
	t.True(h.Latest().IsZero())
	t.True(h.Get(time.Now()).IsZero())
}

func (t *testHistory) TestGet() {
	h := NewHistory()
	t0 := localtime.Normalize(time.Now())

	t.NoError(h.Push(t0, base.NewPower(10)))
	t.NoError(h.Push(t0.Add(time.Minute), base.NewPower(20)))

	t.True(h.Get(t0.Add(-time.Second)).IsZero())
	t.Equal(0, h.Get(t0).Cmp(base.NewPower(10)))
	t.Equal(0, h.Get(t0.Add(time.Second)).Cmp(base.NewPower(10)))
	t.Equal(0, h.Get(t0.Add(time.Minute)).Cmp(base.NewPower(20)))
	t.Equal(0, h.Get(t0.Add(time.Hour)).Cmp(base.NewPower(20)))
}

func (t *testHistory) TestPushSameInstantOverwrites() {
	h := NewHistory()
	t0 := localtime.Normalize(time.Now())

	t.NoError(h.Push(t0, base.NewPower(10)))
	t.NoError(h.Push(t0, base.NewPower(33)))

	t.Equal(1, h.Len())
	t.Equal(0, h.Latest().Cmp(base.NewPower(33)))
}

func (t *testHistory) TestPushPastRejected() {
	h := NewHistory()
	t0 := localtime.Normalize(time.Now())

	t.NoError(h.Push(t0, base.NewPower(10)))

	err := h.Push(t0.Add(-time.Second), base.NewPower(20))
	t.True(xerrors.Is(err, base.StateError))
}

func TestHistory(t *testing.T) {
	suite.Run(t, new(testHistory))
}

type testLedger struct {
	suite.Suite

	now   time.Time
	alice base.StringAddress
	bob   base.StringAddress
	carol base.StringAddress
}

func (t *testLedger) SetupSuite() {
	t.alice, _ = base.NewStringAddress("alice")
	t.bob, _ = base.NewStringAddress("bob")
	t.carol, _ = base.NewStringAddress("carol")
}

func (t *testLedger) SetupTest() {
	t.now = localtime.Normalize(time.Date(2022, 10, 3, 0, 0, 0, 0, time.UTC))
}

func (t *testLedger) newLedger() *Ledger {
	return NewLedger(func() time.Time { return t.now })
}

func (t *testLedger) tick(d time.Duration) {
	t.now = t.now.Add(d)
}

func (t *testLedger) TestMintWithoutDelegationStaysPowerless() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))
	t.True(lg.Votes(t.alice).IsZero())

	t.tick(time.Minute)
	supply, err := lg.GetPastTotalSupply(t.now.Add(-time.Second))
	t.NoError(err)
	t.Equal(0, supply.Cmp(base.NewPower(100)))
}

func (t *testLedger) TestFirstDelegationActivates() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))

	t.tick(time.Minute)
	t.NoError(lg.Delegate(t.alice, t.alice, base.NewPower(100)))
	t.Equal(0, lg.Votes(t.alice).Cmp(base.NewPower(100)))

	// before first delegation the balance carried no weight
	votes, err := lg.GetPastVotes(t.alice, t.now.Add(-time.Second))
	t.NoError(err)
	t.True(votes.IsZero())
}

func (t *testLedger) TestRedelegationMovesWeight() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))
	t.NoError(lg.Delegate(t.alice, t.bob, base.NewPower(100)))
	t.Equal(0, lg.Votes(t.bob).Cmp(base.NewPower(100)))

	t.tick(time.Minute)
	t.NoError(lg.Delegate(t.alice, t.carol, base.NewPower(100)))
	t.True(lg.Votes(t.bob).IsZero())
	t.Equal(0, lg.Votes(t.carol).Cmp(base.NewPower(100)))

	d, found := lg.DelegateeOf(t.alice)
	t.True(found)
	t.True(d.Equal(t.carol))
}

func (t *testLedger) TestRedelegateToSameRejected() {
	lg := t.newLedger()

	t.NoError(lg.Delegate(t.alice, t.bob, base.ZeroPower))

	err := lg.Delegate(t.alice, t.bob, base.ZeroPower)
	t.True(xerrors.Is(err, base.StateError))
}

func (t *testLedger) TestTransferBetweenDelegatees() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))
	t.NoError(lg.Delegate(t.alice, t.alice, base.NewPower(100)))
	t.NoError(lg.Delegate(t.bob, t.bob, base.ZeroPower))

	t.tick(time.Minute)
	t.NoError(lg.Transferred(t.alice, t.bob, base.NewPower(40)))

	t.Equal(0, lg.Votes(t.alice).Cmp(base.NewPower(60)))
	t.Equal(0, lg.Votes(t.bob).Cmp(base.NewPower(40)))
}

func (t *testLedger) TestTransferToUndelegatedDisappearsWeight() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))
	t.NoError(lg.Delegate(t.alice, t.alice, base.NewPower(100)))

	t.tick(time.Minute)
	t.NoError(lg.Transferred(t.alice, t.bob, base.NewPower(40)))

	t.Equal(0, lg.Votes(t.alice).Cmp(base.NewPower(60)))
	t.True(lg.Votes(t.bob).IsZero())
}

func (t *testLedger) TestStrictPastQuery() {
	lg := t.newLedger()

	_, err := lg.GetPastVotes(t.alice, t.now)
	t.True(xerrors.Is(err, base.ValidationError))

	_, err = lg.GetPastTotalSupply(t.now.Add(time.Hour))
	t.True(xerrors.Is(err, base.ValidationError))

	_, err = lg.GetPastVotes(t.alice, t.now.Add(-time.Millisecond))
	t.NoError(err)
}

func (t *testLedger) TestPastVotesPicksCheckpoint() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))
	t.NoError(lg.Delegate(t.alice, t.alice, base.NewPower(100)))
	snapshot := t.now

	t.tick(time.Hour)
	t.NoError(lg.Minted(t.alice, base.NewPower(900)))

	t.tick(time.Hour)
	votes, err := lg.GetPastVotes(t.alice, snapshot)
	t.NoError(err)
	t.Equal(0, votes.Cmp(base.NewPower(100)))

	votes, err = lg.GetPastVotes(t.alice, t.now.Add(-time.Second))
	t.NoError(err)
	t.Equal(0, votes.Cmp(base.NewPower(1000)))
}

func (t *testLedger) TestBurnDebitsDelegatee() {
	lg := t.newLedger()

	t.NoError(lg.Minted(t.alice, base.NewPower(100)))
	t.NoError(lg.Delegate(t.alice, t.alice, base.NewPower(100)))

	t.tick(time.Minute)
	t.NoError(lg.Burned(t.alice, base.NewPower(30)))
	t.Equal(0, lg.Votes(t.alice).Cmp(base.NewPower(70)))

	t.tick(time.Minute)
	supply, err := lg.GetPastTotalSupply(t.now.Add(-time.Second))
	t.NoError(err)
	t.Equal(0, supply.Cmp(base.NewPower(70)))
}

func TestLedger(t *testing.T) {
	suite.Run(t, new(testLedger))
}
