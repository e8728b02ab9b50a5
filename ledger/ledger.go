package ledger

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/localtime"
	"github.com/agora-gov/agora/util/logging"
)

// Ledger is the voting-power ledger: per-account checkpoint histories, the
// global total-supply history and the delegation relation. An account's
// balance becomes voting power only once it has delegated at least once;
// balance changes before first delegation never retroactively create power.
type Ledger struct {
	sync.RWMutex
	*logging.Logging
	accounts  map[string]*History
	total     *History
	delegates map[string]base.Address
	nowFunc   func() time.Time
}

func NewLedger(nowFunc func() time.Time) *Ledger {
	if nowFunc == nil {
		nowFunc = localtime.UTCNow
	}

	return &Ledger{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "voting-power-ledger")
		}),
		accounts:  map[string]*History{},
		total:     NewHistory(),
		delegates: map[string]base.Address{},
		nowFunc:   nowFunc,
	}
}

// GetPastVotes returns the account's voting power at t; t must be strictly
// in the past.
func (lg *Ledger) GetPastVotes(a base.Address, t time.Time) (base.Power, error) {
	lg.RLock()
	defer lg.RUnlock()

	if err := lg.isPast(t); err != nil {
		return base.Power{}, err
	}

	h, found := lg.accounts[a.Raw()]
	if !found {
		return base.ZeroPower, nil
	}

	return h.Get(t), nil
}

// GetPastTotalSupply returns the total supply at t; t must be strictly in
// the past.
func (lg *Ledger) GetPastTotalSupply(t time.Time) (base.Power, error) {
	lg.RLock()
	defer lg.RUnlock()

	if err := lg.isPast(t); err != nil {
		return base.Power{}, err
	}

	return lg.total.Get(t), nil
}

// Votes returns the current voting power of the account.
func (lg *Ledger) Votes(a base.Address) base.Power {
	lg.RLock()
	defer lg.RUnlock()

	h, found := lg.accounts[a.Raw()]
	if !found {
		return base.ZeroPower
	}

	return h.Latest()
}

// DelegateeOf returns the account the delegator delegated to; false until
// the delegator delegated at least once.
func (lg *Ledger) DelegateeOf(a base.Address) (base.Address, bool) {
	lg.RLock()
	defer lg.RUnlock()

	d, found := lg.delegates[a.Raw()]

	return d, found
}

// Delegate moves the delegator's current balance-weight from the old
// delegatee to the new one; re-delegating to the current delegatee is
// rejected.
func (lg *Ledger) Delegate(from, to base.Address, balance base.Power) error {
	if err := from.IsValid(nil); err != nil {
		return base.ValidationError.Wrap(err)
	}
	if err := to.IsValid(nil); err != nil {
		return base.ValidationError.Wrap(err)
	}

	lg.Lock()
	defer lg.Unlock()

	old, delegated := lg.delegates[from.Raw()]
	if delegated && old.Equal(to) {
		return base.StateError.Errorf("%v already delegated to %v", from, to)
	}

	var src base.Address
	if delegated {
		src = old
	}

	if err := lg.move(src, to, balance); err != nil {
		return err
	}

	lg.delegates[from.Raw()] = to

	lg.Log().Debug().
		Stringer("delegator", from).
		Stringer("delegatee", to).
		Stringer("weight", balance).
		Msg("delegated")

	return nil
}

// Minted records the supply increase and credits the receiver's delegatee.
func (lg *Ledger) Minted(to base.Address, amount base.Power) error {
	lg.Lock()
	defer lg.Unlock()

	now := lg.nowFunc()
	if err := lg.total.Push(now, lg.total.Latest().Add(amount)); err != nil {
		return err
	}

	return lg.move(nil, lg.delegates[to.Raw()], amount)
}

// Burned records the supply decrease and debits the holder's delegatee.
func (lg *Ledger) Burned(from base.Address, amount base.Power) error {
	lg.Lock()
	defer lg.Unlock()

	total, err := lg.total.Latest().Sub(amount)
	if err != nil {
		return base.ValidationError.Wrap(err)
	}

	if err := lg.move(lg.delegates[from.Raw()], nil, amount); err != nil {
		return err
	}

	return lg.total.Push(lg.nowFunc(), total)
}

// Transferred moves weight between the delegatees of the affected holders;
// holders without delegation stay powerless.
func (lg *Ledger) Transferred(from, to base.Address, amount base.Power) error {
	lg.Lock()
	defer lg.Unlock()

	return lg.move(lg.delegates[from.Raw()], lg.delegates[to.Raw()], amount)
}

// move pushes new checkpoints on both affected delegatees at the current
// time; a nil side only appears or disappears weight.
func (lg *Ledger) move(src, dst base.Address, amount base.Power) error {
	if amount.IsZero() {
		return nil
	}
	if src != nil && dst != nil && src.Equal(dst) {
		return nil
	}

	now := lg.nowFunc()

	if src != nil {
		h := lg.history(src)

		n, err := h.Latest().Sub(amount)
		if err != nil {
			return base.ValidationError.Wrap(err)
		}

		if err := h.Push(now, n); err != nil {
			return err
		}
	}

	if dst != nil {
		h := lg.history(dst)
		if err := h.Push(now, h.Latest().Add(amount)); err != nil {
			return err
		}
	}

	return nil
}

func (lg *Ledger) history(a base.Address) *History {
	h, found := lg.accounts[a.Raw()]
	if !found {
		h = NewHistory()
		lg.accounts[a.Raw()] = h
	}

	return h
}

// isPast rejects queries at or after the current instant; querying the
// still-mutable present would allow intra-transaction manipulation.
func (lg *Ledger) isPast(t time.Time) error {
	if !localtime.Normalize(t).Before(localtime.Normalize(lg.nowFunc())) {
		return base.ValidationError.Errorf(
			"time %s not yet determined", localtime.String(t))
	}

	return nil
}
