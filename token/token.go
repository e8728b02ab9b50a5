package token

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/ledger"
	"github.com/agora-gov/agora/util/logging"
)

// Token is the fungible balance the voting power accrues from. It owns
// nothing but balances; every balance change is reported to the
// voting-power ledger, which is the sole source of truth for past power.
type Token struct {
	sync.RWMutex
	*logging.Logging
	symbol   string
	balances map[string]base.Power
	supply   base.Power
	lg       *ledger.Ledger
}

func NewToken(symbol string, lg *ledger.Ledger) *Token {
	return &Token{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "token").Str("symbol", symbol)
		}),
		symbol:   symbol,
		balances: map[string]base.Power{},
		supply:   base.ZeroPower,
		lg:       lg,
	}
}

func (tk *Token) Symbol() string {
	return tk.symbol
}

func (tk *Token) BalanceOf(a base.Address) base.Power {
	tk.RLock()
	defer tk.RUnlock()

	return tk.balance(a)
}

func (tk *Token) TotalSupply() base.Power {
	tk.RLock()
	defer tk.RUnlock()

	return tk.supply
}

func (tk *Token) Mint(to base.Address, amount base.Power) error {
	if err := to.IsValid(nil); err != nil {
		return base.ValidationError.Wrap(err)
	}
	if err := amount.IsValid(nil); err != nil {
		return base.ValidationError.Wrap(err)
	}

	tk.Lock()
	defer tk.Unlock()

	if err := tk.lg.Minted(to, amount); err != nil {
		return err
	}

	tk.balances[to.Raw()] = tk.balance(to).Add(amount)
	tk.supply = tk.supply.Add(amount)

	return nil
}

func (tk *Token) Burn(from base.Address, amount base.Power) error {
	tk.Lock()
	defer tk.Unlock()

	nb, err := tk.balance(from).Sub(amount)
	if err != nil {
		return base.ValidationError.Wrap(err)
	}

	if err := tk.lg.Burned(from, amount); err != nil {
		return err
	}

	ns, _ := tk.supply.Sub(amount)
	tk.balances[from.Raw()] = nb
	tk.supply = ns

	return nil
}

func (tk *Token) Transfer(from, to base.Address, amount base.Power) error {
	if err := to.IsValid(nil); err != nil {
		return base.ValidationError.Wrap(err)
	}

	tk.Lock()
	defer tk.Unlock()

	nb, err := tk.balance(from).Sub(amount)
	if err != nil {
		return base.ValidationError.Wrap(err)
	}

	if err := tk.lg.Transferred(from, to, amount); err != nil {
		return err
	}

	tk.balances[from.Raw()] = nb
	tk.balances[to.Raw()] = tk.balance(to).Add(amount)

	return nil
}

// Delegate assigns the holder's voting power to the delegatee; the holder's
// current balance is the moved weight.
func (tk *Token) Delegate(from, to base.Address) error {
	tk.Lock()
	defer tk.Unlock()

	return tk.lg.Delegate(from, to, tk.balance(from))
}

func (tk *Token) balance(a base.Address) base.Power {
	b, found := tk.balances[a.Raw()]
	if !found {
		return base.ZeroPower
	}

	return b
}
