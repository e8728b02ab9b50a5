package base

import (
	"math/big"

	"github.com/agora-gov/agora/util/isvalid"
)

// Power is the unsigned voting-power amount. It is wide enough for any token
// supply; arithmetic never mutates the receiver.
type Power struct {
	i *big.Int
}

var ZeroPower = Power{i: big.NewInt(0)}

func NewPower(i uint64) Power {
	return Power{i: new(big.Int).SetUint64(i)}
}

func NewPowerFromString(s string) (Power, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Power{}, isvalid.InvalidError.Errorf("invalid power string, %q", s)
	}
	if i.Sign() < 0 {
		return Power{}, isvalid.InvalidError.Errorf("negative power, %q", s)
	}

	return Power{i: i}, nil
}

func (p Power) IsValid([]byte) error {
	if p.i == nil {
		return isvalid.InvalidError.Errorf("nil power")
	}
	if p.i.Sign() < 0 {
		return isvalid.InvalidError.Errorf("negative power, %v", p.i)
	}

	return nil
}

func (p Power) String() string {
	if p.i == nil {
		return "0"
	}

	return p.i.String()
}

func (p Power) Bytes() []byte {
	if p.i == nil {
		return nil
	}

	return p.i.Bytes()
}

func (p Power) Int() *big.Int {
	if p.i == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Set(p.i)
}

func (p Power) IsZero() bool {
	return p.i == nil || p.i.Sign() == 0
}

func (p Power) Equal(b Power) bool {
	return p.Cmp(b) == 0
}

func (p Power) Cmp(b Power) int {
	return p.Int().Cmp(b.Int())
}

func (p Power) Add(b Power) Power {
	return Power{i: new(big.Int).Add(p.Int(), b.Int())}
}

// Sub returns p - b; underflow below zero is rejected.
func (p Power) Sub(b Power) (Power, error) {
	n := new(big.Int).Sub(p.Int(), b.Int())
	if n.Sign() < 0 {
		return Power{}, isvalid.InvalidError.Errorf("power underflow: %v - %v", p, b)
	}

	return Power{i: n}, nil
}

// MulDiv returns p * num / den, used for quorum-fraction calculation.
func (p Power) MulDiv(num, den uint64) Power {
	if den < 1 {
		return ZeroPower
	}

	n := new(big.Int).Mul(p.Int(), new(big.Int).SetUint64(num))

	return Power{i: n.Div(n, new(big.Int).SetUint64(den))}
}

func (p Power) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Power) UnmarshalText(b []byte) error {
	i, err := NewPowerFromString(string(b))
	if err != nil {
		return err
	}

	*p = i

	return nil
}
