package contract

import (
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/rs/zerolog"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/logging"
)

const (
	BoxMethodStore    = "store"
	BoxMethodRetrieve = "retrieve"
)

type boxCalldata struct {
	Method string
	Arg    uint64
}

// NewBoxCalldata encodes one Box call for a governance operation batch.
func NewBoxCalldata(method string, arg uint64) []byte {
	b, _ := rlp.EncodeToBytes(boxCalldata{Method: method, Arg: arg}) // nolint:errcheck

	return b
}

// Box is the protected target: a single stored value mutable only by its
// owner, which is the timelock gate in a governed deployment.
type Box struct {
	sync.RWMutex
	*logging.Logging
	owner base.Address
	value uint64
}

func NewBox(owner base.Address) *Box {
	return &Box{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "box").Stringer("owner", owner)
		}),
		owner: owner,
	}
}

func (bx *Box) Owner() base.Address {
	return bx.owner
}

func (bx *Box) Value() uint64 {
	bx.RLock()
	defer bx.RUnlock()

	return bx.value
}

func (bx *Box) Invoke(caller base.Address, call base.Call) error {
	var cd boxCalldata
	if err := rlp.DecodeBytes(call.Data, &cd); err != nil {
		return base.ValidationError.Errorf("invalid box calldata: %v", err)
	}

	switch cd.Method {
	case BoxMethodStore:
		if caller == nil || !bx.owner.Equal(caller) {
			return base.AuthorizationError.Errorf("%v is not the box owner", caller)
		}

		bx.Lock()
		bx.value = cd.Arg
		bx.Unlock()

		bx.Log().Debug().Uint64("value", cd.Arg).Msg("stored")

		return nil
	case BoxMethodRetrieve:
		return nil
	default:
		return base.ValidationError.Errorf("unknown box method, %q", cd.Method)
	}
}

// Snapshot lets the executor roll the box back when a later call of the
// same batch fails.
func (bx *Box) Snapshot() func() {
	bx.RLock()
	v := bx.value
	bx.RUnlock()

	return func() {
		bx.Lock()
		bx.value = v
		bx.Unlock()
	}
}
