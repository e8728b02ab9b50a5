package timelock

import (
	"time"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/valuehash"
)

// OperationState is derived from the stored record and the current time,
// never stored itself.
type OperationState uint8

const (
	StateUnset OperationState = iota
	StateWaiting
	StateReady
	StateDone
)

func (st OperationState) String() string {
	switch st {
	case StateUnset:
		return "UNSET"
	case StateWaiting:
		return "WAITING"
	case StateReady:
		return "READY"
	case StateDone:
		return "DONE"
	default:
		return "<unknown operation state>"
	}
}

// OperationID is the digest of (calls, predecessor, salt); the same batch
// with a different salt queues independently.
func OperationID(calls []base.Call, predecessor valuehash.Hash, salt []byte) valuehash.L32 {
	var pb []byte
	if predecessor != nil && !predecessor.IsEmpty() {
		pb = predecessor.Bytes()
	}

	return base.CallsDigest(calls, pb, salt)
}

type operation struct {
	calls       []base.Call
	predecessor valuehash.L32
	readyAt     time.Time
	done        bool
}

func (op *operation) state(now time.Time) OperationState {
	switch {
	case op == nil:
		return StateUnset
	case op.done:
		return StateDone
	case op.readyAt.After(now):
		return StateWaiting
	default:
		return StateReady
	}
}
