package timelock

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/localtime"
	"github.com/agora-gov/agora/util/logging"
	"github.com/agora-gov/agora/util/valuehash"
)

// Gate is the delay-enforcing executor between a passed vote and its
// effect: role-gated queue/execute/cancel of operation batches, each
// executed exactly once after the minimum delay elapsed.
type Gate struct {
	sync.RWMutex
	*logging.Logging
	address    base.Address
	minDelay   time.Duration
	acl        *base.ACL
	resolver   base.Resolver
	operations map[valuehash.L32]*operation
	nowFunc    func() time.Time
}

func NewGate(
	address base.Address,
	minDelay time.Duration,
	acl *base.ACL,
	resolver base.Resolver,
	nowFunc func() time.Time,
) *Gate {
	if nowFunc == nil {
		nowFunc = localtime.UTCNow
	}

	return &Gate{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "timelock-gate").Stringer("address", address)
		}),
		address:    address,
		minDelay:   minDelay,
		acl:        acl,
		resolver:   resolver,
		operations: map[valuehash.L32]*operation{},
		nowFunc:    nowFunc,
	}
}

// Address is the identity the gate invokes targets with; protected targets
// are owned by it.
func (gt *Gate) Address() base.Address {
	return gt.address
}

func (gt *Gate) MinDelay() time.Duration {
	return gt.minDelay
}

// Queue holds the batch until the minimum delay elapses. Only a proposer
// may queue; an operation id can be queued again only after cancel.
func (gt *Gate) Queue(
	caller base.Address,
	calls []base.Call,
	predecessor valuehash.Hash,
	salt []byte,
) (valuehash.L32, error) {
	if !gt.acl.Has(base.RoleProposer, caller) {
		return valuehash.L32{}, base.AuthorizationError.Errorf("%v is not a proposer", caller)
	}

	if err := base.IsValidCalls(calls); err != nil {
		return valuehash.L32{}, base.ValidationError.Wrap(err)
	}

	gt.Lock()
	defer gt.Unlock()

	id := OperationID(calls, predecessor, salt)
	if _, found := gt.operations[id]; found {
		return valuehash.L32{}, base.StateError.Errorf("operation %v already queued", id)
	}

	op := &operation{
		calls:   calls,
		readyAt: localtime.Normalize(gt.nowFunc().Add(gt.minDelay)),
	}
	if predecessor != nil && !predecessor.IsEmpty() {
		copy(op.predecessor[:], predecessor.Bytes())
	}

	gt.operations[id] = op

	gt.Log().Debug().
		Stringer("operation", id).
		Time("ready_at", op.readyAt).
		Msg("operation queued")

	return id, nil
}

// Execute runs the batch in order, all-or-nothing, exactly once. The caller
// must hold the executor role unless the role is open to anyone.
func (gt *Gate) Execute(
	caller base.Address,
	calls []base.Call,
	predecessor valuehash.Hash,
	salt []byte,
) (valuehash.L32, error) {
	if !gt.acl.Has(base.RoleExecutor, caller) {
		return valuehash.L32{}, base.AuthorizationError.Errorf("%v is not an executor", caller)
	}

	gt.Lock()
	defer gt.Unlock()

	id := OperationID(calls, predecessor, salt)
	op, found := gt.operations[id]

	now := gt.nowFunc()
	switch st := op.state(now); {
	case !found:
		return valuehash.L32{}, base.StateError.Errorf("unknown operation, %v", id)
	case st == StateDone:
		return valuehash.L32{}, base.StateError.Errorf("operation %v already executed", id)
	case st == StateWaiting:
		return valuehash.L32{}, base.StateError.Errorf(
			"operation %v not ready; ready at %s", id, localtime.String(op.readyAt))
	}

	if !op.predecessor.IsEmpty() {
		pr, found := gt.operations[op.predecessor]
		if !found || !pr.done {
			return valuehash.L32{}, base.StateError.Errorf(
				"predecessor %v not yet done", op.predecessor)
		}
	}

	if err := gt.invoke(op.calls); err != nil {
		return valuehash.L32{}, err
	}

	op.done = true

	gt.Log().Debug().Stringer("operation", id).Msg("operation executed")

	return id, nil
}

// Cancel reverts a pending operation back to unset; done operations are
// immutable.
func (gt *Gate) Cancel(caller base.Address, id valuehash.L32) error {
	if !gt.acl.Has(base.RoleCanceller, caller) {
		return base.AuthorizationError.Errorf("%v is not a canceller", caller)
	}

	gt.Lock()
	defer gt.Unlock()

	op, found := gt.operations[id]
	if !found {
		return base.StateError.Errorf("unknown operation, %v", id)
	}
	if op.done {
		return base.StateError.Errorf("operation %v already executed", id)
	}

	delete(gt.operations, id)

	gt.Log().Debug().Stringer("operation", id).Msg("operation canceled")

	return nil
}

func (gt *Gate) State(id valuehash.L32) OperationState {
	gt.RLock()
	defer gt.RUnlock()

	return gt.operations[id].state(gt.nowFunc())
}

func (gt *Gate) ReadyAt(id valuehash.L32) (time.Time, error) {
	gt.RLock()
	defer gt.RUnlock()

	op, found := gt.operations[id]
	if !found {
		return time.Time{}, base.StateError.Errorf("unknown operation, %v", id)
	}

	return op.readyAt, nil
}

func (gt *Gate) IsReady(id valuehash.L32) bool {
	return gt.State(id) == StateReady
}

func (gt *Gate) IsDone(id valuehash.L32) bool {
	return gt.State(id) == StateDone
}

// invoke dispatches every call in order; when one fails, the snapshots of
// the already invoked targets are restored so the batch leaves no partial
// effect.
func (gt *Gate) invoke(calls []base.Call) error {
	targets := make([]base.Invokable, len(calls))
	for i := range calls {
		c, found := gt.resolver(calls[i].Target)
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

		if err := targets[i].Invoke(gt.address, calls[i]); err != nil {
			for j := len(restores) - 1; j >= 0; j-- {
				restores[j]()
			}

			return base.ExternalCallError.Errorf("%dth call: %v", i, err)
		}
	}

	return nil
}
