package base

import (
	"time"

	"github.com/agora-gov/agora/util/valuehash"
)

// VotingPowerSource answers point-in-time voting-power queries; the queried
// time must be strictly in the past.
type VotingPowerSource interface {
	GetPastVotes(Address, time.Time) (Power, error)
	GetPastTotalSupply(time.Time) (Power, error)
	// Votes returns the current voting power of the account.
	Votes(Address) Power
}

// QuorumPolicy decides the minimum combined for+abstain weight for a
// proposal snapshot.
type QuorumPolicy interface {
	Quorum(snapshot time.Time) (Power, error)
}

// Invokable is a contract reachable by timelock execution.
type Invokable interface {
	Invoke(caller Address, call Call) error
}

// Snapshotter lets the executor restore a contract when a later call of the
// same batch fails.
type Snapshotter interface {
	Snapshot() (restore func())
}

// Resolver maps a call target address to its contract.
type Resolver func(Address) (Invokable, bool)

// OperationGate is the delay-enforcing executor between a passed vote and
// its effect.
type OperationGate interface {
	Queue(caller Address, calls []Call, predecessor valuehash.Hash, salt []byte) (valuehash.L32, error)
	Execute(caller Address, calls []Call, predecessor valuehash.Hash, salt []byte) (valuehash.L32, error)
	Cancel(caller Address, id valuehash.L32) error
	ReadyAt(id valuehash.L32) (time.Time, error)
	IsReady(id valuehash.L32) bool
	IsDone(id valuehash.L32) bool
	MinDelay() time.Duration
}
