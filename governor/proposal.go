package governor

import (
	"time"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/valuehash"
)

// ProposalID is the deterministic digest of (targets, values, calldatas,
// description digest); identical inputs always yield the identical id.
func ProposalID(calls []base.Call, descriptionDigest valuehash.L32) valuehash.L32 {
	return base.CallsDigest(calls, descriptionDigest.Bytes())
}

// VoteReceipt records one counted vote; a zero-weight vote still counts as
// voted.
type VoteReceipt struct {
	Voter  base.Address    `json:"voter"`
	Option base.VoteOption `json:"option"`
	Weight base.Power      `json:"weight"`
	Reason string          `json:"reason,omitempty"`
}

// Proposal owns the immutable parameters and the mutable tally of one
// proposal. The immutable part is set once by propose; the queue, execute
// and cancel flags transition once each and are never reverted.
type Proposal struct {
	id                valuehash.L32
	proposer          base.Address
	calls             []base.Call
	descriptionDigest valuehash.L32
	snapshot          time.Time
	deadline          time.Time
	tally             base.Tally
	receipts          map[string]VoteReceipt
	executed          bool
	canceled          bool
	queued            bool
	operationID       valuehash.L32
	readyAt           time.Time
}

func newProposal(
	id valuehash.L32,
	proposer base.Address,
	calls []base.Call,
	descriptionDigest valuehash.L32,
	snapshot, deadline time.Time,
) *Proposal {
	return &Proposal{
		id:                id,
		proposer:          proposer,
		calls:             calls,
		descriptionDigest: descriptionDigest,
		snapshot:          snapshot,
		deadline:          deadline,
		tally:             base.NewTally(),
		receipts:          map[string]VoteReceipt{},
	}
}

func (pr *Proposal) ID() valuehash.L32 {
	return pr.id
}

func (pr *Proposal) Proposer() base.Address {
	return pr.proposer
}

func (pr *Proposal) Calls() []base.Call {
	calls := make([]base.Call, len(pr.calls))
	copy(calls, pr.calls)

	return calls
}

func (pr *Proposal) DescriptionDigest() valuehash.L32 {
	return pr.descriptionDigest
}

// Snapshot is the fixed past instant the voting power is measured at.
func (pr *Proposal) Snapshot() time.Time {
	return pr.snapshot
}

func (pr *Proposal) Deadline() time.Time {
	return pr.deadline
}

func (pr *Proposal) Tally() base.Tally {
	return pr.tally
}

func (pr *Proposal) HasVoted(a base.Address) bool {
	_, found := pr.receipts[a.Raw()]

	return found
}

func (pr *Proposal) Receipt(a base.Address) (VoteReceipt, bool) {
	r, found := pr.receipts[a.Raw()]

	return r, found
}

func (pr *Proposal) IsQueued() bool {
	return pr.queued
}

func (pr *Proposal) OperationID() valuehash.L32 {
	return pr.operationID
}
