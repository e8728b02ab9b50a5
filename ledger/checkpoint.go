package ledger

import (
	"sort"
	"time"

	"github.com/agora-gov/agora/base"
	"github.com/agora-gov/agora/util/localtime"
)

// Checkpoint is one (effective-time, voting-power) snapshot.
type Checkpoint struct {
	At    time.Time  `json:"at"`
	Power base.Power `json:"power"`
}

// History is the append-only checkpoint sequence of one account, strictly
// increasing in effective-time; a write at the same instant overwrites the
// last checkpoint instead of appending.
type History struct {
	cps []Checkpoint
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Len() int {
	return len(h.cps)
}

// Latest returns the power of the newest checkpoint, or zero.
func (h *History) Latest() base.Power {
	if len(h.cps) < 1 {
		return base.ZeroPower
	}

	return h.cps[len(h.cps)-1].Power
}

// Get returns the power of the latest checkpoint with effective-time <= t,
// or zero if none exists.
func (h *History) Get(t time.Time) base.Power {
	t = localtime.Normalize(t)

	// index of the first checkpoint after t
	i := sort.Search(len(h.cps), func(i int) bool {
		return h.cps[i].At.After(t)
	})
	if i < 1 {
		return base.ZeroPower
	}

	return h.cps[i-1].Power
}

// Push appends a new checkpoint; pushing into the past is rejected.
func (h *History) Push(at time.Time, power base.Power) error {
	at = localtime.Normalize(at)

	if n := len(h.cps); n > 0 {
		last := h.cps[n-1]
		switch {
		case last.At.Equal(at):
			h.cps[n-1].Power = power

			return nil
		case last.At.After(at):
			return base.StateError.Errorf(
				"checkpoint out of order: %s < %s",
				localtime.String(at), localtime.String(last.At),
			)
		}
	}

	h.cps = append(h.cps, Checkpoint{At: at, Power: power})

	return nil
}

// Checkpoints returns a copy of the sequence.
func (h *History) Checkpoints() []Checkpoint {
	cps := make([]Checkpoint, len(h.cps))
	copy(cps, h.cps)

	return cps
}
