package base

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/isvalid"
	"github.com/agora-gov/agora/util/valuehash"
)

// Call is one (target, value, calldata) triple of an operation batch.
type Call struct {
	Target Address
	Value  uint64
	Data   []byte
}

func NewCall(target Address, value uint64, data []byte) Call {
	// calls outlive the caller inside proposals and queued operations; the
	// calldata must not alias the caller's buffer.
	return Call{Target: target, Value: value, Data: util.CopyBytes(data)}
}

func (c Call) IsValid([]byte) error {
	if c.Target == nil {
		return isvalid.InvalidError.Errorf("call without target")
	}

	return isvalid.Check(nil, false, c.Target)
}

func (c Call) Bytes() []byte {
	b, _ := rlp.EncodeToBytes(c.rlp()) // nolint:errcheck

	return b
}

type callRLP struct {
	Target []byte
	Value  uint64
	Data   []byte
}

func (c Call) rlp() callRLP {
	var t []byte
	if c.Target != nil {
		t = c.Target.Bytes()
	}

	return callRLP{Target: t, Value: c.Value, Data: c.Data}
}

// CallsDigest hashes the rlp encoding of the batch plus the extra
// components; identical inputs always produce the identical digest.
func CallsDigest(calls []Call, extra ...[]byte) valuehash.L32 {
	rs := make([]callRLP, len(calls))
	for i := range calls {
		rs[i] = calls[i].rlp()
	}

	b, _ := rlp.EncodeToBytes(struct { // nolint:errcheck
		Calls []callRLP
		Extra [][]byte
	}{Calls: rs, Extra: extra})

	return valuehash.NewSHA256(b)
}

// DescriptionDigest hashes the human-readable proposal description.
func DescriptionDigest(description string) valuehash.L32 {
	return valuehash.NewSHA256([]byte(description))
}

func IsValidCalls(calls []Call) error {
	if len(calls) < 1 {
		return isvalid.InvalidError.Errorf("empty calls")
	}

	for i := range calls {
		if err := calls[i].IsValid(nil); err != nil {
			return isvalid.InvalidError.Errorf("%dth call: %v", i, err)
		}
	}

	return nil
}
