package valuehash

import (
	"bytes"

	"github.com/agora-gov/agora/util/isvalid"
)

type L32 [32]byte

var emptyL32 [32]byte

func (h L32) IsValid([]byte) error {
	if h.IsEmpty() {
		return isvalid.InvalidError.Wrap(EmptyHashError)
	}

	return nil
}

func (h L32) Bytes() []byte {
	return h[:]
}

func (h L32) String() string {
	return toString(h[:])
}

func (h L32) Size() int {
	return len(h)
}

func (h L32) Equal(b Hash) bool {
	if b == nil {
		return false
	}

	return bytes.Equal(h[:], b.Bytes())
}

func (h L32) IsEmpty() bool {
	return emptyL32 == h
}

func (h L32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *L32) UnmarshalText(b []byte) error {
	i, err := ParseL32(string(b))
	if err != nil {
		return err
	}

	*h = i

	return nil
}
