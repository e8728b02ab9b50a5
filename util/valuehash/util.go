package valuehash

import (
	"crypto/rand"

	"github.com/btcsuite/btcutil/base58"
)

func RandomSHA256() Hash {
	b := make([]byte, 100)
	_, _ = rand.Read(b)

	return NewSHA256(b)
}

// ParseL32 decodes the base58 string form back to L32.
func ParseL32(s string) (L32, error) {
	b := base58.Decode(s)
	if len(b) != sha256Size {
		return L32{}, InvalidHashError.Errorf("wrong size, %d", len(b))
	}

	var h L32
	copy(h[:], b)

	return h, nil
}

func toString(b []byte) string {
	return base58.Encode(b)
}
