package valuehash

import (
	"golang.org/x/crypto/sha3"
)

const sha256Size int = 32

func NewSHA256(b []byte) L32 {
	return L32(sha3.Sum256(b))
}
