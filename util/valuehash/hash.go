package valuehash

import (
	"fmt"

	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/isvalid"
)

var (
	EmptyHashError   = util.NewError("empty hash")
	InvalidHashError = util.NewError("invalid hash")
)

type Hash interface {
	isvalid.IsValider
	util.Byter
	// NOTE String() value is the base58 encoded of Bytes()
	fmt.Stringer
	Size() int
	Equal(Hash) bool
	IsEmpty() bool
}

type Hasher interface {
	Hash() Hash
}
