package key

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/isvalid"
)

var (
	InvalidKeyError                  = util.NewError("invalid key")
	SignatureVerificationFailedError = util.NewError("signature verification failed")
)

type Key interface {
	fmt.Stringer
	isvalid.IsValider
	Equal(Key) bool
}

type Publickey interface {
	Key
	Verify([]byte, Signature) error
}

type Privatekey interface {
	Key
	Publickey() Publickey
	Sign([]byte) (Signature, error)
}

type Signature []byte

func (sg Signature) Bytes() []byte {
	return sg
}

func (sg Signature) String() string {
	return base58.Encode(sg)
}

func (sg Signature) IsValid([]byte) error {
	if len(sg) < 1 {
		return InvalidKeyError.Errorf("empty signature")
	}

	return nil
}

func NewSignatureFromString(s string) Signature {
	return Signature(base58.Decode(s))
}
