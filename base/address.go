package base

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agora-gov/agora/key"
	"github.com/agora-gov/agora/util"
	"github.com/agora-gov/agora/util/isvalid"
	"github.com/agora-gov/agora/util/valuehash"
	"github.com/btcsuite/btcutil/base58"
)

// Address represents the address of an account.
type Address interface {
	fmt.Stringer
	isvalid.IsValider
	util.Byter
	Equal(Address) bool
	Raw() string
}

var (
	reBlankAddressString = regexp.MustCompile(`[\s][\s]*`)
	reAddressString      = regexp.MustCompile(`^[a-zA-Z0-9\*][\w\-\*]*[a-zA-Z0-9\*]?$`)
)

var EmptyStringAddress = StringAddress("")

// AnyoneAddress is the sentinel for roles open to any caller.
var AnyoneAddress = StringAddress("*")

type StringAddress string

func NewStringAddress(s string) (StringAddress, error) {
	sa := StringAddress(s)

	return sa, sa.IsValid(nil)
}

// NewAddressFromPublickey derives the account address from its publickey;
// the address is the base58 form of the publickey digest.
func NewAddressFromPublickey(pub key.Publickey) (StringAddress, error) {
	if pub == nil {
		return EmptyStringAddress, isvalid.InvalidError.Errorf("empty publickey for address")
	}

	h := valuehash.NewSHA256([]byte(pub.String()))

	return NewStringAddress(base58.Encode(h.Bytes()))
}

func (sa StringAddress) Raw() string {
	return string(sa)
}

func (sa StringAddress) String() string {
	return string(sa)
}

func (sa StringAddress) IsValid([]byte) error {
	if reBlankAddressString.Match([]byte(sa)) {
		return isvalid.InvalidError.Errorf("address string, %q has blank", sa)
	}

	if s := strings.TrimSpace(string(sa)); len(s) < 1 {
		return isvalid.InvalidError.Errorf("empty address")
	}

	if !reAddressString.Match([]byte(sa)) {
		return isvalid.InvalidError.Errorf("invalid address string, %q", sa)
	}

	return nil
}

func (sa StringAddress) Equal(a Address) bool {
	if a == nil {
		return false
	}

	return string(sa) == a.Raw()
}

func (sa StringAddress) Bytes() []byte {
	return []byte(sa)
}

func (sa StringAddress) MarshalText() ([]byte, error) {
	return []byte(sa), nil
}

func (sa *StringAddress) UnmarshalText(b []byte) error {
	a, err := NewStringAddress(string(b))
	if err != nil {
		return err
	}

	*sa = a

	return nil
}

func SortAddresses(as []Address) {
	sort.Slice(as, func(i, j int) bool {
		return strings.Compare(as[i].String(), as[j].String()) < 0
	})
}
