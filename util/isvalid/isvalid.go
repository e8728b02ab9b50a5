package isvalid

import "github.com/agora-gov/agora/util"

var InvalidError = util.NewError("invalid")

type IsValider interface {
	IsValid([]byte) error
}
