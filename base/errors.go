package base

import "github.com/agora-gov/agora/util"

// The governance core rejects every detected violation synchronously; the
// sentinels below distinguish why a call was rejected.
var (
	// ValidationError: malformed input, rejected before any state mutation.
	ValidationError = util.NewError("validation failed")
	// StateError: operation illegal in the current lifecycle state.
	StateError = util.NewError("invalid state")
	// AuthorizationError: caller does not hold the required role.
	AuthorizationError = util.NewError("not authorized")
	// ExternalCallError: a batched target call failed; the whole batch is
	// discarded.
	ExternalCallError = util.NewError("external call failed")
)
