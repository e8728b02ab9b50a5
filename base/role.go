package base

import (
	"sync"

	"github.com/agora-gov/agora/util/isvalid"
)

// Role is the capability required for the gated timelock and governor calls.
type Role string

const (
	RoleProposer  Role = "proposer"
	RoleExecutor  Role = "executor"
	RoleCanceller Role = "canceller"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid([]byte) error {
	switch r {
	case RoleProposer, RoleExecutor, RoleCanceller, RoleAdmin:
		return nil
	default:
		return isvalid.InvalidError.Errorf("unknown role, %q", r)
	}
}

// ACL is the access-control table keyed by (role, account). It is shared by
// reference between the governor and the timelock gate; it is mutated only
// through admin-gated calls and never implicitly reset.
type ACL struct {
	sync.RWMutex
	members map[Role]map[string]struct{}
}

func NewACL(admin Address) *ACL {
	ac := &ACL{members: map[Role]map[string]struct{}{}}
	if admin != nil {
		ac.grant(RoleAdmin, admin)
	}

	return ac
}

// Has reports whether the account holds the role; a role granted to
// AnyoneAddress is open to every caller.
func (ac *ACL) Has(r Role, a Address) bool {
	ac.RLock()
	defer ac.RUnlock()

	ms, found := ac.members[r]
	if !found {
		return false
	}

	if _, found := ms[AnyoneAddress.Raw()]; found {
		return true
	}

	if a == nil {
		return false
	}

	_, found = ms[a.Raw()]

	return found
}

// Members returns the accounts holding the role, sorted by address.
func (ac *ACL) Members(r Role) []Address {
	ac.RLock()
	defer ac.RUnlock()

	ms, found := ac.members[r]
	if !found {
		return nil
	}

	as := make([]Address, 0, len(ms))
	for s := range ms {
		as = append(as, StringAddress(s))
	}

	SortAddresses(as)

	return as
}

// Grant adds the account to the role; only the admin role may grant.
func (ac *ACL) Grant(caller Address, r Role, a Address) error {
	if err := r.IsValid(nil); err != nil {
		return ValidationError.Wrap(err)
	}

	if !ac.Has(RoleAdmin, caller) {
		return AuthorizationError.Errorf("%v can not grant %q", caller, r)
	}

	ac.Lock()
	defer ac.Unlock()

	ac.grant(r, a)

	return nil
}

// Revoke removes the account from the role; only the admin role may revoke.
func (ac *ACL) Revoke(caller Address, r Role, a Address) error {
	if err := r.IsValid(nil); err != nil {
		return ValidationError.Wrap(err)
	}

	if !ac.Has(RoleAdmin, caller) {
		return AuthorizationError.Errorf("%v can not revoke %q", caller, r)
	}

	ac.Lock()
	defer ac.Unlock()

	if ms, found := ac.members[r]; found {
		delete(ms, a.Raw())
	}

	return nil
}

// Seal drops every admin membership; afterward the table can never be
// mutated again. Deployments call Seal once the governor is wired in.
func (ac *ACL) Seal(caller Address) error {
	if !ac.Has(RoleAdmin, caller) {
		return AuthorizationError.Errorf("%v can not seal", caller)
	}

	ac.Lock()
	defer ac.Unlock()

	delete(ac.members, RoleAdmin)

	return nil
}

func (ac *ACL) grant(r Role, a Address) {
	ms, found := ac.members[r]
	if !found {
		ms = map[string]struct{}{}
		ac.members[r] = ms
	}

	ms[a.Raw()] = struct{}{}
}
