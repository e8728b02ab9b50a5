package base

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"
)

type testACL struct {
	suite.Suite

	admin StringAddress
	alice StringAddress
	bob   StringAddress
}

func (t *testACL) SetupSuite() {
	t.admin, _ = NewStringAddress("admin")
	t.alice, _ = NewStringAddress("alice")
	t.bob, _ = NewStringAddress("bob")
}

func (t *testACL) TestAdminGrant() {
	ac := NewACL(t.admin)
	t.True(ac.Has(RoleAdmin, t.admin))
	t.False(ac.Has(RoleProposer, t.alice))

	t.NoError(ac.Grant(t.admin, RoleProposer, t.alice))
	t.True(ac.Has(RoleProposer, t.alice))
}

func (t *testACL) TestNonAdminGrant() {
	ac := NewACL(t.admin)

	err := ac.Grant(t.alice, RoleProposer, t.bob)
	t.True(xerrors.Is(err, AuthorizationError))
	t.False(ac.Has(RoleProposer, t.bob))
}

func (t *testACL) TestRevoke() {
	ac := NewACL(t.admin)
	t.NoError(ac.Grant(t.admin, RoleExecutor, t.alice))
	t.NoError(ac.Revoke(t.admin, RoleExecutor, t.alice))
	t.False(ac.Has(RoleExecutor, t.alice))

	err := ac.Revoke(t.bob, RoleAdmin, t.admin)
	t.True(xerrors.Is(err, AuthorizationError))
}

func (t *testACL) TestAnyone() {
	ac := NewACL(t.admin)
	t.NoError(ac.Grant(t.admin, RoleExecutor, AnyoneAddress))

	t.True(ac.Has(RoleExecutor, t.alice))
	t.True(ac.Has(RoleExecutor, t.bob))
	t.False(ac.Has(RoleProposer, t.bob))
}

func (t *testACL) TestMembers() {
	ac := NewACL(t.admin)
	t.NoError(ac.Grant(t.admin, RoleCanceller, t.bob))
	t.NoError(ac.Grant(t.admin, RoleCanceller, t.alice))

	ms := ac.Members(RoleCanceller)
	t.Equal(2, len(ms))
	t.True(ms[0].Equal(t.alice))
	t.True(ms[1].Equal(t.bob))

	t.Nil(ac.Members(RoleProposer))
}

func (t *testACL) TestSeal() {
	ac := NewACL(t.admin)
	t.NoError(ac.Grant(t.admin, RoleProposer, t.alice))

	err := ac.Seal(t.alice)
	t.True(xerrors.Is(err, AuthorizationError))

	t.NoError(ac.Seal(t.admin))
	t.False(ac.Has(RoleAdmin, t.admin))
	t.True(ac.Has(RoleProposer, t.alice)) // role grants survive sealing

	err = ac.Grant(t.admin, RoleProposer, t.bob)
	t.True(xerrors.Is(err, AuthorizationError))
}

func TestACL(t *testing.T) {
	suite.Run(t, new(testACL))
}
