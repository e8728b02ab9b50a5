package base

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	"github.com/agora-gov/agora/util/isvalid"
)

type testCall struct {
	suite.Suite
}

func (t *testCall) newCall(target string, value uint64, data []byte) Call {
	a, err := NewStringAddress(target)
	t.NoError(err)

	return NewCall(a, value, data)
}

func (t *testCall) TestCallsDigestDeterministic() {
	calls := []Call{
		t.newCall("box", 0, []byte("showme")),
		t.newCall("vault", 33, nil),
	}

	a := CallsDigest(calls)
	b := CallsDigest([]Call{
		t.newCall("box", 0, []byte("showme")),
		t.newCall("vault", 33, nil),
	})

	t.True(a.Equal(b))
}

func (t *testCall) TestCalldataDoesNotAliasCaller() {
	data := []byte("store 666")
	c := t.newCall("box", 0, data)

	before := CallsDigest([]Call{c})
	data[0] = 'x'

	t.Equal([]byte("store 666"), c.Data)
	t.True(before.Equal(CallsDigest([]Call{c})))
}

func (t *testCall) TestCallsDigestOrderMatters() {
	c0 := t.newCall("box", 0, []byte("a"))
	c1 := t.newCall("vault", 0, []byte("b"))

	t.False(CallsDigest([]Call{c0, c1}).Equal(CallsDigest([]Call{c1, c0})))
}

func (t *testCall) TestCallsDigestExtra() {
	calls := []Call{t.newCall("box", 0, nil)}

	plain := CallsDigest(calls)
	salted := CallsDigest(calls, []byte("salt"))

	t.False(plain.Equal(salted))
	t.True(salted.Equal(CallsDigest(calls, []byte("salt"))))
}

func (t *testCall) TestDescriptionDigest() {
	a := DescriptionDigest("upgrade the box")
	b := DescriptionDigest("upgrade the box")
	c := DescriptionDigest("upgrade the vault")

	t.True(a.Equal(b))
	t.False(a.Equal(c))
}

func (t *testCall) TestIsValidCalls() {
	t.True(xerrors.Is(IsValidCalls(nil), isvalid.InvalidError))

	calls := []Call{t.newCall("box", 0, nil)}
	t.NoError(IsValidCalls(calls))

	calls = append(calls, Call{})
	t.Error(IsValidCalls(calls))
}

func TestCall(t *testing.T) {
	suite.Run(t, new(testCall))
}
