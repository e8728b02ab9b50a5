package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type testError struct {
	suite.Suite
}

func (t *testError) TestIs() {
	e0 := NewError("showme")
	t.Implements((*(interface{ Error() string }))(nil), e0)

	t.Equal("showme", e0.Error())

	t.True(errors.Is(e0, e0))
	t.False(errors.Is(e0, NewError("showme")))
	t.False(errors.Is(e0, NewError("findme")))
	t.True(errors.Is(e0, e0.Errorf("showme")))
}

func (t *testError) TestWrap() {
	e0 := NewError("showme")
	pe := errors.Errorf("findme")
	e1 := e0.Wrap(pe)

	t.True(errors.Is(e1, e0))
	t.True(errors.Is(e1, pe))
	t.Contains(e1.Error(), "findme")
}

func (t *testError) TestErrorf() {
	e0 := NewError("showme")
	e1 := e0.Errorf("findme: %d", 33)

	t.True(errors.Is(e1, e0))
	t.Contains(e1.Error(), "33")
}

func (t *testError) TestCallKeepsIdentity() {
	e0 := NewError("showme")
	e1 := e0.Call()

	t.True(errors.Is(e1, e0))
}

func TestError(t *testing.T) {
	suite.Run(t, new(testError))
}
