package contract

import (
	"sync"

	"github.com/agora-gov/agora/base"
)

// Registry maps call target addresses to their contracts; the timelock gate
// resolves execution targets through it.
type Registry struct {
	sync.RWMutex
	contracts map[string]base.Invokable
}

func NewRegistry() *Registry {
	return &Registry{contracts: map[string]base.Invokable{}}
}

func (rg *Registry) Register(a base.Address, c base.Invokable) error {
	if err := a.IsValid(nil); err != nil {
		return base.ValidationError.Wrap(err)
	}

	rg.Lock()
	defer rg.Unlock()

	if _, found := rg.contracts[a.Raw()]; found {
		return base.ValidationError.Errorf("contract already registered at %v", a)
	}

	rg.contracts[a.Raw()] = c

	return nil
}

func (rg *Registry) Resolve(a base.Address) (base.Invokable, bool) {
	rg.RLock()
	defer rg.RUnlock()

	c, found := rg.contracts[a.Raw()]

	return c, found
}
