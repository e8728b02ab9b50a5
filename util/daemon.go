package util

import (
	"context"
	"sync"

	"golang.org/x/xerrors"
)

var (
	DaemonAlreadyStartedError = NewError("daemon already started")
	DaemonAlreadyStoppedError = NewError("daemon already stopped")
)

type Daemon interface {
	Start() error
	Stop() error
}

// ContextDaemon runs the given function until the internal context is
// canceled by Stop().
type ContextDaemon struct {
	sync.RWMutex
	fn         func(context.Context) error
	cancelfn   func()
	stoppedCh  chan error
	isStarted_ bool
}

func NewContextDaemon(fn func(context.Context) error) *ContextDaemon {
	return &ContextDaemon{fn: fn}
}

func (dm *ContextDaemon) IsStarted() bool {
	dm.RLock()
	defer dm.RUnlock()

	return dm.isStarted_
}

func (dm *ContextDaemon) Start() error {
	dm.Lock()
	defer dm.Unlock()

	if dm.isStarted_ {
		return DaemonAlreadyStartedError.Call()
	}

	ctx, cancel := context.WithCancel(context.Background())
	dm.cancelfn = cancel
	dm.stoppedCh = make(chan error, 1)
	dm.isStarted_ = true

	go func() {
		dm.stoppedCh <- dm.fn(ctx)
	}()

	return nil
}

func (dm *ContextDaemon) Stop() error {
	dm.Lock()
	defer dm.Unlock()

	if !dm.isStarted_ {
		return DaemonAlreadyStoppedError.Call()
	}

	dm.cancelfn()
	err := <-dm.stoppedCh
	dm.isStarted_ = false

	if err != nil && !IsContextCanceled(err) {
		return err
	}

	return nil
}

func IsContextCanceled(err error) bool {
	return xerrors.Is(err, context.Canceled)
}
