package monitoring

import (
	"fmt"
	"sync/atomic"

	"github.com/aalemi-dev/sqlguard/database"
)

// subscription implements the Register/Unregister/Close bookkeeping shared by
// the stateless observers.
type subscription struct {
	name        string
	unsubscribe atomic.Pointer[[]func()]
	disposed    atomic.Bool
}

func (s *subscription) register(subscribe func() []func()) error {
	if s.disposed.Load() {
		return fmt.Errorf("%w: %s", database.ErrObjectDisposed, s.name)
	}
	if s.unsubscribe.Load() != nil {
		return nil
	}
	subs := subscribe()
	if !s.unsubscribe.CompareAndSwap(nil, &subs) {
		detach(subs)
		return nil
	}
	if s.disposed.Load() {
		if s.unsubscribe.CompareAndSwap(&subs, nil) {
			detach(subs)
		}
		return fmt.Errorf("%w: %s", database.ErrObjectDisposed, s.name)
	}
	return nil
}

func detach(subs []func()) {
	for _, unsubscribe := range subs {
		unsubscribe()
	}
}

func (s *subscription) unregister() {
	if subs := s.unsubscribe.Swap(nil); subs != nil {
		detach(*subs)
	}
}

func (s *subscription) close() {
	s.disposed.Store(true)
	s.unregister()
}
