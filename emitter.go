package evreg

import (
	"sync"

	"github.com/pkg/errors"
)

// Emitter is the ready-made Source implementation. It keeps one listener
// collection per declared channel, populated lazily: a channel only exists on
// the emitter once Declare has been called for it, and only declared channels
// accept listeners from the registry.
//
// An Emitter is safe for concurrent use. Fire dispatches over a snapshot of
// the listener collection taken under the lock and released before any
// callback runs, so listeners may register or remove participants from
// inside a callback without deadlocking.
type Emitter[K comparable, V any] struct {
	registry  *Registry[K, V]
	logger    Logger
	listeners map[K][]registration[V]
	lock      sync.RWMutex
}

// NewEmitter creates an emitter bound to registry. A nil logger disables
// logging.
func NewEmitter[K comparable, V any](registry *Registry[K, V], logger Logger) *Emitter[K, V] {
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &Emitter[K, V]{
		registry:  registry,
		logger:    logger,
		listeners: make(map[K][]registration[V]),
	}
}

// Declare announces that this emitter can fire the given channel and
// registers it with the registry, which immediately backfills every listener
// already waiting on the channel. Declare must be called before Fire for
// that channel. Declaring an already declared channel is a no-op.
func (e *Emitter[K, V]) Declare(channel K) error {
	e.lock.Lock()
	if _, declared := e.listeners[channel]; declared {
		e.lock.Unlock()
		return nil
	}
	e.listeners[channel] = nil
	e.lock.Unlock()

	// Registered outside the emitter lock: the registry calls Attach right
	// back during the backfill pass.
	if err := e.registry.AddSource(channel, e); err != nil {
		e.lock.Lock()
		delete(e.listeners, channel)
		e.lock.Unlock()
		return err
	}

	e.logger.WithField("channel", channel).Debugf("channel declared")
	return nil
}

// Attach implements Source. Listeners attached for a channel this emitter
// never declared are ignored: a source only holds listeners for channels it
// opted into.
func (e *Emitter[K, V]) Attach(channel K, sub Subscription, fn Listener[V]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if _, declared := e.listeners[channel]; !declared {
		e.logger.WithField("channel", channel).
			Debugf("attach on undeclared channel ignored")
		return
	}
	e.listeners[channel] = append(e.listeners[channel], registration[V]{sub: sub, fn: fn})
}

// Detach implements Source. Unknown channels and subscriptions are ignored.
func (e *Emitter[K, V]) Detach(channel K, sub Subscription) {
	e.lock.Lock()
	defer e.lock.Unlock()

	regs, declared := e.listeners[channel]
	if !declared {
		return
	}

	for i, reg := range regs {
		if reg.sub != sub {
			continue
		}
		e.listeners[channel] = append(regs[:i], regs[i+1:]...)
		return
	}
}

// Fire synchronously invokes every listener attached to this emitter for the
// given channel, in registration order, passing payload. It fails with
// ErrUndeclaredChannel if the channel was never declared on this emitter.
//
// A panicking listener aborts the remaining listeners for this fire: the
// panic is recovered and returned as *ErrListenerPanic. Listeners already
// invoked are not rolled back.
func (e *Emitter[K, V]) Fire(channel K, payload V) (err error) {
	e.lock.RLock()
	regs, declared := e.listeners[channel]
	if !declared {
		e.lock.RUnlock()
		return errors.Wrapf(ErrUndeclaredChannel, "fire %v", channel)
	}
	snapshot := make([]registration[V], len(regs))
	copy(snapshot, regs)
	e.lock.RUnlock()

	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.WithField("channel", channel).
				Errorf("listener panicked: %v", recovered)
			err = WrapErrorListenerPanic(channel, recovered)
		}
	}()

	for _, reg := range snapshot {
		reg.fn(payload)
	}

	return nil
}

// Close drops every local listener collection and unregisters the emitter
// from the registry for every channel it declared. Fire fails with
// ErrUndeclaredChannel afterwards; the registry keeps its listener records,
// so nothing is lost for sources added later.
func (e *Emitter[K, V]) Close() {
	e.lock.Lock()
	channels := make([]K, 0, len(e.listeners))
	for channel := range e.listeners {
		channels = append(channels, channel)
	}
	e.listeners = make(map[K][]registration[V])
	e.lock.Unlock()

	for _, channel := range channels {
		if err := e.registry.RemoveSource(channel, e); err != nil {
			e.logger.WithField("channel", channel).
				Errorf("cannot unregister on close: %s", err)
		}
	}
}
