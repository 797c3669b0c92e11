package evreg

import (
	"sync"

	"github.com/pkg/errors"
)

// channelRecord holds the registry's bookkeeping for one channel: the sources
// currently able to fire it and the listeners waiting to be (or already)
// attached to them.
type channelRecord[K comparable, V any] struct {
	sources   []Source[K, V]
	listeners []registration[V]
}

// Registry cross-wires sources and listeners per channel so that registration
// order never matters: a listener registered before any source exists is
// attached to every source added later, and a listener registered afterwards
// is attached to all current sources immediately. Firing never goes through
// the registry; it is a direct call from a source to its local listeners.
//
// The set of channels is closed at construction time. Operations referencing
// any other identifier fail with ErrUnknownChannel.
//
// A Registry is safe for concurrent use. All operations take an internal
// lock; sources are called while it is held, so a Source implementation must
// never call back into the registry from Attach or Detach.
type Registry[K comparable, V any] struct {
	records map[K]*channelRecord[K, V]
	logger  Logger
	lock    sync.RWMutex
}

// NewRegistry creates a registry for the given closed set of channel
// identifiers. Duplicate identifiers collapse into one channel. A nil logger
// disables logging.
func NewRegistry[K comparable, V any](logger Logger, channels ...K) *Registry[K, V] {
	if logger == nil {
		logger = NewNoopLogger()
	}

	r := &Registry[K, V]{
		records: make(map[K]*channelRecord[K, V], len(channels)),
		logger:  logger,
	}

	for _, channel := range channels {
		if _, exists := r.records[channel]; exists {
			continue
		}
		r.records[channel] = &channelRecord[K, V]{}
	}

	return r
}

// Reset clears every channel's source list and listener list in place. The
// per-channel records survive, so the registry value remains valid after a
// reset, and calling Reset repeatedly never accumulates state. Sources keep
// whatever listeners they already hold; a source meant to outlive a reset
// has to declare its channels again.
func (r *Registry[K, V]) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, rec := range r.records {
		rec.sources = rec.sources[:0]
		rec.listeners = rec.listeners[:0]
	}

	r.logger.Debugf("registry reset, %d channels cleared", len(r.records))
}

// AddSource registers src as able to fire channel. Every listener currently
// recorded for the channel is attached to src before it is appended, so the
// source starts out synchronized. Adding the same source to the same channel
// twice is a no-op; a fire never double-delivers because of repeated
// registration.
func (r *Registry[K, V]) AddSource(channel K, src Source[K, V]) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	rec, found := r.records[channel]
	if !found {
		return errors.Wrapf(ErrUnknownChannel, "add source to %v", channel)
	}

	for _, existing := range rec.sources {
		if existing == src {
			r.logger.WithField("channel", channel).
				Warnf("source already registered, ignoring")
			return nil
		}
	}

	for _, reg := range rec.listeners {
		src.Attach(channel, reg.sub, reg.fn)
	}
	rec.sources = append(rec.sources, src)

	r.logger.WithField("channel", channel).
		Debugf("source registered, %d listeners backfilled", len(rec.listeners))
	return nil
}

// AddListener registers fn on channel and returns the subscription that
// identifies this registration. The listener is attached to every source
// already registered for the channel and will be attached to every source
// added later. Each call is a distinct registration: registering the same
// callback twice means two deliveries per fire.
//
// The attach pass over existing sources completes before the registration is
// recorded, so wiring triggered from inside an Attach can never see a
// half-registered listener.
func (r *Registry[K, V]) AddListener(channel K, fn Listener[V]) (Subscription, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	rec, found := r.records[channel]
	if !found {
		return Subscription{}, errors.Wrapf(ErrUnknownChannel, "add listener to %v", channel)
	}

	sub := newSubscription()

	for _, src := range rec.sources {
		src.Attach(channel, sub, fn)
	}
	rec.listeners = append(rec.listeners, registration[V]{sub: sub, fn: fn})

	r.logger.WithField("channel", channel).WithField("subscription", sub).
		Debugf("listener registered, attached to %d sources", len(rec.sources))
	return sub, nil
}

// RemoveSource unregisters src from channel, removing the first identity
// match, once. The source's registry-wired listeners are detached from it;
// the registry's own listener record is untouched, so future sources on the
// channel still receive them. Removing a source that is not registered is a
// silent no-op.
func (r *Registry[K, V]) RemoveSource(channel K, src Source[K, V]) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	rec, found := r.records[channel]
	if !found {
		return errors.Wrapf(ErrUnknownChannel, "remove source from %v", channel)
	}

	for i, existing := range rec.sources {
		if existing != src {
			continue
		}

		rec.sources = append(rec.sources[:i], rec.sources[i+1:]...)
		for _, reg := range rec.listeners {
			src.Detach(channel, reg.sub)
		}

		r.logger.WithField("channel", channel).
			Debugf("source removed, %d sources remain", len(rec.sources))
		return nil
	}

	r.logger.WithField("channel", channel).
		Debugf("source not registered, nothing to remove")
	return nil
}

// RemoveListener drops the registration identified by sub from channel: it
// is removed from the registry's record and detached from every currently
// registered source. An unknown subscription is a silent no-op.
func (r *Registry[K, V]) RemoveListener(channel K, sub Subscription) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	rec, found := r.records[channel]
	if !found {
		return errors.Wrapf(ErrUnknownChannel, "remove listener from %v", channel)
	}

	for i, reg := range rec.listeners {
		if reg.sub != sub {
			continue
		}

		rec.listeners = append(rec.listeners[:i], rec.listeners[i+1:]...)
		for _, src := range rec.sources {
			src.Detach(channel, sub)
		}

		r.logger.WithField("channel", channel).WithField("subscription", sub).
			Debugf("listener removed")
		return nil
	}

	return nil
}

// Channels returns the registry's closed identifier set, in no particular
// order.
func (r *Registry[K, V]) Channels() []K {
	r.lock.RLock()
	defer r.lock.RUnlock()

	channels := make([]K, 0, len(r.records))
	for channel := range r.records {
		channels = append(channels, channel)
	}
	return channels
}
