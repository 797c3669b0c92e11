package evreg

import (
	"github.com/google/uuid"
)

type (
	// Listener is a callback invoked with the payload of every event fired on
	// the channel it was registered for. Listeners are fire-and-forget: they
	// return nothing and are expected not to panic.
	Listener[V any] func(V)

	// Subscription identifies one listener registration. Two registrations of
	// the same callback are distinct subscriptions. It is comparable and can
	// be used as a map key.
	Subscription struct {
		id uuid.UUID
	}

	// registration pairs a listener with the subscription that owns it.
	registration[V any] struct {
		sub Subscription
		fn  Listener[V]
	}
)

func newSubscription() Subscription {
	return Subscription{id: uuid.New()}
}

func (s Subscription) String() string {
	return s.id.String()
}
