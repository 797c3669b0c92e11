package evreg

type (
	// Source is the capability a participant needs in order to fire events on
	// a channel. The registry pushes listeners into sources through this
	// interface; any type implementing it can register, there is no required
	// base type to embed.
	Source[K comparable, V any] interface {
		// Attach adds a listener to this source's local collection for the
		// given channel. It is called by the registry during cross-wiring and
		// must ignore channels the source never declared.
		Attach(channel K, sub Subscription, fn Listener[V])

		// Detach removes a previously attached listener, identified by its
		// subscription. Unknown subscriptions are ignored.
		Detach(channel K, sub Subscription)
	}
)
