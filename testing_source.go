package evreg

import (
	"github.com/stretchr/testify/mock"
)

type mockSource[K comparable, V any] struct {
	AttachFunc func(channel K, sub Subscription, fn Listener[V])
	DetachFunc func(channel K, sub Subscription)
}

func (m *mockSource[K, V]) Attach(channel K, sub Subscription, fn Listener[V]) {
	if m.AttachFunc != nil {
		m.AttachFunc(channel, sub, fn)
	}
}

func (m *mockSource[K, V]) Detach(channel K, sub Subscription) {
	if m.DetachFunc != nil {
		m.DetachFunc(channel, sub)
	}
}

type recorderSource[K comparable, V any] struct {
	mock.Mock
}

func (r *recorderSource[K, V]) Attach(channel K, sub Subscription, _ Listener[V]) {
	r.Called(channel, sub)
}

func (r *recorderSource[K, V]) Detach(channel K, sub Subscription) {
	r.Called(channel, sub)
}
