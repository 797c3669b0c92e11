package evreg

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownChannel    = errors.New("channel does not belong to the registry's known set")
	ErrUndeclaredChannel = errors.New("channel was never declared on this source")
)

type ErrListenerPanic struct {
	channel   any
	recovered any
}

func (e ErrListenerPanic) Error() string {
	return fmt.Sprintf("Listener panicked on channel %v: %v", e.channel, e.recovered)
}

func (e ErrListenerPanic) Unwrap() error {
	if err, ok := e.recovered.(error); ok {
		return err
	}
	return nil
}

func WrapErrorListenerPanic(channel, recovered any) *ErrListenerPanic {
	if recovered == nil {
		return nil
	}
	return &ErrListenerPanic{
		channel:   channel,
		recovered: recovered,
	}
}
