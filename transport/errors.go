package transport

import "errors"

var (
	// ErrDisconnected is returned by Post and Subscribe after Disconnect.
	ErrDisconnected = errors.New("rxspy: connection is disconnected")

	// ErrAlreadySubscribed is returned when Subscribe is called twice without
	// cancelling the first subscription.
	ErrAlreadySubscribed = errors.New("rxspy: connection already has an active subscription")
)
