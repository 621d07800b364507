package stream

import "errors"

// ErrStreamExhausted marks a subscription whose bounded reconnection
// attempts all failed. Terminal until the caller resubscribes.
var ErrStreamExhausted = errors.New("availability stream reconnect attempts exhausted")
