package engine

import "errors"

// ErrStopped is returned by Submit once the engine no longer accepts intents.
var ErrStopped = errors.New("engine stopped")
