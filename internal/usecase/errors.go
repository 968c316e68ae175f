package usecase

import "errors"

// ErrNoSignal means the engine produced no signal for the input.
var ErrNoSignal = errors.New("no signal generated")
