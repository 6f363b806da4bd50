package runner

import "errors"

var (
	// ErrBusy is returned by Submit when the command queue is full.
	ErrBusy = errors.New("runner: command queue full")

	// ErrStopped is returned once Run has begun shutting down.
	ErrStopped = errors.New("runner: stopped")
)
