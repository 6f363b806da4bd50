package sequencer

import "errors"

// Domain errors for the sequencer package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInit is returned by Initialize when the playback device does not
	// complete its handshake. The scheduler stays unarmed.
	ErrInit = errors.New("sequencer: playback device initialisation failed")

	// ErrNotInitialized is returned by device-facing setters before a
	// device has been attached with Initialize.
	ErrNotInitialized = errors.New("sequencer: no playback device attached")
)
