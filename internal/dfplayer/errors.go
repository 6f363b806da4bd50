package dfplayer

import "errors"

// Domain errors for the dfplayer package.
var (
	// ErrInvalidFrame is returned when received bytes do not form a valid frame.
	ErrInvalidFrame = errors.New("dfplayer: invalid frame")

	// ErrNoResponse is returned when the module does not answer in time.
	ErrNoResponse = errors.New("dfplayer: no response from module")

	// ErrMediumMissing is returned when the module reports no storage medium.
	ErrMediumMissing = errors.New("dfplayer: storage medium not found")

	// ErrModuleError is returned when the module answers a request with an error report.
	ErrModuleError = errors.New("dfplayer: module reported an error")

	// ErrInvalidTrack is returned for folder or track numbers the module cannot address.
	ErrInvalidTrack = errors.New("dfplayer: invalid folder or track number")

	// ErrClosed is returned by operations on a closed Player.
	ErrClosed = errors.New("dfplayer: player closed")
)
