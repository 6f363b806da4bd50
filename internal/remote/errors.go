package remote

import "errors"

var (
	// ErrInvalidCommand is returned for unparseable or unknown commands.
	ErrInvalidCommand = errors.New("remote: invalid command")

	// ErrInvalidParameters is returned when command parameters are missing,
	// mistyped or out of range.
	ErrInvalidParameters = errors.New("remote: invalid parameters")
)
