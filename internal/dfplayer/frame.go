package dfplayer

import (
	"encoding/binary"
	"fmt"
)

// Frame layout constants.
const (
	// FrameSize is the length of every frame on the wire.
	FrameSize = 10

	frameStart   byte = 0x7E
	frameVersion byte = 0xFF
	frameLength  byte = 0x06
	frameEnd     byte = 0xEF
)

// Commands sent to the module.
const (
	CmdPlayFolder  byte = 0x0F // PARAM_H = folder (1-99), PARAM_L = track (1-255)
	CmdVolume      byte = 0x06 // PARAM_L = level (0-30)
	CmdReset       byte = 0x0C
	CmdQueryStatus byte = 0x42
	CmdQueryVolume byte = 0x43
)

// Reports sent by the module.
const (
	RespMediumInserted  byte = 0x3A
	RespMediumRemoved   byte = 0x3B
	RespFinishedUSB     byte = 0x3C
	RespFinishedSD      byte = 0x3D
	RespOnline          byte = 0x3F // PARAM_L = bitmask of online media
	RespError           byte = 0x40 // PARAM_L = error code
	RespAck             byte = 0x41
	errorCodeNoMedium   byte = 0x01
	errorCodeSleeping   byte = 0x02
	errorCodeBadFrame   byte = 0x03
	errorCodeChecksum   byte = 0x04
	errorCodeOutOfRange byte = 0x05
	errorCodeNotFound   byte = 0x06
)

// Frame is one decoded protocol frame.
type Frame struct {
	// Command is the command or report code.
	Command byte

	// Feedback requests an ack (0x41) from the module for this command.
	Feedback bool

	// Param is the 16-bit big-endian parameter.
	Param uint16
}

// checksum returns the two's complement of the sum of the version, length,
// command, feedback and parameter bytes.
func checksum(body []byte) uint16 {
	var sum uint16
	for _, b := range body {
		sum += uint16(b)
	}
	return -sum
}

// Encode returns the 10-byte wire form of the frame.
func (f Frame) Encode() []byte {
	buf := make([]byte, FrameSize)
	buf[0] = frameStart
	buf[1] = frameVersion
	buf[2] = frameLength
	buf[3] = f.Command
	if f.Feedback {
		buf[4] = 0x01
	}
	binary.BigEndian.PutUint16(buf[5:7], f.Param)
	binary.BigEndian.PutUint16(buf[7:9], checksum(buf[1:7]))
	buf[9] = frameEnd
	return buf
}

// DecodeFrame parses exactly one wire frame.
//
// Returns:
//   - Frame: the decoded frame
//   - error: ErrInvalidFrame if the length, delimiters, header or checksum are wrong
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) != FrameSize {
		return Frame{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidFrame, len(data), FrameSize)
	}
	if data[0] != frameStart || data[9] != frameEnd {
		return Frame{}, fmt.Errorf("%w: bad delimiters %#02x/%#02x", ErrInvalidFrame, data[0], data[9])
	}
	if data[1] != frameVersion || data[2] != frameLength {
		return Frame{}, fmt.Errorf("%w: bad header %#02x %#02x", ErrInvalidFrame, data[1], data[2])
	}
	want := checksum(data[1:7])
	if got := binary.BigEndian.Uint16(data[7:9]); got != want {
		return Frame{}, fmt.Errorf("%w: checksum %#04x, want %#04x", ErrInvalidFrame, got, want)
	}

	return Frame{
		Command:  data[3],
		Feedback: data[4] != 0,
		Param:    binary.BigEndian.Uint16(data[5:7]),
	}, nil
}

// IsReport reports whether the frame is an unsolicited module report rather
// than a reply to a request.
func (f Frame) IsReport() bool {
	switch f.Command {
	case RespMediumInserted, RespMediumRemoved, RespFinishedUSB, RespFinishedSD:
		return true
	}
	return false
}

// String returns a human-readable representation of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("Frame{Cmd:%#02x, Ack:%t, Param:%#04x}", f.Command, f.Feedback, f.Param)
}

// errorText describes a module error code.
func errorText(code byte) string {
	switch code {
	case errorCodeNoMedium:
		return "module busy or no medium"
	case errorCodeSleeping:
		return "module sleeping"
	case errorCodeBadFrame:
		return "serial receive error"
	case errorCodeChecksum:
		return "checksum mismatch"
	case errorCodeOutOfRange:
		return "track out of range"
	case errorCodeNotFound:
		return "track not found"
	default:
		return fmt.Sprintf("error code %#02x", code)
	}
}

// playFolderFrame builds a play command for folder/track.
func playFolderFrame(folder, track int, feedback bool) (Frame, error) {
	if folder < 1 || folder > 99 || track < 1 || track > 255 {
		return Frame{}, fmt.Errorf("%w: folder %d track %d", ErrInvalidTrack, folder, track)
	}
	return Frame{
		Command:  CmdPlayFolder,
		Feedback: feedback,
		Param:    uint16(folder)<<8 | uint16(track), //nolint:gosec // bounded above
	}, nil
}
