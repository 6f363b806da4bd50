package dfplayer

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Serial line defaults. The module only speaks 9600 8N1.
const (
	DefaultBaudRate = 9600

	// serialReadTimeout keeps reads short so Close is not held up.
	serialReadTimeout = 100 * time.Millisecond
)

// SerialConfig selects the serial device.
type SerialConfig struct {
	// Port is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	Port string

	// BaudRate defaults to 9600.
	BaudRate int
}

// OpenSerial opens the serial device at 8N1 and discards pending input.
// Reads return (0, nil) on timeout, which Player's reader tolerates.
//
// Returns:
//   - serial.Port: ready to pass to New
//   - error: if the device cannot be opened or configured
func OpenSerial(cfg SerialConfig) (serial.Port, error) {
	if cfg.Port == "" {
		return nil, errors.New("dfplayer: serial port not configured")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("dfplayer: opening %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("dfplayer: setting read timeout on %s: %w", cfg.Port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("dfplayer: flushing %s: %w", cfg.Port, err)
	}

	return port, nil
}
